package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/nagme/pkg/api"
)

func (s *Server) listAlarms(c *gin.Context) {
	alarms, err := s.engine.ListAlarms()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.AlarmsListResponse{
		Alarms: alarms,
		Count:  len(alarms),
	})
}

func (s *Server) createAlarm(c *gin.Context) {
	var req api.CreateAlarmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", ErrInvalidJSON, err),
			Status: http.StatusBadRequest,
		})
		return
	}

	if err := s.engine.AddAlarm(&req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, api.MessageResponse{
		Message: fmt.Sprintf("Alarm scheduled: %s", req.Name),
	})
}

func (s *Server) cancelAlarm(c *gin.Context) {
	name := c.Param("name")
	if err := s.engine.CancelAlarm(name); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{
		Message: fmt.Sprintf("Alarm cancelled: %s", name),
	})
}
