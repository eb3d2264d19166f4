package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	res := s.engine.Health()
	res.Service = s.service
	res.Version = s.version
	c.JSON(http.StatusOK, res)
}
