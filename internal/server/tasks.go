package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/nagme/pkg/api"
)

func (s *Server) listTasks(c *gin.Context) {
	tasks, err := s.engine.ListTasks()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.TasksListResponse{
		Tasks: tasks,
		Count: len(tasks),
	})
}

func (s *Server) createTask(c *gin.Context) {
	var req api.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", ErrInvalidJSON, err),
			Status: http.StatusBadRequest,
		})
		return
	}

	id, err := s.engine.CreateTask(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, api.TaskCreatedResponse{
		Message: "Task created",
		TaskID:  id,
	})
}

func (s *Server) getTask(c *gin.Context) {
	id := api.TaskID(c.Param("id"))
	st, err := s.engine.GetTask(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) removeTask(c *gin.Context) {
	id := api.TaskID(c.Param("id"))
	if err := s.engine.RemoveTask(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{
		Message: fmt.Sprintf("Task removed: %s", id),
	})
}

func (s *Server) addSubtask(c *gin.Context) {
	parentID := api.TaskID(c.Param("id"))

	var req api.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", ErrInvalidJSON, err),
			Status: http.StatusBadRequest,
		})
		return
	}

	id, err := s.engine.AddSubtask(parentID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, api.TaskCreatedResponse{
		Message: "Subtask added",
		TaskID:  id,
	})
}

func (s *Server) addNote(c *gin.Context) {
	id := api.TaskID(c.Param("id"))

	var req api.AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", ErrInvalidJSON, err),
			Status: http.StatusBadRequest,
		})
		return
	}

	if err := s.engine.AddNote(id, &req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{
		Message: "Note added",
	})
}

func (s *Server) getCompletion(c *gin.Context) {
	id := api.TaskID(c.Param("id"))
	res, err := s.engine.TaskCompletion(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) queryTask(c *gin.Context) {
	id := api.TaskID(c.Param("id"))
	res, err := s.engine.QueryTask(id, c.Query("path"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) pauseTask(c *gin.Context) {
	s.taskAction(c, s.engine.PauseTask, "Task paused")
}

func (s *Server) resumeTask(c *gin.Context) {
	s.taskAction(c, s.engine.ResumeTask, "Task resumed")
}

func (s *Server) completeTask(c *gin.Context) {
	s.taskAction(c, s.engine.CompleteTask, "Task completed")
}

func (s *Server) restartTask(c *gin.Context) {
	s.taskAction(c, s.engine.RestartTask, "Task restarted")
}

func (s *Server) resetTask(c *gin.Context) {
	s.taskAction(c, s.engine.ResetTask, "Task reset")
}

func (s *Server) setDeadline(c *gin.Context) {
	id := api.TaskID(c.Param("id"))

	var req api.SetDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", ErrInvalidJSON, err),
			Status: http.StatusBadRequest,
		})
		return
	}

	if err := s.engine.SetDeadline(id, &req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{
		Message: "Deadline set",
	})
}

func (s *Server) clearDeadline(c *gin.Context) {
	s.taskAction(c, s.engine.ClearDeadline, "Deadline cleared")
}

func (s *Server) extendDeadline(c *gin.Context) {
	id := api.TaskID(c.Param("id"))

	var req api.ExtendDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", ErrInvalidJSON, err),
			Status: http.StatusBadRequest,
		})
		return
	}

	if err := s.engine.ExtendDeadline(id, &req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{
		Message: "Deadline extended",
	})
}

func (s *Server) changeImportance(c *gin.Context) {
	id := api.TaskID(c.Param("id"))

	var req api.ChangeImportanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", ErrInvalidJSON, err),
			Status: http.StatusBadRequest,
		})
		return
	}

	if err := s.engine.ChangeImportance(id, &req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{
		Message: "Importance changed",
	})
}

// taskAction runs a single-ID engine operation and renders a message on
// success
func (s *Server) taskAction(
	c *gin.Context, fn func(api.TaskID) error, message string,
) {
	id := api.TaskID(c.Param("id"))
	if err := fn(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{
		Message: message,
	})
}
