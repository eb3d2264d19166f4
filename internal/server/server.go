package server

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"
	"github.com/kode4food/timebox"

	"github.com/kode4food/nagme/internal/engine"
	"github.com/kode4food/nagme/internal/task"
	"github.com/kode4food/nagme/pkg/api"
	"github.com/kode4food/nagme/pkg/util"
)

// Server implements the HTTP API server for the reminder daemon
type Server struct {
	engine   *engine.Engine
	eventHub timebox.EventHub
	service  string
	version  string
	sockets  util.Set[*Client]
	mu       sync.Mutex
}

var (
	ErrInvalidJSON = errors.New("invalid JSON body")
)

// NewServer creates a new HTTP API server over the given engine and hub.
// The service and version strings surface in health responses
func NewServer(
	eng *engine.Engine, hub timebox.EventHub, service, version string,
) *Server {
	return &Server{
		engine:   eng,
		eventHub: hub,
		service:  service,
		version:  version,
		sockets:  util.Set[*Client]{},
	}
}

// SetupRoutes configures and returns the HTTP router with all API endpoints
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(c *gin.Context, l *slog.Logger) *slog.Logger {
			return slog.Default()
		}),
	))

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set(
			"Access-Control-Allow-Methods",
			"GET, POST, PUT, DELETE, OPTIONS",
		)
		c.Writer.Header().Set(
			"Access-Control-Allow-Headers",
			"Content-Type, Authorization",
		)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	// Health check
	router.GET("/health", s.handleHealth)

	// WebSocket event stream
	router.GET("/events", s.handleWebSocket)

	tasks := router.Group("/api/tasks")
	{
		tasks.GET("", s.listTasks)
		tasks.POST("", s.createTask)
		tasks.GET("/:id", s.getTask)
		tasks.DELETE("/:id", s.removeTask)

		tasks.POST("/:id/subtasks", s.addSubtask)
		tasks.POST("/:id/notes", s.addNote)
		tasks.GET("/:id/completion", s.getCompletion)
		tasks.GET("/:id/query", s.queryTask)

		tasks.POST("/:id/pause", s.pauseTask)
		tasks.POST("/:id/resume", s.resumeTask)
		tasks.POST("/:id/complete", s.completeTask)
		tasks.POST("/:id/restart", s.restartTask)
		tasks.POST("/:id/reset", s.resetTask)

		tasks.PUT("/:id/deadline", s.setDeadline)
		tasks.DELETE("/:id/deadline", s.clearDeadline)
		tasks.POST("/:id/deadline/extend", s.extendDeadline)
		tasks.PUT("/:id/importance", s.changeImportance)
	}

	alarms := router.Group("/api/alarms")
	{
		alarms.GET("", s.listAlarms)
		alarms.POST("", s.createAlarm)
		alarms.DELETE("/:name", s.cancelAlarm)
	}

	return router
}

func (s *Server) registerWebSocket(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets.Add(c)
}

func (s *Server) unregisterWebSocket(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets.Remove(c)
}

// CloseWebSockets closes all active WebSocket connections.
func (s *Server) CloseWebSockets() {
	s.mu.Lock()
	conns := make([]*Client, 0, len(s.sockets))
	for c := range s.sockets {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}

// respondError renders an error with the HTTP status its sentinel maps to
func respondError(c *gin.Context, err error) {
	status := errorStatus(err)
	c.JSON(status, api.ErrorResponse{
		Error:  err.Error(),
		Status: status,
	})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, task.ErrTaskNotFound),
		errors.Is(err, engine.ErrTaskNotRegistered),
		errors.Is(err, engine.ErrAlarmNotFound),
		errors.Is(err, engine.ErrQueryNoResult):
		return http.StatusNotFound

	case errors.Is(err, task.ErrTaskCompleted),
		errors.Is(err, task.ErrBadTransition),
		errors.Is(err, task.ErrNoDeadline),
		errors.Is(err, engine.ErrAlarmExists):
		return http.StatusConflict

	case isRequestError(err):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// requestErrors are the validation sentinels raised before any command
// touches the store
var requestErrors = []error{
	api.ErrTaskNameTooLong,
	api.ErrTooManySubtasks,
	api.ErrTasksTooDeep,
	api.ErrInvalidStatus,
	api.ErrInvalidImportance,
	api.ErrNoteTextEmpty,
	api.ErrNoteTextTooLong,
	api.ErrDeadlineRequired,
	api.ErrDurationRequired,
	api.ErrAlarmNameEmpty,
	api.ErrAlarmDueRequired,
	engine.ErrAlarmNameReserved,
	engine.ErrQueryPathEmpty,
}

func isRequestError(err error) bool {
	for _, sentinel := range requestErrors {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
