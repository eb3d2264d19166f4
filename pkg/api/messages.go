package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Limits applied to incoming requests
const (
	MaxTaskNameLen  = 200
	MaxNoteTextLen  = 2000
	MaxSubtaskCount = 64
	MaxTaskDepth    = 8
)

// Wire durations are expressed in milliseconds
const (
	Second int64 = 1000
	Minute       = Second * 60
	Hour         = Minute * 60
	Day          = Hour * 24
)

var (
	ErrTaskNameTooLong   = errors.New("task name too long")
	ErrTooManySubtasks   = errors.New("too many subtasks")
	ErrTasksTooDeep      = errors.New("subtasks nested too deeply")
	ErrInvalidStatus     = errors.New("invalid task status")
	ErrInvalidImportance = errors.New("invalid importance")
	ErrNoteTextEmpty     = errors.New("note text empty")
	ErrNoteTextTooLong   = errors.New("note text too long")
	ErrDeadlineRequired  = errors.New("deadline required")
	ErrDurationRequired  = errors.New("duration must be positive")
	ErrAlarmNameEmpty    = errors.New("alarm name empty")
	ErrAlarmDueRequired  = errors.New("alarm due time required")
)

type (
	// CreateTaskRequest contains parameters for creating a task. Subtask
	// requests nest to describe an entire tree in one call
	CreateTaskRequest struct {
		Deadline   time.Time            `json:"deadline,omitempty"`
		Subtasks   []*CreateTaskRequest `json:"subtasks,omitempty"`
		Name       string               `json:"name"`
		Importance TaskImportance       `json:"importance,omitempty"`
		Status     TaskStatus           `json:"status,omitempty"`
	}

	// AddNoteRequest records a progress note against a task. A percent,
	// when present, claims that much of the task as completed
	AddNoteRequest struct {
		Percent *int   `json:"percent,omitempty"`
		Text    string `json:"text"`
	}

	// SetDeadlineRequest sets or moves a task's deadline
	SetDeadlineRequest struct {
		Deadline time.Time `json:"deadline"`
	}

	// ExtendDeadlineRequest pushes an existing deadline back by a duration
	// expressed in milliseconds
	ExtendDeadlineRequest struct {
		Duration int64 `json:"duration"`
	}

	// ChangeImportanceRequest updates a task's importance level
	ChangeImportanceRequest struct {
		Importance TaskImportance `json:"importance"`
	}

	// CreateAlarmRequest schedules a standalone alarm not backed by a task
	CreateAlarmRequest struct {
		Due  time.Time `json:"due"`
		Name string    `json:"name"`
	}

	// TaskCreatedResponse is returned when task creation succeeds
	TaskCreatedResponse struct {
		Message string `json:"message"`
		TaskID  TaskID `json:"task_id"`
	}

	// TaskDigest provides summary information about a task
	TaskDigest struct {
		CreatedAt   time.Time      `json:"created_at"`
		LastUpdated time.Time      `json:"last_updated"`
		Deadline    time.Time      `json:"deadline,omitempty"`
		ID          TaskID         `json:"id"`
		Name        string         `json:"name"`
		Status      TaskStatus     `json:"status"`
		Importance  TaskImportance `json:"importance"`
		Completion  Completion     `json:"completion"`
	}

	// TasksListResponse contains a list of task summaries
	TasksListResponse struct {
		Tasks []*TaskDigest `json:"tasks"`
		Count int           `json:"count"`
	}

	// CompletionResponse reports a task's completion figure along with the
	// contribution of each of its parts
	CompletionResponse struct {
		Breakdown []CompletionShare `json:"breakdown"`
		TaskID    TaskID            `json:"task_id"`
		Percent   Completion        `json:"percent"`
	}

	// AlarmsListResponse contains the alarms currently scheduled
	AlarmsListResponse struct {
		Alarms []*AlarmInfo `json:"alarms"`
		Count  int          `json:"count"`
	}

	// QueryResponse contains the result of a task field query
	QueryResponse struct {
		Result json.RawMessage `json:"result"`
		Path   string          `json:"path"`
	}

	// HealthStatus represents the health of the engine
	HealthStatus string

	// HealthResponse provides service health information
	HealthResponse struct {
		Service       string       `json:"service"`
		Version       string       `json:"version"`
		Status        HealthStatus `json:"status"`
		PendingAlarms int          `json:"pending_alarms"`
		ActiveTasks   int          `json:"active_tasks"`
		Uptime        int64        `json:"uptime"`
	}

	// MessageResponse contains a simple message string
	MessageResponse struct {
		Message string `json:"message"`
	}

	// ErrorResponse contains error details for failed requests
	ErrorResponse struct {
		Error  string `json:"error"`
		Status int    `json:"status,omitempty"`
	}
)

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// Sanitize normalizes the request's names in place, recursing into subtasks
func (r *CreateTaskRequest) Sanitize() {
	r.Name = SanitizeName(r.Name)
	for _, sub := range r.Subtasks {
		sub.Sanitize()
	}
}

// Validate checks the request tree against the task limits
func (r *CreateTaskRequest) Validate() error {
	return r.validate(1)
}

func (r *CreateTaskRequest) validate(depth int) error {
	if len(r.Name) > MaxTaskNameLen {
		return fmt.Errorf("%w: %d chars", ErrTaskNameTooLong, len(r.Name))
	}
	if r.Status != "" && !r.Status.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, r.Status)
	}
	if r.Importance != "" && !r.Importance.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidImportance, r.Importance)
	}
	if len(r.Subtasks) > MaxSubtaskCount {
		return fmt.Errorf("%w: %d", ErrTooManySubtasks, len(r.Subtasks))
	}
	if depth >= MaxTaskDepth && len(r.Subtasks) > 0 {
		return ErrTasksTooDeep
	}
	for _, sub := range r.Subtasks {
		if err := sub.validate(depth + 1); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that the note carries some text within the length limit
func (r *AddNoteRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return ErrNoteTextEmpty
	}
	if len(r.Text) > MaxNoteTextLen {
		return fmt.Errorf("%w: %d chars", ErrNoteTextTooLong, len(r.Text))
	}
	return nil
}

// Validate checks that a deadline was provided
func (r *SetDeadlineRequest) Validate() error {
	if r.Deadline.IsZero() {
		return ErrDeadlineRequired
	}
	return nil
}

// Validate checks that the extension is a positive duration
func (r *ExtendDeadlineRequest) Validate() error {
	if r.Duration <= 0 {
		return ErrDurationRequired
	}
	return nil
}

// Validate checks that the importance is a known level
func (r *ChangeImportanceRequest) Validate() error {
	if !r.Importance.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidImportance, r.Importance)
	}
	return nil
}

// Sanitize normalizes the alarm name in place
func (r *CreateAlarmRequest) Sanitize() {
	r.Name = SanitizeName(r.Name)
}

// Validate checks that the alarm has a name and a due time
func (r *CreateAlarmRequest) Validate() error {
	if r.Name == "" {
		return ErrAlarmNameEmpty
	}
	if r.Due.IsZero() {
		return ErrAlarmDueRequired
	}
	return nil
}

// Digest returns summary information for a task
func (st *TaskState) Digest() *TaskDigest {
	return &TaskDigest{
		CreatedAt:   st.CreatedAt,
		LastUpdated: st.LastUpdated,
		Deadline:    st.Deadline,
		ID:          st.ID,
		Name:        st.Name,
		Status:      st.Status,
		Importance:  st.Importance,
		Completion:  st.CompletionPercent(),
	}
}
