package helpers

import (
	"time"

	"github.com/google/uuid"

	"github.com/kode4food/nagme/pkg/api"
)

// NewTaskRequest creates a basic task creation request with a unique name
func NewTaskRequest() *api.CreateTaskRequest {
	return &api.CreateTaskRequest{
		Name: "test task " + uuid.New().String()[:8],
	}
}

// NewNamedTaskRequest creates a task creation request with the specified name
func NewNamedTaskRequest(name string) *api.CreateTaskRequest {
	return &api.CreateTaskRequest{
		Name: name,
	}
}

// NewTaskRequestWithDeadline creates a request for a task due at the
// specified time
func NewTaskRequestWithDeadline(deadline time.Time) *api.CreateTaskRequest {
	req := NewTaskRequest()
	req.Deadline = deadline
	return req
}

// NewTaskRequestWithImportance creates a request for a task at the specified
// importance level
func NewTaskRequestWithImportance(
	importance api.TaskImportance,
) *api.CreateTaskRequest {
	req := NewTaskRequest()
	req.Importance = importance
	return req
}

// NewTaskTree creates a request describing a root task with one level of
// named subtasks
func NewTaskTree(name string, subtaskNames ...string) *api.CreateTaskRequest {
	req := &api.CreateTaskRequest{
		Name: name,
	}
	for _, sub := range subtaskNames {
		req.Subtasks = append(req.Subtasks, &api.CreateTaskRequest{
			Name: sub,
		})
	}
	return req
}

// NewNoteRequest creates a plain progress note request
func NewNoteRequest(text string) *api.AddNoteRequest {
	return &api.AddNoteRequest{
		Text: text,
	}
}

// NewCompletionNoteRequest creates a note request claiming a completion
// percentage
func NewCompletionNoteRequest(text string, percent int) *api.AddNoteRequest {
	return &api.AddNoteRequest{
		Text:    text,
		Percent: &percent,
	}
}

// NewAlarmRequest creates a standalone alarm request
func NewAlarmRequest(name string, due time.Time) *api.CreateAlarmRequest {
	return &api.CreateAlarmRequest{
		Name: name,
		Due:  due,
	}
}
