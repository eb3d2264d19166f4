package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kode4food/nagme/pkg/api"
)

// Client is an HTTP client for the reminder daemon's API, used by the
// fluent task builder and by tooling that drives a running daemon
type Client struct {
	httpClient *http.Client
	baseURL    string
}

var (
	ErrRequestFailed = errors.New("request failed")
	ErrBadStatus     = errors.New("unexpected HTTP status")
)

const userAgent = "NagMe-Client/1.0"

// New creates a client for the daemon at baseURL
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Health retrieves the daemon's health snapshot
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var res api.HealthResponse
	if err := c.get(ctx, "/health", &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CreateTask creates a root task tree and returns its ID
func (c *Client) CreateTask(
	ctx context.Context, req *api.CreateTaskRequest,
) (api.TaskID, error) {
	var res api.TaskCreatedResponse
	if err := c.post(ctx, "/api/tasks", req, &res); err != nil {
		return "", err
	}
	return res.TaskID, nil
}

// GetTask fetches the state of a task node, including its subtask tree
func (c *Client) GetTask(
	ctx context.Context, id api.TaskID,
) (*api.TaskState, error) {
	var res api.TaskState
	if err := c.get(ctx, taskPath(id), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListTasks fetches a digest of every registered root task
func (c *Client) ListTasks(ctx context.Context) ([]*api.TaskDigest, error) {
	var res api.TasksListResponse
	if err := c.get(ctx, "/api/tasks", &res); err != nil {
		return nil, err
	}
	return res.Tasks, nil
}

// RemoveTask retires a root task from the daemon's registry
func (c *Client) RemoveTask(ctx context.Context, id api.TaskID) error {
	return c.do(ctx, "DELETE", taskPath(id), nil, nil)
}

// AddSubtask attaches a subtask tree beneath a task, returning its ID
func (c *Client) AddSubtask(
	ctx context.Context, parentID api.TaskID, req *api.CreateTaskRequest,
) (api.TaskID, error) {
	var res api.TaskCreatedResponse
	err := c.post(ctx, taskPath(parentID)+"/subtasks", req, &res)
	if err != nil {
		return "", err
	}
	return res.TaskID, nil
}

// AddNote records a progress note against a task
func (c *Client) AddNote(
	ctx context.Context, id api.TaskID, req *api.AddNoteRequest,
) error {
	return c.post(ctx, taskPath(id)+"/notes", req, nil)
}

// PauseTask puts an in-progress task on hold
func (c *Client) PauseTask(ctx context.Context, id api.TaskID) error {
	return c.post(ctx, taskPath(id)+"/pause", nil, nil)
}

// ResumeTask returns an on-hold task to progress
func (c *Client) ResumeTask(ctx context.Context, id api.TaskID) error {
	return c.post(ctx, taskPath(id)+"/resume", nil, nil)
}

// CompleteTask marks a task tree completed
func (c *Client) CompleteTask(ctx context.Context, id api.TaskID) error {
	return c.post(ctx, taskPath(id)+"/complete", nil, nil)
}

// RestartTask reopens a completed task tree
func (c *Client) RestartTask(ctx context.Context, id api.TaskID) error {
	return c.post(ctx, taskPath(id)+"/restart", nil, nil)
}

// ResetTask returns a task tree to a clean in-progress state
func (c *Client) ResetTask(ctx context.Context, id api.TaskID) error {
	return c.post(ctx, taskPath(id)+"/reset", nil, nil)
}

// SetDeadline sets or moves a task's deadline
func (c *Client) SetDeadline(
	ctx context.Context, id api.TaskID, deadline time.Time,
) error {
	return c.do(ctx, "PUT", taskPath(id)+"/deadline",
		&api.SetDeadlineRequest{Deadline: deadline}, nil,
	)
}

// ClearDeadline removes a task's deadline
func (c *Client) ClearDeadline(ctx context.Context, id api.TaskID) error {
	return c.do(ctx, "DELETE", taskPath(id)+"/deadline", nil, nil)
}

// ExtendDeadline pushes a task's deadline back by the given duration
func (c *Client) ExtendDeadline(
	ctx context.Context, id api.TaskID, d time.Duration,
) error {
	return c.post(ctx, taskPath(id)+"/deadline/extend",
		&api.ExtendDeadlineRequest{Duration: d.Milliseconds()}, nil,
	)
}

// ChangeImportance updates a task's importance level
func (c *Client) ChangeImportance(
	ctx context.Context, id api.TaskID, importance api.TaskImportance,
) error {
	return c.do(ctx, "PUT", taskPath(id)+"/importance",
		&api.ChangeImportanceRequest{Importance: importance}, nil,
	)
}

// ListAlarms fetches every alarm the daemon still intends to deliver
func (c *Client) ListAlarms(ctx context.Context) ([]*api.AlarmInfo, error) {
	var res api.AlarmsListResponse
	if err := c.get(ctx, "/api/alarms", &res); err != nil {
		return nil, err
	}
	return res.Alarms, nil
}

// AddAlarm schedules a standalone alarm
func (c *Client) AddAlarm(
	ctx context.Context, name string, due time.Time,
) error {
	return c.post(ctx, "/api/alarms",
		&api.CreateAlarmRequest{Name: name, Due: due}, nil,
	)
}

// CancelAlarm withdraws a standalone alarm before it fires
func (c *Client) CancelAlarm(ctx context.Context, name string) error {
	return c.do(ctx, "DELETE", "/api/alarms/"+name, nil, nil)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, "GET", path, nil, out)
}

func (c *Client) post(
	ctx context.Context, path string, body, out any,
) error {
	return c.do(ctx, "POST", path, body, out)
}

func (c *Client) do(
	ctx context.Context, method, path string, body, out any,
) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(
		ctx, method, c.baseURL+path, reader,
	)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var res api.ErrorResponse
		if json.Unmarshal(respBody, &res) == nil && res.Error != "" {
			return fmt.Errorf("%w: %s", ErrRequestFailed, res.Error)
		}
		return fmt.Errorf("%w: HTTP %d", ErrBadStatus, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

func taskPath(id api.TaskID) string {
	return "/api/tasks/" + string(id)
}
