package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/nagme/internal/client"
	"github.com/kode4food/nagme/pkg/api"
)

func TestCreateTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "/api/tasks", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "NagMe-Client/1.0", r.Header.Get("User-Agent"))

			var req api.CreateTaskRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "shopping", req.Name)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(api.TaskCreatedResponse{
				Message: "Task created",
				TaskID:  "new-id",
			})
		},
	))
	defer server.Close()

	cl := client.New(server.URL, 5*time.Second)
	id, err := cl.CreateTask(context.Background(), &api.CreateTaskRequest{
		Name: "shopping",
	})
	require.NoError(t, err)
	assert.Equal(t, api.TaskID("new-id"), id)
}

func TestGetTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "GET", r.Method)
			assert.Equal(t, "/api/tasks/some-id", r.URL.Path)

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(&api.TaskState{
				ID:     "some-id",
				Name:   "fetched",
				Status: api.TaskInProgress,
			})
		},
	))
	defer server.Close()

	cl := client.New(server.URL, 5*time.Second)
	st, err := cl.GetTask(context.Background(), "some-id")
	require.NoError(t, err)
	assert.Equal(t, "fetched", st.Name)
	assert.Equal(t, api.TaskInProgress, st.Status)
}

func TestErrorResponseSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(api.ErrorResponse{
				Error:  "task not found: some-id",
				Status: http.StatusNotFound,
			})
		},
	))
	defer server.Close()

	cl := client.New(server.URL, 5*time.Second)
	_, err := cl.GetTask(context.Background(), "some-id")
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrRequestFailed)
	assert.Contains(t, err.Error(), "task not found")
}

func TestNonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream exploded"))
		},
	))
	defer server.Close()

	cl := client.New(server.URL, 5*time.Second)
	err := cl.PauseTask(context.Background(), "any")
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrBadStatus)
}

func TestDeadlineRoundTrip(t *testing.T) {
	due := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	var gotSet, gotCleared bool

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case "PUT":
				var req api.SetDeadlineRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.True(t, req.Deadline.Equal(due))
				gotSet = true
			case "DELETE":
				gotCleared = true
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(api.MessageResponse{
				Message: "ok",
			})
		},
	))
	defer server.Close()

	cl := client.New(server.URL, 5*time.Second)
	ctx := context.Background()
	require.NoError(t, cl.SetDeadline(ctx, "some-id", due))
	require.NoError(t, cl.ClearDeadline(ctx, "some-id"))
	assert.True(t, gotSet)
	assert.True(t, gotCleared)
}

func TestListAlarms(t *testing.T) {
	due := time.Now().Add(time.Hour).UTC()
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/alarms", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(api.AlarmsListResponse{
				Alarms: []*api.AlarmInfo{
					{Name: "standup", Due: due},
				},
				Count: 1,
			})
		},
	))
	defer server.Close()

	cl := client.New(server.URL, 5*time.Second)
	alarms, err := cl.ListAlarms(context.Background())
	require.NoError(t, err)
	require.Len(t, alarms, 1)
	assert.Equal(t, "standup", alarms[0].Name)
}
