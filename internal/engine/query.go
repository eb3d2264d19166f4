package engine

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/kode4food/nagme/pkg/api"
)

var (
	ErrQueryPathEmpty = errors.New("query path empty")
	ErrQueryNoResult  = errors.New("no result at path")
)

// QueryTask selects a field from a task's state by JSON path, so clients
// can fetch one value without pulling the whole tree. Paths use gjson
// syntax, so "subtasks.0.deadline" and "notes.#" both work
func (e *Engine) QueryTask(
	id api.TaskID, path string,
) (*api.QueryResponse, error) {
	if path == "" {
		return nil, ErrQueryPathEmpty
	}
	node, err := e.GetTask(id)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(node)
	if err != nil {
		return nil, err
	}
	res := gjson.GetBytes(raw, path)
	if !res.Exists() {
		return nil, fmt.Errorf("%w: %s", ErrQueryNoResult, path)
	}
	return &api.QueryResponse{
		Result: json.RawMessage(res.Raw),
		Path:   path,
	}, nil
}
