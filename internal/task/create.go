package task

import (
	"github.com/kode4food/nagme/pkg/api"
	"github.com/kode4food/nagme/pkg/events"
)

// Create returns the command that establishes a new task tree from the
// given request, along with the identifier assigned to its root
func Create(req *api.CreateTaskRequest) (api.TaskID, Command) {
	st := newTask(req)
	return st.ID, func(existing *api.TaskState, ag *Aggregator) error {
		if existing != nil && existing.ID != "" {
			return ErrTaskExists
		}
		return events.Raise(ag, api.EventTypeTaskCreated,
			api.TaskCreatedEvent{Task: st},
		)
	}
}

// AddSubtask returns the command that attaches a new subtask tree beneath
// the identified parent, along with the new subtask's identifier. Completed
// parents must be restarted before they can take on more work.
func AddSubtask(
	parentID api.TaskID, req *api.CreateTaskRequest,
) (api.TaskID, Command) {
	sub := newTask(req)
	return sub.ID, func(st *api.TaskState, ag *Aggregator) error {
		parent, err := findTask(st, parentID)
		if err != nil {
			return err
		}
		if parent.Status == api.TaskCompleted {
			return ErrTaskCompleted
		}
		if len(parent.Subtasks) >= api.MaxSubtaskCount {
			return api.ErrTooManySubtasks
		}
		if depth, _ := depthOf(st, parentID); depth+height(sub) >
			api.MaxTaskDepth {
			return api.ErrTasksTooDeep
		}
		return events.Raise(ag, api.EventTypeSubtaskAdded,
			api.SubtaskAddedEvent{Subtask: sub, ParentID: parentID},
		)
	}
}

func newTask(req *api.CreateTaskRequest) *api.TaskState {
	st := &api.TaskState{
		ID:         api.NewTaskID(),
		Name:       req.Name,
		Status:     req.Status,
		Importance: req.Importance,
		Deadline:   req.Deadline,
	}
	if st.Name == "" {
		st.Name = DefaultTaskName
	}
	if st.Status == "" {
		st.Status = api.TaskInProgress
	}
	if st.Importance == "" {
		st.Importance = api.ImportanceNormal
	}
	for _, sub := range req.Subtasks {
		st.Subtasks = append(st.Subtasks, newTask(sub))
	}
	return st
}

// depthOf reports the depth of the identified task within the tree, with
// the root at depth 1
func depthOf(st *api.TaskState, id api.TaskID) (int, bool) {
	if st.ID == id {
		return 1, true
	}
	for _, sub := range st.Subtasks {
		if depth, ok := depthOf(sub, id); ok {
			return depth + 1, true
		}
	}
	return 0, false
}

// height reports the number of levels in the task tree, with a leaf at 1
func height(st *api.TaskState) int {
	res := 0
	for _, sub := range st.Subtasks {
		res = max(res, height(sub))
	}
	return res + 1
}
