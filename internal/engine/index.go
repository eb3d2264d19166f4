package engine

import (
	"sync"
	"time"

	"github.com/kode4food/nagme/pkg/api"
	"github.com/kode4food/nagme/pkg/events"
	"github.com/kode4food/nagme/pkg/util"
)

// taskIndex tracks which root aggregate every known task node belongs to,
// along with the deadline alarms currently scheduled for each tree. Events
// only carry node IDs, so the index is what lets the engine route a nested
// deadline change back to its root without replaying the store
type taskIndex struct {
	mu     sync.Mutex
	nodes  map[api.TaskID]api.TaskID
	alarms *util.PathTree[*api.AlarmInfo]
}

func newTaskIndex() *taskIndex {
	return &taskIndex{
		nodes:  map[api.TaskID]api.TaskID{},
		alarms: util.NewPathTree[*api.AlarmInfo](),
	}
}

// addNode records a task node as belonging to the given root
func (i *taskIndex) addNode(rootID, taskID api.TaskID) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.nodes[taskID] = rootID
}

// resolveRoot maps a task node ID to its root aggregate ID
func (i *taskIndex) resolveRoot(taskID api.TaskID) (api.TaskID, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	rootID, ok := i.nodes[taskID]
	return rootID, ok
}

// setAlarm records a scheduled deadline alarm for a task node and returns
// its scheduler name
func (i *taskIndex) setAlarm(rootID, taskID api.TaskID, due time.Time) string {
	name := events.AlarmName(rootID, taskID)
	i.mu.Lock()
	defer i.mu.Unlock()
	i.alarms.Insert(alarmPath(rootID, taskID), &api.AlarmInfo{
		Due:    due,
		Name:   name,
		TaskID: taskID,
	})
	return name
}

// removeAlarm clears a task node's deadline alarm record and returns its
// scheduler name
func (i *taskIndex) removeAlarm(rootID, taskID api.TaskID) string {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.alarms.Remove(alarmPath(rootID, taskID))
	return events.AlarmName(rootID, taskID)
}

// detachRoot forgets a root task tree entirely, returning the alarms that
// were still scheduled beneath it
func (i *taskIndex) detachRoot(rootID api.TaskID) []*api.AlarmInfo {
	i.mu.Lock()
	defer i.mu.Unlock()
	for id, root := range i.nodes {
		if root == rootID {
			delete(i.nodes, id)
		}
	}
	return i.alarms.Detach([]string{events.TaskPrefix, string(rootID)})
}

// taskAlarms snapshots the deadline alarms currently indexed for all tasks
func (i *taskIndex) taskAlarms() []*api.AlarmInfo {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.alarms.Values()
}

func alarmPath(rootID, taskID api.TaskID) []string {
	if rootID == taskID {
		return []string{events.TaskPrefix, string(rootID)}
	}
	return []string{events.TaskPrefix, string(rootID), string(taskID)}
}
