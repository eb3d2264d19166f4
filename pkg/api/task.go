package api

import (
	"fmt"
	"time"

	"github.com/kode4food/nagme/pkg/util"
)

type (
	// TaskStatus represents the current state of a task
	TaskStatus string

	// TaskImportance ranks how urgently a task needs attention
	TaskImportance string

	// Completion is a percentage of task progress, clamped to 0-100
	Completion int

	// ProgressNote records a dated observation against a task, optionally
	// claiming some percentage of the task as completed
	ProgressNote struct {
		CreatedAt time.Time  `json:"created_at"`
		Text      string     `json:"text"`
		Completed bool       `json:"completed,omitempty"`
		Percent   Completion `json:"percent,omitempty"`
	}

	// CompletionShare is one contribution to a task's completion figure
	CompletionShare struct {
		Name    string     `json:"name"`
		Percent Completion `json:"percent"`
	}
)

const (
	TaskInProgress TaskStatus = "in_progress"
	TaskOnHold     TaskStatus = "on_hold"
	TaskCompleted  TaskStatus = "completed"
)

const (
	ImportanceCasual    TaskImportance = "casual"
	ImportanceNormal    TaskImportance = "normal"
	ImportanceImportant TaskImportance = "important"
	ImportanceCritical  TaskImportance = "critical"
)

// FullCompletion is the completion figure of a finished task
const FullCompletion Completion = 100

var (
	validTaskStatuses = util.SetOf(
		TaskInProgress,
		TaskOnHold,
		TaskCompleted,
	)

	validImportances = util.SetOf(
		ImportanceCasual,
		ImportanceNormal,
		ImportanceImportant,
		ImportanceCritical,
	)

	importanceRank = map[TaskImportance]int{
		ImportanceCasual:    0,
		ImportanceNormal:    1,
		ImportanceImportant: 2,
		ImportanceCritical:  3,
	}
)

// IsValid returns true if the status is one of the known task statuses
func (s TaskStatus) IsValid() bool {
	return validTaskStatuses.Contains(s)
}

// CanPause returns true if a task in this status can be paused
func (s TaskStatus) CanPause() bool {
	return s == TaskInProgress
}

// CanResume returns true if a task in this status can be resumed
func (s TaskStatus) CanResume() bool {
	return s == TaskOnHold
}

// CanComplete returns true if a task in this status can be completed
func (s TaskStatus) CanComplete() bool {
	return s != TaskCompleted
}

// CanRestart returns true if a task in this status can be restarted
func (s TaskStatus) CanRestart() bool {
	return s == TaskCompleted
}

// IsValid returns true if the importance is one of the known levels
func (i TaskImportance) IsValid() bool {
	return validImportances.Contains(i)
}

// Rank returns the ordering position of an importance level, with
// ImportanceCasual lowest and ImportanceCritical highest
func (i TaskImportance) Rank() int {
	return importanceRank[i]
}

// AtLeast returns true when this importance ranks at or above other
func (i TaskImportance) AtLeast(other TaskImportance) bool {
	return i.Rank() >= other.Rank()
}

// NewCompletion clamps a raw percentage into the valid completion range
func NewCompletion(perc int) Completion {
	return Completion(min(max(perc, 0), 100))
}

// Add combines two completion figures, saturating at 100%
func (c Completion) Add(other Completion) Completion {
	return NewCompletion(int(c) + int(other))
}

// IsComplete returns true when the figure has reached 100%
func (c Completion) IsComplete() bool {
	return c == FullCompletion
}

func (c Completion) String() string {
	return fmt.Sprintf("%d%%", int(c))
}

// CompletionPercent reports how far along a task is. A completed task is
// always 100%. Otherwise the note contributions count as one bucket that is
// averaged together with each subtask's own percentage
func (st *TaskState) CompletionPercent() Completion {
	if st.Status == TaskCompleted {
		return FullCompletion
	}
	total := int(st.NoteCompletion())
	for _, sub := range st.Subtasks {
		total += int(sub.CompletionPercent())
	}
	return NewCompletion(total / (len(st.Subtasks) + 1))
}

// NoteCompletion sums the percentages claimed by the task's completed
// notes, saturating at 100%
func (st *TaskState) NoteCompletion() Completion {
	var res Completion
	for _, n := range st.Notes {
		if n.Completed {
			res = res.Add(n.Percent)
		}
	}
	return res
}

// CompletionBreakdown lists each contribution to the completion figure: the
// note bucket first, then one entry per subtask
func (st *TaskState) CompletionBreakdown() []CompletionShare {
	res := make([]CompletionShare, 0, len(st.Subtasks)+1)
	res = append(res, CompletionShare{
		Name:    "notes",
		Percent: st.NoteCompletion(),
	})
	for _, sub := range st.Subtasks {
		res = append(res, CompletionShare{
			Name:    sub.Name,
			Percent: sub.CompletionPercent(),
		})
	}
	return res
}
