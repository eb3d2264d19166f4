package engine

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/kode4food/nagme/pkg/api"
	"github.com/kode4food/nagme/pkg/events"
)

// AddAlarm schedules a standalone alarm not backed by any task. Names in
// the task key namespace are reserved for deadline alarms and rejected
func (e *Engine) AddAlarm(req *api.CreateAlarmRequest) error {
	req.Sanitize()
	if err := req.Validate(); err != nil {
		return err
	}
	if _, _, ok := events.ParseTaskKey(req.Name); ok {
		return fmt.Errorf("%w: %s", ErrAlarmNameReserved, req.Name)
	}
	_, err := e.execRegistry(
		func(st *api.RegistryState, ag *RegistryAggregator) error {
			if _, ok := st.Alarms[req.Name]; ok {
				return fmt.Errorf("%w: %s", ErrAlarmExists, req.Name)
			}
			return events.Raise(ag, api.EventTypeAlarmScheduled,
				api.AlarmScheduledEvent{
					Due:  req.Due,
					Name: req.Name,
				},
			)
		},
	)
	return err
}

// CancelAlarm withdraws a standalone alarm before it comes due
func (e *Engine) CancelAlarm(name string) error {
	_, err := e.execRegistry(
		func(st *api.RegistryState, ag *RegistryAggregator) error {
			if _, ok := st.Alarms[name]; !ok {
				return fmt.Errorf("%w: %s", ErrAlarmNotFound, name)
			}
			return events.Raise(ag, api.EventTypeAlarmCancelled,
				api.AlarmCancelledEvent{Name: name},
			)
		},
	)
	return err
}

// ListAlarms returns every alarm the engine still intends to deliver, both
// standalone and deadline-derived, soonest first
func (e *Engine) ListAlarms() ([]*api.AlarmInfo, error) {
	reg, err := e.GetRegistryState()
	if err != nil {
		return nil, err
	}
	res := e.index.taskAlarms()
	for _, a := range reg.Alarms {
		res = append(res, a)
	}
	slices.SortFunc(res, func(l, r *api.AlarmInfo) int {
		if c := l.Due.Compare(r.Due); c != 0 {
			return c
		}
		return cmp.Compare(l.Name, r.Name)
	})
	return res, nil
}

// PendingAlarms reports how many alarms are waiting in the scheduler
func (e *Engine) PendingAlarms() int {
	return e.scheduler.Pending()
}
