package sched

import "time"

// Alarm is a named point-in-time event. Alarms are ordered solely by their
// due time; the name is a caller-chosen label and is not required to be
// unique
type Alarm struct {
	Name string
	Due  time.Time
}

// NewAlarm creates an alarm with the given name and absolute due time
func NewAlarm(name string, due time.Time) Alarm {
	return Alarm{
		Name: name,
		Due:  due,
	}
}

// Before reports whether this alarm is due strictly earlier than the other
func (a Alarm) Before(other Alarm) bool {
	return a.Due.Before(other.Due)
}

// Until returns the remaining wait before the alarm is due, clamped at zero
// so a due time already in the past never yields a negative duration
func (a Alarm) Until(now time.Time) time.Duration {
	return max(a.Due.Sub(now), 0)
}
