// Package engine implements the core reminder engine
//
// This package binds the event-sourced task store to the alarm scheduler,
// deriving alarms from task deadlines, delivering them through hook scripts,
// and archiving completed tasks
package engine
