// Package sched implements the alarm scheduling core for nag-me
//
// This package provides a concurrently-accessible, time-ordered queue of
// pending alarms and a background loop that waits until the earliest alarm
// comes due and delivers it over a channel. Alarms can be added and removed
// while the loop runs; an alarm inserted with an earlier due time than the
// one currently being waited on preempts the wait
package sched
