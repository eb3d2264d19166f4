// Package api defines the core data types for the nag-me reminder engine
//
// This package contains all the shared types used across the engine,
// including the task model, completion tracking, events, and HTTP messages
package api
