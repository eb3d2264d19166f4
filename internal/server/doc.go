// Package server implements the HTTP API for the reminder daemon
//
// This package provides REST endpoints for managing tasks, deadlines, and
// standalone alarms, plus a WebSocket event stream
package server
