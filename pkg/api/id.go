package api

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// TaskID is a unique identifier for a task
type TaskID string

// InvalidNameChars matches characters not permitted in task and alarm
// names. Control characters are stripped; everything printable is kept
var InvalidNameChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

var innerSpace = regexp.MustCompile(`\s+`)

// NewTaskID returns a fresh task identifier
func NewTaskID() TaskID {
	return TaskID(uuid.New().String())
}

// SanitizeName collapses runs of whitespace in a name to a single space,
// strips the remaining control characters, and trims surrounding space
func SanitizeName[T ~string](name T) T {
	cleaned := innerSpace.ReplaceAllString(string(name), " ")
	cleaned = InvalidNameChars.ReplaceAllString(cleaned, "")
	return T(strings.TrimSpace(cleaned))
}
