// Package nagme identifies the reminder daemon to its logging and HTTP
// surfaces
package nagme

const (
	// Name is the service name reported in logs and health responses
	Name = "nagme"

	// Version is the daemon version reported in logs and health responses
	Version = "0.1.0"
)
