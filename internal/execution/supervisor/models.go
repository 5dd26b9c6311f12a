package supervisor

import (
	"errors"
	"time"
)

var (
	ErrDuplicateWorker = errors.New("worker already registered")
	ErrEmptyCommand    = errors.New("worker command is empty")
	ErrClosed          = errors.New("supervisor is closed")
)

// WorkerSpec describes a worker process to launch.
type WorkerSpec struct {
	// ID identifies the worker. It must be unique among registered
	// workers.
	ID string

	// Command is the executable followed by its arguments.
	Command []string

	// Env is appended to the supervisor's own environment.
	Env map[string]string

	// Cwd is the working directory. Empty means inherit.
	Cwd string
}

// ExitStatus describes how a worker process ended. Exactly one of Code
// and Signal is set.
type ExitStatus struct {
	Code   *int `json:"code,omitempty"`
	Signal *int `json:"signal,omitempty"`
}

// WorkerInfo is a snapshot of a registered or dead worker.
type WorkerInfo struct {
	ID        string    `json:"id"`
	Pid       int       `json:"pid"`
	Running   bool      `json:"running"`
	StartedAt time.Time `json:"startedAt"`

	// Exit is set once the process has exited.
	Exit *ExitStatus `json:"exit,omitempty"`
}
