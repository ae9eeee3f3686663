package service

import (
	"fmt"
	"time"
)

type ErrRunQueueFull struct{}

func (e ErrRunQueueFull) Error() string {
	return "run queue is full"
}

func NewErrRunQueueFull() *ErrRunQueueFull {
	return &ErrRunQueueFull{}
}

type RunCancelError struct {
	Message string
}

func (rce RunCancelError) Error() string {
	return rce.Message
}

// StageTimeoutError reports a stage exceeding its configured wall-clock
// timeout. Distinct from a command failing with a non-zero exit status.
type StageTimeoutError struct {
	Stage   string
	Timeout time.Duration
}

func (e StageTimeoutError) Error() string {
	return fmt.Sprintf(
		"stage '%s' timed out after %d seconds",
		e.Stage,
		int(e.Timeout.Seconds()),
	)
}

// CommandError reports the first stage command that exited non-zero.
type CommandError struct {
	Command    string
	ExitStatus int
	Output     string
}

func (e CommandError) Error() string {
	return fmt.Sprintf("command '%s' exited with status %d", e.Command, e.ExitStatus)
}

// ProjectConfigError reports a project that cannot execute because its
// configuration is incomplete (no server, no credential, bad provider data).
type ProjectConfigError struct {
	Message string
}

func (e ProjectConfigError) Error() string {
	return e.Message
}

// ErrNoRollbackTarget means the project has no earlier successful deployment
// to roll back to. A lookup result, not a failure.
type ErrNoRollbackTarget struct {
	ProjectID int64
}

func (e ErrNoRollbackTarget) Error() string {
	return fmt.Sprintf("project %d has no successful deployment to roll back to", e.ProjectID)
}
