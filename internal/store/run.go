package store

import (
	"fmt"
	"time"
)

type RunStatus string

const (
	StatusPending   RunStatus = "pending"
	StatusRunning   RunStatus = "running"
	StatusSuccess   RunStatus = "success"
	StatusFailed    RunStatus = "failed"
	StatusCancelled RunStatus = "cancelled"
)

func (s RunStatus) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

type TriggerSource string

const (
	TriggerManual   TriggerSource = "manual"
	TriggerWebhook  TriggerSource = "webhook"
	TriggerSchedule TriggerSource = "schedule"
	TriggerRetry    TriggerSource = "retry"
	TriggerRollback TriggerSource = "rollback"
)

// ErrInvalidTransition is returned by the Mark* methods when a record is
// asked to leave a terminal state or to skip a state. Re-marking a terminal
// record is always an error, never a silent overwrite.
type ErrInvalidTransition struct {
	From, To string
}

func (e ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

type Run struct {
	RunID         int64 `param:"run_id"`
	RunProjectID  int64
	TriggerSource TriggerSource
	Branch        string
	CommitHash    string
	Status        RunStatus
	Output        *string
	Error         *string
	Artifacts     *string
	ExternalID    *string
	ExternalURL   *string
	DeploymentID  *int64
	PreviousRunID *int64
	CreatedOn     time.Time
	StartedOn     *time.Time
	EndedOn       *time.Time

	ProjectSlug string
}

func (r *Run) MarkRunning(now time.Time) error {
	if r.Status != StatusPending {
		return ErrInvalidTransition{From: string(r.Status), To: string(StatusRunning)}
	}
	r.Status = StatusRunning
	if r.StartedOn == nil {
		r.StartedOn = &now
	}
	return nil
}

func (r *Run) MarkSuccess(now time.Time) error {
	return r.markTerminal(StatusSuccess, now, nil)
}

func (r *Run) MarkFailed(now time.Time, message string) error {
	return r.markTerminal(StatusFailed, now, &message)
}

func (r *Run) MarkCancelled(now time.Time) error {
	return r.markTerminal(StatusCancelled, now, nil)
}

func (r *Run) markTerminal(status RunStatus, now time.Time, message *string) error {
	if r.Status.IsTerminal() {
		return ErrInvalidTransition{From: string(r.Status), To: string(status)}
	}
	r.Status = status
	r.EndedOn = &now
	if message != nil {
		r.Error = message
	}
	return nil
}

func (r *Run) AppendOutput(out string) {
	if r.Output == nil {
		r.Output = &out
		return
	}
	appended := *r.Output + out
	r.Output = &appended
}

func (r *Run) Duration() time.Duration {
	if r.StartedOn == nil || r.EndedOn == nil {
		return 0
	}
	return r.EndedOn.Sub(*r.StartedOn)
}
