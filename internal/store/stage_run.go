package store

import (
	"context"
	"time"
)

type StageStatus string

const (
	StageStatusPending   StageStatus = "pending"
	StageStatusRunning   StageStatus = "running"
	StageStatusSuccess   StageStatus = "success"
	StageStatusFailed    StageStatus = "failed"
	StageStatusSkipped   StageStatus = "skipped"
	StageStatusCancelled StageStatus = "cancelled"
)

func (s StageStatus) IsTerminal() bool {
	switch s {
	case StageStatusSuccess, StageStatusFailed, StageStatusSkipped, StageStatusCancelled:
		return true
	}
	return false
}

type StageRun struct {
	StageRunID      int64
	StageRunRunID   int64
	StageRunStageID int64
	StageName       string
	Status          StageStatus
	Output          *string
	Error           *string
	CreatedOn       time.Time
	StartedOn       *time.Time
	EndedOn         *time.Time
}

func (sr *StageRun) MarkRunning(now time.Time) error {
	if sr.Status != StageStatusPending {
		return ErrInvalidTransition{From: string(sr.Status), To: string(StageStatusRunning)}
	}
	sr.Status = StageStatusRunning
	if sr.StartedOn == nil {
		sr.StartedOn = &now
	}
	return nil
}

func (sr *StageRun) MarkSuccess(now time.Time) error {
	return sr.markTerminal(StageStatusSuccess, now, nil)
}

func (sr *StageRun) MarkFailed(now time.Time, message string) error {
	return sr.markTerminal(StageStatusFailed, now, &message)
}

// MarkSkipped is valid directly from pending: a skipped stage never starts.
func (sr *StageRun) MarkSkipped(now time.Time) error {
	return sr.markTerminal(StageStatusSkipped, now, nil)
}

func (sr *StageRun) MarkCancelled(now time.Time) error {
	return sr.markTerminal(StageStatusCancelled, now, nil)
}

func (sr *StageRun) markTerminal(status StageStatus, now time.Time, message *string) error {
	if sr.Status.IsTerminal() {
		return ErrInvalidTransition{From: string(sr.Status), To: string(status)}
	}
	sr.Status = status
	sr.EndedOn = &now
	if message != nil {
		sr.Error = message
	}
	return nil
}

// AppendOutput preserves line order; the executing stage is the only writer.
func (sr *StageRun) AppendOutput(out string) {
	if sr.Output == nil {
		sr.Output = &out
		return
	}
	appended := *sr.Output + out
	sr.Output = &appended
}

func (sr *StageRun) Duration() time.Duration {
	if sr.StartedOn == nil || sr.EndedOn == nil {
		return 0
	}
	return sr.EndedOn.Sub(*sr.StartedOn)
}

type StageRunStore interface {
	CreateStageRun(context.Context, int64, int64, string) (*StageRun, error)
	ReadStageRunByID(context.Context, int64) (*StageRun, error)
	UpdateStageRunStatus(context.Context, *StageRun) error
	AppendStageRunOutput(context.Context, int64, string) error
	ListRunStageRuns(context.Context, int64) ([]StageRun, error)
}
