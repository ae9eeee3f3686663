package service

import (
	"log"
	"strings"
)

type LogLevel string

const (
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// ClassifyLogLine labels a raw output line for the deployment log.
func ClassifyLogLine(line string) LogLevel {
	lower := strings.ToLower(strings.TrimSpace(line))
	switch {
	case strings.HasPrefix(lower, "error"),
		strings.HasPrefix(lower, "fatal"),
		strings.HasPrefix(lower, "failed"),
		strings.Contains(lower, "exception"),
		strings.Contains(lower, "fatal error"):
		return LogLevelError
	case strings.HasPrefix(lower, "warning"),
		strings.HasPrefix(lower, "warn"),
		strings.HasPrefix(lower, "notice"),
		strings.Contains(lower, "deprecated"):
		return LogLevelWarning
	default:
		return LogLevelInfo
	}
}

// ProgressEvent is pushed to subscribers on every run/stage transition.
type ProgressEvent struct {
	RunID      int64  `json:"run_id"`
	StageRunID *int64 `json:"stage_run_id,omitempty"`
	StageName  string `json:"stage_name,omitempty"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	Progress   int    `json:"progress"`
}

// OutputLine is one line of stage output with its log-level label.
type OutputLine struct {
	RunID      int64    `json:"run_id"`
	StageRunID int64    `json:"stage_run_id"`
	StageName  string   `json:"stage_name"`
	Line       string   `json:"line"`
	Level      LogLevel `json:"level"`
}

// PublishFunc is an optional external sink for progress events (deployment
// log, notification fan-out). No delivery guarantees are assumed.
type PublishFunc func(ProgressEvent)

func NewBroadcaster(sink PublishFunc) *Broadcaster {
	return &Broadcaster{
		StatusClients: NewSSEClientMap[ProgressEvent](),
		OutputClients: NewSSEClientMap[OutputLine](),
		sink:          sink,
	}
}

// Broadcaster fans progress and output events out to SSE subscribers and an
// optional external sink. Publishing never blocks and never fails the run.
type Broadcaster struct {
	StatusClients *SSEClientMap[ProgressEvent]
	OutputClients *SSEClientMap[OutputLine]
	sink          PublishFunc
}

func (b *Broadcaster) Publish(ev ProgressEvent) {
	b.StatusClients.SendToClients(ev)
	if b.sink != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("progress sink panicked for run %d: %v\n", ev.RunID, r)
				}
			}()
			b.sink(ev)
		}()
	}
}

func (b *Broadcaster) PublishOutput(line OutputLine) {
	if line.Level == "" {
		line.Level = ClassifyLogLine(line.Line)
	}
	b.OutputClients.SendToClients(line)
}
