package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyLogLine(t *testing.T) {
	tests := []struct {
		line  string
		level LogLevel
	}{
		{"error: cannot find module", LogLevelError},
		{"ERROR something broke", LogLevelError},
		{"fatal: repository not found", LogLevelError},
		{"build failed with 2 errors", LogLevelError},
		{"caught an Exception in handler", LogLevelError},
		{"warning: unused variable", LogLevelWarning},
		{"WARN low disk space", LogLevelWarning},
		{"notice: config reloaded", LogLevelWarning},
		{"function foo is deprecated", LogLevelWarning},
		{"compiling main.go", LogLevelInfo},
		{"", LogLevelInfo},
		{"all tests passed", LogLevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.level, ClassifyLogLine(tt.line))
		})
	}
}

func TestBroadcaster_Publish(t *testing.T) {
	t.Run("success - events reach subscribers and the sink", func(t *testing.T) {
		// arrange
		var sunk []ProgressEvent
		b := NewBroadcaster(func(ev ProgressEvent) {
			sunk = append(sunk, ev)
		})
		ch := b.StatusClients.AddClient("client-1")
		defer b.StatusClients.RemoveClient("client-1")

		// act
		b.Publish(ProgressEvent{RunID: 1, Status: "running", Progress: 50})

		// assert
		assert.Len(t, sunk, 1)
		ev := <-ch
		assert.Equal(t, int64(1), ev.RunID)
		assert.Equal(t, 50, ev.Progress)
	})

	t.Run("success - panicking sink does not break publishing", func(t *testing.T) {
		// arrange
		b := NewBroadcaster(func(ev ProgressEvent) {
			panic("bad sink")
		})

		// act / assert
		assert.NotPanics(t, func() {
			b.Publish(ProgressEvent{RunID: 1, Status: "running"})
		})
	})

	t.Run("success - slow subscriber does not block", func(t *testing.T) {
		// arrange
		b := NewBroadcaster(nil)
		b.OutputClients.AddClient("slow")
		defer b.OutputClients.RemoveClient("slow")

		// act: publish more lines than the client buffer holds
		assert.NotPanics(t, func() {
			for i := 0; i < 200; i++ {
				b.PublishOutput(OutputLine{RunID: 1, Line: "line"})
			}
		})
	})
}

func TestBroadcaster_PublishOutput(t *testing.T) {
	t.Run("success - lines are classified when unlabeled", func(t *testing.T) {
		// arrange
		b := NewBroadcaster(nil)
		ch := b.OutputClients.AddClient("client-1")
		defer b.OutputClients.RemoveClient("client-1")

		// act
		b.PublishOutput(OutputLine{RunID: 1, Line: "error: build failed"})

		// assert
		line := <-ch
		assert.Equal(t, LogLevelError, line.Level)
	})
}
