package service

import (
	"context"
	"testing"
	"time"

	"github.com/MohamedRoshdi/devflow-sub024/internal/store"
	"github.com/stretchr/testify/assert"
)

type recordingRunExecutor struct {
	executed chan int64
}

func (e *recordingRunExecutor) Execute(ctx context.Context, run *store.Run) error {
	e.executed <- run.RunID
	return nil
}

func TestRunQueue(t *testing.T) {
	t.Run("success - queued run is executed", func(t *testing.T) {
		// arrange
		ex := &recordingRunExecutor{executed: make(chan int64, 1)}
		rq := NewRunQueue(ex, 2)
		go rq.Run()
		defer rq.Shutdown()

		// act
		err := rq.Enqueue(&store.Run{RunID: 7})

		// assert
		assert.NoError(t, err)
		select {
		case runID := <-ex.executed:
			assert.Equal(t, int64(7), runID)
		case <-time.After(5 * time.Second):
			t.Fatal("run was not executed")
		}
	})
	t.Run("failure - enqueue after shutdown is rejected, not a panic", func(t *testing.T) {
		// arrange
		ex := &recordingRunExecutor{executed: make(chan int64, 1)}
		rq := NewRunQueue(ex, 1)
		stopped := make(chan struct{})
		go func() {
			rq.Run()
			close(stopped)
		}()

		// act
		rq.Shutdown()
		select {
		case <-stopped:
		case <-time.After(5 * time.Second):
			t.Fatal("queue loop did not stop")
		}
		err := rq.Enqueue(&store.Run{RunID: 8})

		// assert
		var full *ErrRunQueueFull
		assert.ErrorAs(t, err, &full)
	})
}
