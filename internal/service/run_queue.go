package service

import (
	"context"
	"log"
	"sync"

	"github.com/MohamedRoshdi/devflow-sub024/internal/store"
)

// RunExecutor drives one run to a terminal status.
type RunExecutor interface {
	Execute(ctx context.Context, run *store.Run) error
}

func NewRunQueue(executor RunExecutor, maxRuns int64) *RunQueue {
	return &RunQueue{
		executor:     executor,
		queue:        make(chan *store.Run, maxRuns),
		done:         make(chan struct{}),
		cancelRunMap: NewCancelMap[int64](),
	}
}

// RunQueue serializes a single project's runs: one run executes at a time,
// the rest wait in a bounded buffer.
type RunQueue struct {
	executor RunExecutor

	queue        chan *store.Run
	done         chan struct{}
	cancelRunMap *CancelMap[int64]

	mu sync.Mutex
}

// CancelRun cancels the run's context if the run is currently executing.
// It reports whether a running run was found.
func (rq *RunQueue) CancelRun(runID int64) bool {
	return rq.cancelRunMap.Call(runID)
}

func (rq *RunQueue) Enqueue(r *store.Run) error {
	select {
	case <-rq.done:
		// a shut down queue accepts no new runs
		return NewErrRunQueueFull()
	default:
	}
	select {
	case rq.queue <- r:
		return nil
	default:
		return NewErrRunQueueFull()
	}
}

func (rq *RunQueue) Run() {
	for {
		select {
		case run := <-rq.queue:
			ctx, cancel := context.WithCancel(context.Background())
			rq.cancelRunMap.AddCancel(run.RunID, cancel)

			if err := rq.executor.Execute(ctx, run); err != nil {
				log.Printf("err executing run %d: %+v\n", run.RunID, err)
			}

			cancel()
			rq.cancelRunMap.RemoveCancel(run.RunID)
		case <-rq.done:
			// the queue channel stays open; a concurrent Enqueue may
			// still be sending and closing it would panic the sender
			return
		}
	}
}

func (rq *RunQueue) Shutdown() {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	select {
	case <-rq.done:
	default:
		close(rq.done)
	}
}
