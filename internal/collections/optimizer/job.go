package optimizer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Job is a single optimization running in the background. It completes
// exactly once, with either a result or an error.
type Job struct {
	ID      string
	Started time.Time

	done    chan struct{}
	result  *Result
	err     error
	elapsed time.Duration
}

// Start runs Optimize on its own goroutine and returns immediately.
// The job always runs to completion; callers that lose interest simply
// stop waiting and discard it.
func (o *Optimizer) Start(cfg Config) *Job {
	j := &Job{
		ID:      uuid.NewString(),
		Started: time.Now(),
		done:    make(chan struct{}),
	}
	go func() {
		defer func() {
			if p := recover(); p != nil {
				j.err = fmt.Errorf("optimizer job %s: %v", j.ID, p)
			}
			j.elapsed = time.Since(j.Started)
			close(j.done)
		}()
		j.result = o.Optimize(cfg)
	}()
	return j
}

// Done is closed when the job has finished.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes or ctx is done.
func (j *Job) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-j.done:
		return j.result, j.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Elapsed returns the run time of a finished job, or zero while it is running.
func (j *Job) Elapsed() time.Duration {
	select {
	case <-j.done:
		return j.elapsed
	default:
		return 0
	}
}
