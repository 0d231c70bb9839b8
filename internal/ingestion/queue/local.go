package queue

import (
	"context"
	"errors"
	"log"
)

// Processor runs one admitted file to a terminal state.
type Processor interface {
	ProcessFile(ctx context.Context, fileID int64, path string) error
}

// LocalRunner executes jobs on an in-process goroutine. It is the fallback
// when no broker is reachable: asynchronous relative to the caller, bound to
// this process's lifetime.
type LocalRunner struct {
	processor Processor
	logger    *log.Logger
}

// NewLocalRunner constructs a runner.
func NewLocalRunner(processor Processor, logger *log.Logger) (*LocalRunner, error) {
	if processor == nil {
		return nil, errors.New("queue: nil processor")
	}
	return &LocalRunner{processor: processor, logger: logger}, nil
}

// Submit spawns the job and returns immediately. The job runs with a fresh
// context: once dispatched it is not cancellable.
func (r *LocalRunner) Submit(_ context.Context, job Job) error {
	if r == nil || r.processor == nil {
		return errors.New("queue: nil local runner")
	}
	go func() {
		if err := r.processor.ProcessFile(context.Background(), job.FileID, job.Path); err != nil && r.logger != nil {
			r.logger.Printf("local job %d failed: %v", job.FileID, err)
		}
	}()
	return nil
}

var _ JobRunner = (*LocalRunner)(nil)
