// Package worker consumes the durable job queue and runs files to
// completion.
package worker

import (
	"context"
	"errors"
	"log"
	"time"

	"energy-process/internal/ingestion/queue"
)

const retryDelay = 5 * time.Second

// Worker pulls jobs off the Redis queue. One worker processes one file to a
// terminal state before pulling the next; run several workers for parallel
// files.
type Worker struct {
	queue     *queue.RedisQueue
	processor queue.Processor
	logger    *log.Logger
}

// New constructs a worker.
func New(q *queue.RedisQueue, processor queue.Processor, logger *log.Logger) (*Worker, error) {
	if q == nil {
		return nil, errors.New("worker: nil queue")
	}
	if processor == nil {
		return nil, errors.New("worker: nil processor")
	}
	return &Worker{queue: q, processor: processor, logger: logger}, nil
}

// Run consumes jobs until the context is cancelled. Broker outages back off
// and retry; job failures are logged and never stop the loop, since the job
// itself already recorded its terminal state or will be re-delivered.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		job, err := w.queue.Pop(ctx)
		if errors.Is(err, queue.ErrEmpty) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if w.logger != nil {
				w.logger.Printf("worker: queue poll failed, retrying: %v", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryDelay):
			}
			continue
		}
		if err := w.processor.ProcessFile(ctx, job.FileID, job.Path); err != nil && w.logger != nil {
			w.logger.Printf("worker: file %d failed: %v", job.FileID, err)
		}
	}
}
