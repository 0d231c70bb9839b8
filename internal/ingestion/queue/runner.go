// Package queue dispatches admitted files to asynchronous processing: a
// durable Redis work queue when one is reachable, an in-process worker
// otherwise.
package queue

import (
	"context"
	"errors"
	"log"
)

// Job identifies one admitted file to process.
type Job struct {
	FileID int64  `json:"file_id"`
	Path   string `json:"path"`
}

// ErrUnavailable marks a runner that cannot currently accept work (broker
// down, connection refused). Only this error triggers the fallback; every
// other error class propagates to the caller.
var ErrUnavailable = errors.New("queue: unavailable")

// JobRunner accepts a job for asynchronous execution. Submit returns once
// the job is handed off, never once it completes.
type JobRunner interface {
	Submit(ctx context.Context, job Job) error
}

// Dispatcher tries the primary runner and falls back to the secondary when
// the primary is unavailable.
type Dispatcher struct {
	primary  JobRunner
	fallback JobRunner
	logger   *log.Logger
}

// NewDispatcher constructs a dispatcher. The primary may be nil, in which
// case every job goes straight to the fallback.
func NewDispatcher(primary, fallback JobRunner, logger *log.Logger) (*Dispatcher, error) {
	if fallback == nil {
		return nil, errors.New("queue: nil fallback runner")
	}
	return &Dispatcher{primary: primary, fallback: fallback, logger: logger}, nil
}

// Submit hands the job to the primary runner, falling back on
// ErrUnavailable.
func (d *Dispatcher) Submit(ctx context.Context, job Job) error {
	if d == nil {
		return errors.New("queue: nil dispatcher")
	}
	if d.primary != nil {
		err := d.primary.Submit(ctx, job)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrUnavailable) {
			return err
		}
		if d.logger != nil {
			d.logger.Printf("queue unavailable, running file %d in process: %v", job.FileID, err)
		}
	}
	return d.fallback.Submit(ctx, job)
}

var _ JobRunner = (*Dispatcher)(nil)
