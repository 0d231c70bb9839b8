package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type stubRunner struct {
	mu   sync.Mutex
	jobs []Job
	err  error
}

func (r *stubRunner) Submit(_ context.Context, job Job) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
	return nil
}

func (r *stubRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

func TestDispatcher_PrimaryWins(t *testing.T) {
	primary := &stubRunner{}
	fallback := &stubRunner{}
	dispatcher, err := NewDispatcher(primary, fallback, nil)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	if err := dispatcher.Submit(context.Background(), Job{FileID: 1}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if primary.count() != 1 || fallback.count() != 0 {
		t.Fatalf("expected primary only, got primary=%d fallback=%d", primary.count(), fallback.count())
	}
}

func TestDispatcher_FallsBackOnUnavailable(t *testing.T) {
	primary := &stubRunner{err: fmt.Errorf("%w: connection refused", ErrUnavailable)}
	fallback := &stubRunner{}
	dispatcher, err := NewDispatcher(primary, fallback, nil)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	if err := dispatcher.Submit(context.Background(), Job{FileID: 2}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if fallback.count() != 1 {
		t.Fatalf("expected fallback to run the job")
	}
}

func TestDispatcher_OtherErrorsPropagate(t *testing.T) {
	primary := &stubRunner{err: errors.New("serialization failed")}
	fallback := &stubRunner{}
	dispatcher, err := NewDispatcher(primary, fallback, nil)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	if err := dispatcher.Submit(context.Background(), Job{FileID: 3}); err == nil {
		t.Fatalf("expected the error to propagate, not fall back")
	}
	if fallback.count() != 0 {
		t.Fatalf("fallback must not run on non-availability errors")
	}
}

func TestDispatcher_NilPrimaryGoesToFallback(t *testing.T) {
	fallback := &stubRunner{}
	dispatcher, err := NewDispatcher(nil, fallback, nil)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	if err := dispatcher.Submit(context.Background(), Job{FileID: 4}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if fallback.count() != 1 {
		t.Fatalf("expected fallback to receive the job")
	}
}

type recordingProcessor struct {
	mu    sync.Mutex
	calls []int64
	done  chan struct{}
}

func (p *recordingProcessor) ProcessFile(_ context.Context, fileID int64, _ string) error {
	p.mu.Lock()
	p.calls = append(p.calls, fileID)
	p.mu.Unlock()
	close(p.done)
	return nil
}

func TestLocalRunner_RunsAsynchronously(t *testing.T) {
	processor := &recordingProcessor{done: make(chan struct{})}
	runner, err := NewLocalRunner(processor, nil)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	if err := runner.Submit(context.Background(), Job{FileID: 7, Path: "p"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	select {
	case <-processor.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("job never ran")
	}
	processor.mu.Lock()
	defer processor.mu.Unlock()
	if len(processor.calls) != 1 || processor.calls[0] != 7 {
		t.Fatalf("unexpected calls: %v", processor.calls)
	}
}
