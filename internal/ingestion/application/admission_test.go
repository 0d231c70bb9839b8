package application

import (
	"context"
	"errors"
	"testing"

	"energy-process/internal/ingestion/infrastructure/memory"
	"energy-process/internal/ingestion/queue"
)

type captureRunner struct {
	jobs []queue.Job
	err  error
}

func (r *captureRunner) Submit(_ context.Context, job queue.Job) error {
	if r.err != nil {
		return r.err
	}
	r.jobs = append(r.jobs, job)
	return nil
}

func TestAdmitFile_AcceptsAndDispatches(t *testing.T) {
	files := memory.NewFileRepository()
	blobs := newMemStore()
	runner := &captureRunner{}
	service, err := NewAdmissionService(files, blobs, runner, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := service.AdmitFile(context.Background(), []byte(schemaAContent), "export.xml")
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	if result.FileID == 0 || result.State != "pending" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(runner.jobs) != 1 || runner.jobs[0].FileID != result.FileID {
		t.Fatalf("expected one dispatched job, got %v", runner.jobs)
	}

	stored, err := files.Get(context.Background(), result.FileID)
	if err != nil || stored == nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if len(stored.ContentHash) != 64 {
		t.Fatalf("expected sha256 hex hash, got %q", stored.ContentHash)
	}
	if !blobs.Exists(stored.StoragePath) {
		t.Fatalf("blob not stored at %s", stored.StoragePath)
	}
}

func TestAdmitFile_DuplicateContentRejected(t *testing.T) {
	files := memory.NewFileRepository()
	blobs := newMemStore()
	runner := &captureRunner{}
	service, err := NewAdmissionService(files, blobs, runner, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	first, err := service.AdmitFile(context.Background(), []byte(schemaAContent), "export.xml")
	if err != nil {
		t.Fatalf("first admit: %v", err)
	}

	// Same bytes under another name are still the same file.
	_, err = service.AdmitFile(context.Background(), []byte(schemaAContent), "renamed.xml")
	var dup *DuplicateFileError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateFileError, got %v", err)
	}
	if dup.ExistingID != first.FileID {
		t.Fatalf("expected existing id %d, got %d", first.FileID, dup.ExistingID)
	}
	if len(runner.jobs) != 1 {
		t.Fatalf("duplicate must not dispatch, got %d jobs", len(runner.jobs))
	}
}

func TestAdmitFile_EmptyContentRejected(t *testing.T) {
	files := memory.NewFileRepository()
	blobs := newMemStore()
	service, err := NewAdmissionService(files, blobs, &captureRunner{}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := service.AdmitFile(context.Background(), nil, "empty.xml"); err == nil {
		t.Fatalf("expected rejection of empty content")
	}
}

func TestAdmitFile_DispatchFailureSurfaces(t *testing.T) {
	files := memory.NewFileRepository()
	blobs := newMemStore()
	runner := &captureRunner{err: errors.New("broker down")}
	service, err := NewAdmissionService(files, blobs, runner, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := service.AdmitFile(context.Background(), []byte("cups,tipo,fecha_desde,fecha_hasta\n"), "x.csv"); err == nil {
		t.Fatalf("expected dispatch error to surface")
	}
}
