package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	ingestion "energy-process/internal/ingestion/domain"
	"energy-process/internal/ingestion/queue"
	"energy-process/internal/observability/metrics"
	"energy-process/internal/storage"
)

// DuplicateFileError rejects content that was already admitted. Admission is
// keyed purely on the content hash: the same bytes under a different
// filename are still a duplicate.
type DuplicateFileError struct {
	ExistingID int64
}

func (e *DuplicateFileError) Error() string {
	return fmt.Sprintf("duplicate file: already processed as file %d", e.ExistingID)
}

// AdmitResult is returned once the job is handed off; processing continues
// in the background.
type AdmitResult struct {
	FileID   int64               `json:"file_id"`
	Filename string              `json:"filename"`
	State    ingestion.FileState `json:"state"`
}

// AdmissionService performs file-level admission: content-hash dedup, blob
// storage, job creation and dispatch.
type AdmissionService struct {
	files  ingestion.FileRepository
	blobs  storage.Store
	runner queue.JobRunner
	logger *log.Logger
}

// NewAdmissionService constructs the service.
func NewAdmissionService(files ingestion.FileRepository, blobs storage.Store, runner queue.JobRunner, logger *log.Logger) (*AdmissionService, error) {
	if files == nil {
		return nil, errors.New("admission: nil file repository")
	}
	if blobs == nil {
		return nil, errors.New("admission: nil blob store")
	}
	if runner == nil {
		return nil, errors.New("admission: nil job runner")
	}
	return &AdmissionService{files: files, blobs: blobs, runner: runner, logger: logger}, nil
}

// AdmitFile admits raw bytes for processing. Exactly one UploadedFile row
// and one stored blob exist per distinct content hash: the lookup here is
// the fast path, the repository's unique constraint is the authoritative
// guard under concurrent uploads of the same bytes.
func (s *AdmissionService) AdmitFile(ctx context.Context, content []byte, filename string) (AdmitResult, error) {
	if s == nil {
		return AdmitResult{}, errors.New("admission: nil service")
	}
	if len(content) == 0 {
		return AdmitResult{}, errors.New("admission: empty file")
	}
	if filename == "" {
		filename = "unnamed.xml"
	}

	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	existing, err := s.files.FindByHash(ctx, hash)
	if err != nil {
		return AdmitResult{}, err
	}
	if existing != nil {
		metrics.ObserveAdmission("duplicate")
		return AdmitResult{}, &DuplicateFileError{ExistingID: existing.ID}
	}

	path, err := s.blobs.Store(content, hash[:12]+"_"+filename)
	if err != nil {
		return AdmitResult{}, fmt.Errorf("admission: store blob: %w", err)
	}

	file := &ingestion.UploadedFile{
		Filename:    filename,
		ContentHash: hash,
		StoragePath: path,
		State:       ingestion.FileStatePending,
		UploadedAt:  time.Now().UTC(),
	}
	id, err := s.files.Create(ctx, file)
	if errors.Is(err, ingestion.ErrHashConflict) {
		// Lost the race against a concurrent upload of the same bytes.
		winner, findErr := s.files.FindByHash(ctx, hash)
		if findErr == nil && winner != nil {
			metrics.ObserveAdmission("duplicate")
			return AdmitResult{}, &DuplicateFileError{ExistingID: winner.ID}
		}
		return AdmitResult{}, err
	}
	if err != nil {
		return AdmitResult{}, err
	}

	if err := s.runner.Submit(ctx, queue.Job{FileID: id, Path: path}); err != nil {
		return AdmitResult{}, fmt.Errorf("admission: dispatch file %d: %w", id, err)
	}
	if s.logger != nil {
		s.logger.Printf("admitted file %d (%s) hash=%s", id, filename, hash[:12])
	}
	metrics.ObserveAdmission("accepted")
	return AdmitResult{FileID: id, Filename: filename, State: ingestion.FileStatePending}, nil
}
