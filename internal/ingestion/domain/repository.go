package ingestion

import (
	"context"
	"errors"
	"time"
)

// ErrHashConflict is returned by FileRepository.Create when the unique
// content-hash constraint rejects the insert.
var ErrHashConflict = errors.New("ingestion: content hash already admitted")

// FileRepository persists uploaded files and their job status.
type FileRepository interface {
	// Create inserts a new file in pending state and returns its id. The
	// unique content-hash constraint is the authoritative duplicate guard;
	// a violation surfaces as ErrHashConflict.
	Create(ctx context.Context, file *UploadedFile) (int64, error)
	FindByHash(ctx context.Context, hash string) (*UploadedFile, error)
	Get(ctx context.Context, id int64) (*UploadedFile, error)
	List(ctx context.Context, limit int) ([]UploadedFile, error)
	// MarkProcessing transitions pending -> processing and stamps the
	// processing start. It reports false when the file is already terminal,
	// which lets a re-delivered job be skipped.
	MarkProcessing(ctx context.Context, id int64, at time.Time) (bool, error)
	// Finish writes the terminal state and the counters atomically.
	Finish(ctx context.Context, id int64, state FileState, total, successful, failed int) error
}

// RecordRepository persists validated energy records.
type RecordRepository interface {
	Insert(ctx context.Context, record *EnergyRecord) error
	// ExistsBusinessKey checks (cups, period start, period end, installation).
	ExistsBusinessKey(ctx context.Context, cups string, periodStart, periodEnd time.Time, installation string) (bool, error)
	List(ctx context.Context, filter RecordFilter) ([]EnergyRecord, error)
}

// RecordFilter narrows a record listing. Nil/zero members are ignored.
type RecordFilter struct {
	CUPS     string
	FromDate *time.Time
	ToDate   *time.Time
	Type     *int
	FileID   *int64
}

// ErrorRepository persists validation errors.
type ErrorRepository interface {
	Insert(ctx context.Context, verr *ValidationError) error
	ListByFile(ctx context.Context, fileID int64) ([]ValidationError, error)
}
