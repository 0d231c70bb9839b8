// Package memory provides in-memory repositories used by unit tests and by
// environments without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	ingestion "energy-process/internal/ingestion/domain"
)

// FileRepository is a mutex-guarded in-memory ingestion.FileRepository.
type FileRepository struct {
	mu     sync.Mutex
	nextID int64
	files  map[int64]*ingestion.UploadedFile
}

// NewFileRepository constructs an empty repository.
func NewFileRepository() *FileRepository {
	return &FileRepository{nextID: 1, files: make(map[int64]*ingestion.UploadedFile)}
}

func (r *FileRepository) Create(_ context.Context, file *ingestion.UploadedFile) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.files {
		if existing.ContentHash == file.ContentHash {
			return 0, ingestion.ErrHashConflict
		}
	}
	stored := *file
	stored.ID = r.nextID
	r.nextID++
	r.files[stored.ID] = &stored
	return stored.ID, nil
}

func (r *FileRepository) FindByHash(_ context.Context, hash string) (*ingestion.UploadedFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, file := range r.files {
		if file.ContentHash == hash {
			clone := *file
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *FileRepository) Get(_ context.Context, id int64) (*ingestion.UploadedFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	file, ok := r.files[id]
	if !ok {
		return nil, nil
	}
	clone := *file
	return &clone, nil
}

func (r *FileRepository) List(_ context.Context, limit int) ([]ingestion.UploadedFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 20
	}
	result := make([]ingestion.UploadedFile, 0, len(r.files))
	for _, file := range r.files {
		result = append(result, *file)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UploadedAt.After(result[j].UploadedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *FileRepository) MarkProcessing(_ context.Context, id int64, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	file, ok := r.files[id]
	if !ok || file.State.Terminal() {
		return false, nil
	}
	file.State = ingestion.FileStateProcessing
	file.ProcessedAt = at
	return true, nil
}

func (r *FileRepository) Finish(_ context.Context, id int64, state ingestion.FileState, total, successful, failed int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	file, ok := r.files[id]
	if !ok {
		return nil
	}
	file.State = state
	file.Total = total
	file.Successful = successful
	file.Failed = failed
	return nil
}

// RecordRepository is an in-memory ingestion.RecordRepository.
type RecordRepository struct {
	mu      sync.Mutex
	nextID  int64
	records []ingestion.EnergyRecord
}

// NewRecordRepository constructs an empty repository.
func NewRecordRepository() *RecordRepository {
	return &RecordRepository{nextID: 1}
}

func (r *RecordRepository) Insert(_ context.Context, record *ingestion.EnergyRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	record.ID = r.nextID
	r.nextID++
	r.records = append(r.records, *record)
	return nil
}

func (r *RecordRepository) ExistsBusinessKey(_ context.Context, cups string, periodStart, periodEnd time.Time, installation string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range r.records {
		if record.CUPS == cups &&
			record.PeriodStart.Equal(periodStart) &&
			record.PeriodEnd.Equal(periodEnd) &&
			record.Installation == installation {
			return true, nil
		}
	}
	return false, nil
}

func (r *RecordRepository) List(_ context.Context, filter ingestion.RecordFilter) ([]ingestion.EnergyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []ingestion.EnergyRecord
	for _, record := range r.records {
		if filter.FileID != nil && record.FileID != *filter.FileID {
			continue
		}
		if filter.CUPS != "" && record.CUPS != filter.CUPS {
			continue
		}
		if filter.FromDate != nil && record.PeriodStart.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && record.PeriodEnd.After(*filter.ToDate) {
			continue
		}
		if filter.Type != nil && record.Type != *filter.Type {
			continue
		}
		result = append(result, record)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Line < result[j].Line })
	return result, nil
}

// ErrorRepository is an in-memory ingestion.ErrorRepository.
type ErrorRepository struct {
	mu     sync.Mutex
	nextID int64
	errs   []ingestion.ValidationError
}

// NewErrorRepository constructs an empty repository.
func NewErrorRepository() *ErrorRepository {
	return &ErrorRepository{nextID: 1}
}

func (r *ErrorRepository) Insert(_ context.Context, verr *ingestion.ValidationError) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if verr.CreatedAt.IsZero() {
		verr.CreatedAt = time.Now().UTC()
	}
	verr.ID = r.nextID
	r.nextID++
	r.errs = append(r.errs, *verr)
	return nil
}

func (r *ErrorRepository) ListByFile(_ context.Context, fileID int64) ([]ingestion.ValidationError, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []ingestion.ValidationError
	for _, verr := range r.errs {
		if verr.FileID == fileID {
			result = append(result, verr)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Line != result[j].Line {
			return result[i].Line < result[j].Line
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

var (
	_ ingestion.FileRepository   = (*FileRepository)(nil)
	_ ingestion.RecordRepository = (*RecordRepository)(nil)
	_ ingestion.ErrorRepository  = (*ErrorRepository)(nil)
)
