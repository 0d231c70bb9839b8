package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	ingestion "energy-process/internal/ingestion/domain"
)

const uniqueViolation = "23505"

// FileRepository persists uploaded files and their job status.
type FileRepository struct {
	db *sql.DB
}

// NewFileRepository constructs a repository.
func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

// Create inserts a pending file. The unique index on content_hash is the
// authoritative duplicate-content guard; a violation maps to ErrHashConflict
// so concurrent admissions of the same bytes race safely.
func (r *FileRepository) Create(ctx context.Context, file *ingestion.UploadedFile) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("file repo: nil db")
	}
	if file == nil {
		return 0, errors.New("file repo: nil file")
	}
	var id int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO uploaded_files (
	filename, content_hash, storage_path, state,
	total_records, successful_records, failed_records, uploaded_at
) VALUES ($1,$2,$3,$4,0,0,0,$5)
RETURNING id`,
		file.Filename, file.ContentHash, file.StoragePath, file.State, file.UploadedAt,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, ingestion.ErrHashConflict
		}
		return 0, err
	}
	return id, nil
}

// FindByHash returns the file admitted with this content hash, or nil.
func (r *FileRepository) FindByHash(ctx context.Context, hash string) (*ingestion.UploadedFile, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("file repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, selectFile+`
WHERE content_hash = $1
LIMIT 1`, hash)
	return scanFile(row)
}

// Get fetches one file by id.
func (r *FileRepository) Get(ctx context.Context, id int64) (*ingestion.UploadedFile, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("file repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, selectFile+`
WHERE id = $1
LIMIT 1`, id)
	return scanFile(row)
}

// List returns the most recently uploaded files first.
func (r *FileRepository) List(ctx context.Context, limit int) ([]ingestion.UploadedFile, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("file repo: nil db")
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, selectFile+`
ORDER BY uploaded_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ingestion.UploadedFile
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		if file != nil {
			result = append(result, *file)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkProcessing transitions to processing and stamps the start time. It
// reports false when the file is already terminal.
func (r *FileRepository) MarkProcessing(ctx context.Context, id int64, at time.Time) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("file repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE uploaded_files
SET state = $1, processed_at = $2
WHERE id = $3 AND state IN ($4, $1)`,
		ingestion.FileStateProcessing, at, id, ingestion.FileStatePending)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Finish writes the terminal state together with the counters.
func (r *FileRepository) Finish(ctx context.Context, id int64, state ingestion.FileState, total, successful, failed int) error {
	if r == nil || r.db == nil {
		return errors.New("file repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
UPDATE uploaded_files
SET state = $1, total_records = $2, successful_records = $3, failed_records = $4
WHERE id = $5`,
		state, total, successful, failed, id)
	return err
}

const selectFile = `
SELECT id, filename, content_hash, storage_path, state,
	total_records, successful_records, failed_records, uploaded_at, processed_at
FROM uploaded_files`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*ingestion.UploadedFile, error) {
	var file ingestion.UploadedFile
	var processedAt sql.NullTime
	err := row.Scan(
		&file.ID, &file.Filename, &file.ContentHash, &file.StoragePath, &file.State,
		&file.Total, &file.Successful, &file.Failed, &file.UploadedAt, &processedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	file.UploadedAt = file.UploadedAt.UTC()
	if processedAt.Valid {
		file.ProcessedAt = processedAt.Time.UTC()
	}
	return &file, nil
}

var _ ingestion.FileRepository = (*FileRepository)(nil)
