package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	ingestion "energy-process/internal/ingestion/domain"
)

// ErrorRepository persists validation errors.
type ErrorRepository struct {
	db *sql.DB
}

// NewErrorRepository constructs a repository.
func NewErrorRepository(db *sql.DB) *ErrorRepository {
	return &ErrorRepository{db: db}
}

// Insert writes one validation error. The kind was already coerced to the
// closed taxonomy that the table's check constraint enforces.
func (r *ErrorRepository) Insert(ctx context.Context, verr *ingestion.ValidationError) error {
	if r == nil || r.db == nil {
		return errors.New("error repo: nil db")
	}
	if verr == nil {
		return errors.New("error repo: nil error")
	}
	if verr.CreatedAt.IsZero() {
		verr.CreatedAt = time.Now().UTC()
	}
	rawRow := sql.NullString{String: verr.RawRow, Valid: verr.RawRow != ""}
	return r.db.QueryRowContext(ctx, `
INSERT INTO validation_errors (
	file_id, file_line, kind, description, raw_row, created_at
) VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id`,
		verr.FileID, verr.Line, verr.Kind, verr.Description, rawRow, verr.CreatedAt,
	).Scan(&verr.ID)
}

// ListByFile returns a file's errors in file order.
func (r *ErrorRepository) ListByFile(ctx context.Context, fileID int64) ([]ingestion.ValidationError, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("error repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, file_id, file_line, kind, description, raw_row, created_at
FROM validation_errors
WHERE file_id = $1
ORDER BY file_line ASC, id ASC`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ingestion.ValidationError
	for rows.Next() {
		var verr ingestion.ValidationError
		var rawRow sql.NullString
		if err := rows.Scan(&verr.ID, &verr.FileID, &verr.Line, &verr.Kind, &verr.Description, &rawRow, &verr.CreatedAt); err != nil {
			return nil, err
		}
		verr.RawRow = rawRow.String
		verr.CreatedAt = verr.CreatedAt.UTC()
		result = append(result, verr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

var _ ingestion.ErrorRepository = (*ErrorRepository)(nil)
