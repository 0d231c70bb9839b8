package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	ingestion "energy-process/internal/ingestion/domain"
)

// RecordRepository persists validated energy records.
type RecordRepository struct {
	db *sql.DB
}

// NewRecordRepository constructs a repository.
func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Insert writes one record. Records are immutable; there is no update path.
func (r *RecordRepository) Insert(ctx context.Context, record *ingestion.EnergyRecord) error {
	if r == nil || r.db == nil {
		return errors.New("record repo: nil db")
	}
	if record == nil {
		return errors.New("record repo: nil record")
	}
	if err := record.Validate(); err != nil {
		return err
	}
	return r.db.QueryRowContext(ctx, `
INSERT INTO energy_records (
	file_id, client_id, cups, file_line, installation,
	period_start, period_end, autoconsumption_type,
	net_generated, self_consumed, toll_payment, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
RETURNING id`,
		record.FileID, record.ClientID, record.CUPS, record.Line, record.Installation,
		record.PeriodStart, record.PeriodEnd, record.Type,
		record.NetGenerated, record.SelfConsumed, record.TollPayment, record.CreatedAt,
	).Scan(&record.ID)
}

// ExistsBusinessKey checks the uniqueness key (cups, period start, period
// end, installation). Formats without an installation id store "".
func (r *RecordRepository) ExistsBusinessKey(ctx context.Context, cups string, periodStart, periodEnd time.Time, installation string) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("record repo: nil db")
	}
	var one int
	err := r.db.QueryRowContext(ctx, `
SELECT 1
FROM energy_records
WHERE cups = $1 AND period_start = $2 AND period_end = $3 AND installation = $4
LIMIT 1`, cups, periodStart, periodEnd, installation).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns records matching the filter, ordered by file line.
func (r *RecordRepository) List(ctx context.Context, filter ingestion.RecordFilter) ([]ingestion.EnergyRecord, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("record repo: nil db")
	}
	query := strings.Builder{}
	query.WriteString(`
SELECT id, file_id, client_id, cups, file_line, installation,
	period_start, period_end, autoconsumption_type,
	net_generated, self_consumed, toll_payment, created_at
FROM energy_records`)

	var clauses []string
	var args []any
	addClause := func(condition string, value any) {
		args = append(args, value)
		clauses = append(clauses, condition+" $"+strconv.Itoa(len(args)))
	}
	if filter.FileID != nil {
		addClause("file_id =", *filter.FileID)
	}
	if filter.CUPS != "" {
		addClause("cups =", filter.CUPS)
	}
	if filter.FromDate != nil {
		addClause("period_start >=", *filter.FromDate)
	}
	if filter.ToDate != nil {
		addClause("period_end <=", *filter.ToDate)
	}
	if filter.Type != nil {
		addClause("autoconsumption_type =", *filter.Type)
	}
	if len(clauses) > 0 {
		query.WriteString("\nWHERE " + strings.Join(clauses, " AND "))
	}
	query.WriteString("\nORDER BY file_line ASC")

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ingestion.EnergyRecord
	for rows.Next() {
		var record ingestion.EnergyRecord
		if err := rows.Scan(
			&record.ID, &record.FileID, &record.ClientID, &record.CUPS, &record.Line, &record.Installation,
			&record.PeriodStart, &record.PeriodEnd, &record.Type,
			&record.NetGenerated, &record.SelfConsumed, &record.TollPayment, &record.CreatedAt,
		); err != nil {
			return nil, err
		}
		record.PeriodStart = record.PeriodStart.UTC()
		record.PeriodEnd = record.PeriodEnd.UTC()
		record.CreatedAt = record.CreatedAt.UTC()
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

var _ ingestion.RecordRepository = (*RecordRepository)(nil)
