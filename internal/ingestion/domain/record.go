package ingestion

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NumPeriods is the fixed number of sub-periods (P1-P6) every energy vector
// must carry.
const NumPeriods = 6

// AcceptedTypes is the closed set of autoconsumption billing regime codes.
var AcceptedTypes = []int{12, 41, 42, 43, 51}

// PeriodVector holds one value per sub-period. It maps to a postgres numeric
// array column.
type PeriodVector [NumPeriods]float64

// Value renders the vector as a postgres array literal.
func (v PeriodVector) Value() (driver.Value, error) {
	parts := make([]string, NumPeriods)
	for i, f := range v {
		parts[i] = strconv.FormatFloat(f, 'f', -1, 64)
	}
	return "{" + strings.Join(parts, ",") + "}", nil
}

// Scan parses a postgres array literal of exactly NumPeriods elements.
func (v *PeriodVector) Scan(src any) error {
	var raw string
	switch value := src.(type) {
	case string:
		raw = value
	case []byte:
		raw = string(value)
	default:
		return fmt.Errorf("period vector: cannot scan %T", src)
	}
	raw = strings.TrimPrefix(strings.TrimSuffix(strings.TrimSpace(raw), "}"), "{")
	parts := strings.Split(raw, ",")
	if len(parts) != NumPeriods {
		return fmt.Errorf("period vector: expected %d elements, got %d", NumPeriods, len(parts))
	}
	for i, part := range parts {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return fmt.Errorf("period vector: element %d: %w", i+1, err)
		}
		v[i] = parsed
	}
	return nil
}

// EnergyRecord is one validated billing-period entry. Records are created
// once by the persister and never mutated. The business key
// (cups, period start, period end, installation) is unique.
type EnergyRecord struct {
	ID           int64
	FileID       int64
	ClientID     int64
	CUPS         string
	Line         int
	Installation string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	Type         int
	NetGenerated PeriodVector
	SelfConsumed PeriodVector
	TollPayment  PeriodVector
	CreatedAt    time.Time
}

// ErrInvalidPeriod guards the period invariant at construction time.
var ErrInvalidPeriod = errors.New("ingestion: period end before period start")

// Validate checks the record invariants that must hold for every persisted
// record regardless of how it was built.
func (r EnergyRecord) Validate() error {
	if r.PeriodEnd.Before(r.PeriodStart) {
		return ErrInvalidPeriod
	}
	return nil
}
