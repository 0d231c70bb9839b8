package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the only accepted date format for billing periods.
const DateLayout = "2006-01-02"

// ClientDirectory is the read-only lookup of known CUPS codes.
type ClientDirectory interface {
	Exists(ctx context.Context, cups string) (bool, error)
}

// LineValidator applies the semantic validation rules to one canonical row.
// Record uniqueness is deliberately not checked here: it needs parsed dates
// and runs afterwards against the persisted records.
type LineValidator struct {
	directory ClientDirectory
	types     map[int]struct{}
}

// NewLineValidator constructs a validator over the accepted type set.
func NewLineValidator(directory ClientDirectory, acceptedTypes []int) (*LineValidator, error) {
	if directory == nil {
		return nil, errors.New("validator: nil client directory")
	}
	if len(acceptedTypes) == 0 {
		acceptedTypes = AcceptedTypes
	}
	types := make(map[int]struct{}, len(acceptedTypes))
	for _, t := range acceptedTypes {
		types[t] = struct{}{}
	}
	return &LineValidator{directory: directory, types: types}, nil
}

// Validate collects every violation on the row. An empty slice means the row
// is semantically valid. Checks that depend on a failed prerequisite are
// skipped: client existence is only consulted for a well-formed CUPS, and the
// date range only for two parseable dates.
func (v *LineValidator) Validate(ctx context.Context, row Row) ([]RowError, error) {
	if v == nil {
		return nil, errors.New("validator: nil receiver")
	}
	var found []RowError

	cups := strings.TrimSpace(row.CUPS)
	if cups == "" || !strings.HasPrefix(cups, "ES") || len(cups) < 10 {
		found = append(found, RowError{
			Kind:        ErrorInvalidCupsFormat,
			Description: fmt.Sprintf("CUPS %q must start with ES and be at least 10 characters long", cups),
		})
	} else {
		exists, err := v.directory.Exists(ctx, cups)
		if err != nil {
			return nil, fmt.Errorf("validator: client lookup: %w", err)
		}
		if !exists {
			found = append(found, RowError{
				Kind:        ErrorUnknownClient,
				Description: fmt.Sprintf("CUPS %s not found in the client directory", cups),
			})
		}
	}

	found = append(found, v.validateType(row)...)
	found = append(found, validateDates(row)...)
	found = append(found, validateVector("energia_neta_gen", row.NetGenerated)...)
	found = append(found, validateVector("energia_autoconsumida", row.SelfConsumed)...)
	found = append(found, validateVector("pago_tda", row.TollPayment)...)
	return found, nil
}

func (v *LineValidator) validateType(row Row) []RowError {
	raw := strings.TrimSpace(row.Type)
	if raw == "" {
		return []RowError{{Kind: ErrorMissingType, Description: "autoconsumption type is required"}}
	}
	code, err := strconv.Atoi(raw)
	if err != nil {
		return []RowError{{
			Kind:        ErrorUnsupportedType,
			Description: fmt.Sprintf("autoconsumption type is not an integer: %s", raw),
		}}
	}
	if _, ok := v.types[code]; !ok {
		return []RowError{{
			Kind:        ErrorUnsupportedType,
			Description: fmt.Sprintf("autoconsumption type %d not accepted", code),
		}}
	}
	return nil
}

func validateDates(row Row) []RowError {
	from := strings.TrimSpace(row.DateFrom)
	to := strings.TrimSpace(row.DateTo)
	if from == "" || to == "" {
		return []RowError{{Kind: ErrorInvalidDateFormat, Description: "period dates (from/to) are required"}}
	}
	fromDate, errFrom := ParseDate(from)
	toDate, errTo := ParseDate(to)
	if errFrom != nil || errTo != nil {
		return []RowError{{
			Kind:        ErrorInvalidDateFormat,
			Description: fmt.Sprintf("invalid date format (expected YYYY-MM-DD): %s / %s", from, to),
		}}
	}
	if toDate.Before(fromDate) {
		return []RowError{{Kind: ErrorInvalidDateRange, Description: "period end cannot be before period start"}}
	}
	return nil
}

// validateVector checks rules 4 and 5 over one energy vector: exactly
// NumPeriods non-blank values, each parseable as a decimal number. The first
// unparsable value stops checking that vector but still counts toward the
// completeness rule.
func validateVector(field string, values [NumPeriods]string) []RowError {
	var found []RowError
	valid := 0
	for i, raw := range values {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			found = append(found, RowError{
				Kind:        ErrorInvalidNumericValue,
				Description: fmt.Sprintf("invalid numeric value in %s_%d: %s", field, i+1, raw),
			})
			break
		}
		valid++
	}
	if valid != NumPeriods {
		found = append(found, RowError{
			Kind:        ErrorInsufficientPeriods,
			Description: fmt.Sprintf("%s must carry exactly %d periods (P1-P6), found %d", field, NumPeriods, valid),
		})
	}
	return found
}

// ParseDate parses a billing-period date.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(value))
}

// ParseVector converts the raw string vector of an already validated row.
func ParseVector(values [NumPeriods]string) (PeriodVector, error) {
	var vector PeriodVector
	for i, raw := range values {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return vector, fmt.Errorf("ingestion: period %d: %w", i+1, err)
		}
		vector[i] = parsed
	}
	return vector, nil
}
