package ingestion

import (
	"context"
	"testing"
)

type stubDirectory struct {
	known map[string]bool
}

func (d *stubDirectory) Exists(_ context.Context, cups string) (bool, error) {
	return d.known[cups], nil
}

func validRow() Row {
	row := Row{
		CUPS:     "ES0021000000001234AB",
		Type:     "41",
		DateFrom: "2024-01-01",
		DateTo:   "2024-01-31",
	}
	for i := 0; i < NumPeriods; i++ {
		row.NetGenerated[i] = "100.5"
		row.SelfConsumed[i] = "50.25"
		row.TollPayment[i] = "1.1"
	}
	return row
}

func newTestValidator(t *testing.T, known ...string) *LineValidator {
	t.Helper()
	directory := &stubDirectory{known: map[string]bool{}}
	for _, cups := range known {
		directory.known[cups] = true
	}
	validator, err := NewLineValidator(directory, nil)
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}
	return validator
}

func TestValidate_ValidRow(t *testing.T) {
	validator := newTestValidator(t, "ES0021000000001234AB")
	found, err := validator.Validate(context.Background(), validRow())
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(found) != 0 {
		t.Fatalf("expected no errors, got %v", found)
	}
}

func TestValidate_CupsFormat(t *testing.T) {
	validator := newTestValidator(t)
	row := validRow()
	row.CUPS = "XX123"
	found, err := validator.Validate(context.Background(), row)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(found) != 1 || found[0].Kind != ErrorInvalidCupsFormat {
		t.Fatalf("expected invalid_cups_format, got %v", found)
	}
}

func TestValidate_UnknownClient(t *testing.T) {
	validator := newTestValidator(t, "ES0021000000009999ZZ")
	found, err := validator.Validate(context.Background(), validRow())
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(found) != 1 || found[0].Kind != ErrorUnknownClient {
		t.Fatalf("expected unknown_client, got %v", found)
	}
}

func TestValidate_MissingType(t *testing.T) {
	validator := newTestValidator(t, "ES0021000000001234AB")
	row := validRow()
	row.Type = "  "
	found, err := validator.Validate(context.Background(), row)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(found) != 1 || found[0].Kind != ErrorMissingType {
		t.Fatalf("expected missing_type, got %v", found)
	}
}

func TestValidate_UnsupportedType(t *testing.T) {
	validator := newTestValidator(t, "ES0021000000001234AB")
	for _, value := range []string{"99", "abc"} {
		row := validRow()
		row.Type = value
		found, err := validator.Validate(context.Background(), row)
		if err != nil {
			t.Fatalf("validate %q: %v", value, err)
		}
		if len(found) != 1 || found[0].Kind != ErrorUnsupportedType {
			t.Fatalf("type %q: expected unsupported_type, got %v", value, found)
		}
	}
}

func TestValidate_DateRules(t *testing.T) {
	validator := newTestValidator(t, "ES0021000000001234AB")

	row := validRow()
	row.DateFrom = "01/01/2024"
	found, err := validator.Validate(context.Background(), row)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(found) != 1 || found[0].Kind != ErrorInvalidDateFormat {
		t.Fatalf("expected invalid_date_format, got %v", found)
	}

	row = validRow()
	row.DateFrom, row.DateTo = "2024-02-01", "2024-01-01"
	found, err = validator.Validate(context.Background(), row)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(found) != 1 || found[0].Kind != ErrorInvalidDateRange {
		t.Fatalf("expected invalid_date_range, got %v", found)
	}
}

func TestValidate_VectorRules(t *testing.T) {
	validator := newTestValidator(t, "ES0021000000001234AB")

	// A missing period is insufficient_periods only.
	row := validRow()
	row.NetGenerated[3] = ""
	found, err := validator.Validate(context.Background(), row)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(found) != 1 || found[0].Kind != ErrorInsufficientPeriods {
		t.Fatalf("expected insufficient_periods, got %v", found)
	}

	// An unparsable value reports both the bad value and the short vector.
	row = validRow()
	row.TollPayment[0] = "12,34"
	found, err = validator.Validate(context.Background(), row)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected two findings, got %v", found)
	}
	if found[0].Kind != ErrorInvalidNumericValue || found[1].Kind != ErrorInsufficientPeriods {
		t.Fatalf("unexpected kinds: %v", found)
	}
}

func TestValidate_CollectsAcrossFields(t *testing.T) {
	validator := newTestValidator(t)
	row := Row{CUPS: "bad", Type: "7", DateFrom: "2024-01-01", DateTo: "nope"}
	found, err := validator.Validate(context.Background(), row)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	kinds := map[ErrorKind]int{}
	for _, finding := range found {
		kinds[finding.Kind]++
	}
	if kinds[ErrorInvalidCupsFormat] != 1 || kinds[ErrorUnsupportedType] != 1 || kinds[ErrorInvalidDateFormat] != 1 {
		t.Fatalf("missing expected kinds: %v", found)
	}
	if kinds[ErrorInsufficientPeriods] != 3 {
		t.Fatalf("expected all three vectors flagged, got %v", found)
	}
}

func TestNewValidationError_TruncatesAndCoerces(t *testing.T) {
	long := make([]byte, maxErrorDescription+100)
	for i := range long {
		long[i] = 'x'
	}
	verr := NewValidationError(1, 3, ErrorKind("made_up"), string(long), "")
	if verr.Kind != ErrorStructuralInvalid {
		t.Fatalf("expected coercion to structural_invalid, got %s", verr.Kind)
	}
	if len(verr.Description) != maxErrorDescription {
		t.Fatalf("expected truncation to %d, got %d", maxErrorDescription, len(verr.Description))
	}
}
