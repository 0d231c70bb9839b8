package ingestion

import "time"

// ErrorKind classifies a rejected row or a file-level failure. The set is
// closed: the errors table carries a check constraint over these values.
type ErrorKind string

const (
	ErrorDuplicateFile            ErrorKind = "duplicate_file"
	ErrorStructuralInvalid        ErrorKind = "structural_invalid"
	ErrorUnreadableFile           ErrorKind = "unreadable_file"
	ErrorInvalidCupsFormat        ErrorKind = "invalid_cups_format"
	ErrorUnknownClient            ErrorKind = "unknown_client"
	ErrorMissingType              ErrorKind = "missing_type"
	ErrorUnsupportedType          ErrorKind = "unsupported_type"
	ErrorInvalidDateFormat        ErrorKind = "invalid_date_format"
	ErrorInvalidDateRange         ErrorKind = "invalid_date_range"
	ErrorInsufficientPeriods      ErrorKind = "insufficient_periods"
	ErrorInvalidNumericValue      ErrorKind = "invalid_numeric_value"
	ErrorDuplicateRecord          ErrorKind = "duplicate_record"
	ErrorPersistenceInconsistency ErrorKind = "persistence_inconsistency"
	ErrorGlobalProcessingFailure  ErrorKind = "global_processing_failure"
)

var knownErrorKinds = map[ErrorKind]struct{}{
	ErrorDuplicateFile:            {},
	ErrorStructuralInvalid:        {},
	ErrorUnreadableFile:           {},
	ErrorInvalidCupsFormat:        {},
	ErrorUnknownClient:            {},
	ErrorMissingType:              {},
	ErrorUnsupportedType:          {},
	ErrorInvalidDateFormat:        {},
	ErrorInvalidDateRange:         {},
	ErrorInsufficientPeriods:      {},
	ErrorInvalidNumericValue:      {},
	ErrorDuplicateRecord:          {},
	ErrorPersistenceInconsistency: {},
	ErrorGlobalProcessingFailure:  {},
}

// NormalizeErrorKind coerces unknown kinds to StructuralInvalid so an insert
// never trips the database check constraint.
func NormalizeErrorKind(kind ErrorKind) ErrorKind {
	if _, ok := knownErrorKinds[kind]; ok {
		return kind
	}
	return ErrorStructuralInvalid
}

// maxErrorDescription bounds the stored description length.
const maxErrorDescription = 5000

// RowError is one validation finding for a row.
type RowError struct {
	Kind        ErrorKind
	Description string
}

// ValidationError is a persisted rejection: either one row that failed
// validation, or a file-level failure (line 0 or 1). Immutable once written.
type ValidationError struct {
	ID          int64
	FileID      int64
	Line        int
	Kind        ErrorKind
	Description string
	RawRow      string
	CreatedAt   time.Time
}

// NewValidationError builds a persistable error with the kind coerced to the
// closed taxonomy and the description truncated.
func NewValidationError(fileID int64, line int, kind ErrorKind, description, rawRow string) ValidationError {
	if len(description) > maxErrorDescription {
		description = description[:maxErrorDescription]
	}
	return ValidationError{
		FileID:      fileID,
		Line:        line,
		Kind:        NormalizeErrorKind(kind),
		Description: description,
		RawRow:      rawRow,
	}
}
