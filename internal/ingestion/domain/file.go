package ingestion

import "time"

// FileState is the lifecycle state of an uploaded billing file.
type FileState string

const (
	FileStatePending    FileState = "pending"
	FileStateProcessing FileState = "processing"
	FileStateCompleted  FileState = "completed"
	FileStateError      FileState = "error"
)

// Terminal reports whether the state admits no further transitions.
func (s FileState) Terminal() bool {
	return s == FileStateCompleted || s == FileStateError
}

// UploadedFile is the aggregate root for one ingestion job. The content hash
// is unique across all admitted files; duplicate content is rejected before
// a job is created.
type UploadedFile struct {
	ID          int64
	Filename    string
	ContentHash string
	StoragePath string
	State       FileState
	Total       int
	Successful  int
	Failed      int
	UploadedAt  time.Time
	ProcessedAt time.Time
}
