package model

import "time"

// Operation status values for history entries. An entry moves
// pending -> queued when its upload is confirmed and the job is claimed,
// then queued -> success/failure when the worker settles it.
const (
	OperationPending = "pending"
	OperationQueued  = "queued"
	OperationSuccess = "success"
	OperationFailure = "failure"
)

// Known operation types. The converter service may support more; these are
// the ones the recommendation heuristics inspect.
const (
	OpConvert  = "convert"
	OpCompress = "compress"
	OpMerge    = "merge"
	OpSplit    = "split"
	OpOCR      = "ocr"
	OpCleanup  = "cleanup"
)

// OperationHistoryEntry is one row of the append-only operation log.
// Deletions are explicit retention or user actions, never implicit.
type OperationHistoryEntry struct {
	ID             string        `db:"id" json:"id"`
	UserID         string        `db:"user_id" json:"user_id"`
	Filename       string        `db:"filename" json:"filename"`
	FileType       string        `db:"file_type" json:"file_type"`
	Operation      string        `db:"operation" json:"operation"`
	Status         string        `db:"status" json:"status"`
	FileSizeBytes  int64         `db:"file_size_bytes" json:"file_size_bytes"`
	Duration       time.Duration `db:"duration_ms" json:"duration_ms"`
	OutputFilename string        `db:"output_filename" json:"output_filename,omitempty"`
	StoragePath    string        `db:"storage_path" json:"storage_path,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}
