package dto

import "time"

// DocumentInitiateDTO is used for incoming upload initiation requests
type DocumentInitiateDTO struct {
	Filename      string `json:"filename" validate:"required"`
	FileType      string `json:"file_type" validate:"required"`
	Operation     string `json:"operation" validate:"required"`
	FileSizeBytes int64  `json:"file_size_bytes" validate:"gte=0"`
}

// DocumentInitiateResponseDTO returns the pending operation and upload URL
type DocumentInitiateResponseDTO struct {
	HistoryID string `json:"history_id"`
	UploadURL string `json:"upload_url"`
	Status    string `json:"status"`
}

// DocumentCompleteDTO is used to finalize an upload
type DocumentCompleteDTO struct {
	HistoryID string `json:"history_id" validate:"required"`
}

// HistoryEntryResponseDTO is one operation-history row in API responses
type HistoryEntryResponseDTO struct {
	HistoryID      string    `json:"history_id"`
	Filename       string    `json:"filename"`
	FileType       string    `json:"file_type"`
	Operation      string    `json:"operation"`
	Status         string    `json:"status"`
	FileSizeBytes  int64     `json:"file_size_bytes"`
	DurationMs     int64     `json:"duration_ms"`
	OutputFilename string    `json:"output_filename,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// DocumentDownloadResponseDTO carries a presigned output URL
type DocumentDownloadResponseDTO struct {
	DownloadURL string `json:"download_url"`
}
