package models

import "time"

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportStatus is the lifecycle of an export job.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "queued"
	ExportStatusProcessing ExportStatus = "processing"
	ExportStatusCompleted  ExportStatus = "completed"
	ExportStatusFailed     ExportStatus = "failed"
)

// ExportJob tracks an asynchronous schedule export.
type ExportJob struct {
	ID            string       `db:"id" json:"id"`
	InstitutionID string       `db:"institution_id" json:"institution_id"`
	ScheduleID    string       `db:"schedule_id" json:"schedule_id"`
	RequestedBy   string       `db:"requested_by" json:"requested_by"`
	Format        ExportFormat `db:"format" json:"format"`
	Status        ExportStatus `db:"status" json:"status"`
	FilePath      *string      `db:"file_path" json:"-"`
	DownloadToken *string      `db:"download_token" json:"download_token,omitempty"`
	ErrorMessage  *string      `db:"error_message" json:"error_message,omitempty"`
	ExpiresAt     *time.Time   `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}
