package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadplan/acadplan-api/internal/models"
)

const exportColumns = "id, institution_id, schedule_id, requested_by, format, status, file_path, download_token, error_message, expires_at, created_at, updated_at"

// ExportRepository persists asynchronous export jobs.
type ExportRepository struct {
	db *sqlx.DB
}

// NewExportRepository creates a new export repository.
func NewExportRepository(db *sqlx.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

// Create stores a queued export job.
func (r *ExportRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ExportStatusQueued
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now

	const query = `INSERT INTO export_jobs (id, institution_id, schedule_id, requested_by, format, status, created_at, updated_at)
		VALUES (:id, :institution_id, :schedule_id, :requested_by, :format, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

// FindByID loads an export job by id.
func (r *ExportRepository) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	query := fmt.Sprintf(`SELECT %s FROM export_jobs WHERE id = $1`, exportColumns)
	var job models.ExportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkProcessing flips a queued job to processing.
func (r *ExportRepository) MarkProcessing(ctx context.Context, id string) error {
	const query = `UPDATE export_jobs SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportStatusProcessing, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark export processing: %w", err)
	}
	return nil
}

// MarkCompleted records the stored file and signed token for a finished job.
func (r *ExportRepository) MarkCompleted(ctx context.Context, id, filePath, token string, expiresAt time.Time) error {
	const query = `UPDATE export_jobs SET status = $2, file_path = $3, download_token = $4, expires_at = $5, updated_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportStatusCompleted, filePath, token, expiresAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark export completed: %w", err)
	}
	return nil
}

// MarkFailed records a terminal failure for a job.
func (r *ExportRepository) MarkFailed(ctx context.Context, id, message string) error {
	const query = `UPDATE export_jobs SET status = $2, error_message = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportStatusFailed, message, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark export failed: %w", err)
	}
	return nil
}
