package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadplan/acadplan-api/internal/models"
)

// ConflictRepository persists resolved conflict records.
type ConflictRepository struct {
	db *sqlx.DB
}

// NewConflictRepository creates a new conflict repository.
func NewConflictRepository(db *sqlx.DB) *ConflictRepository {
	return &ConflictRepository{db: db}
}

// Create stores a conflict record. Callers use this for the record-and-resolve
// action, so records usually arrive already marked resolved.
func (r *ConflictRepository) Create(ctx context.Context, conflict *models.ScheduleConflict) error {
	if conflict.ID == "" {
		conflict.ID = uuid.NewString()
	}
	if conflict.CreatedAt.IsZero() {
		conflict.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO schedule_conflicts (id, schedule_id, conflict_type, description, entry_ids, is_resolved, resolved_by, resolved_at, created_at)
		VALUES (:id, :schedule_id, :conflict_type, :description, :entry_ids, :is_resolved, :resolved_by, :resolved_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, conflict); err != nil {
		return fmt.Errorf("create schedule conflict: %w", err)
	}
	return nil
}

// ListBySchedule returns persisted conflict records for a schedule.
func (r *ConflictRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.ScheduleConflict, error) {
	const query = `SELECT id, schedule_id, conflict_type, description, entry_ids, is_resolved, resolved_by, resolved_at, created_at
		FROM schedule_conflicts WHERE schedule_id = $1 ORDER BY created_at DESC, id ASC`
	var conflicts []models.ScheduleConflict
	if err := r.db.SelectContext(ctx, &conflicts, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list schedule conflicts: %w", err)
	}
	return conflicts, nil
}
