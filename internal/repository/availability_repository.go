package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadplan/acadplan-api/internal/models"
)

// AvailabilityRepository provides persistence for teacher availability windows.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository creates a new availability repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListByTeacher returns a teacher's declared windows within an institution.
func (r *AvailabilityRepository) ListByTeacher(ctx context.Context, institutionID, teacherID string) ([]models.TeacherAvailability, error) {
	const query = `SELECT id, teacher_id, institution_id, day_of_week, start_time, end_time, is_available, notes, created_at
		FROM teacher_availability WHERE institution_id = $1 AND teacher_id = $2
		ORDER BY day_of_week ASC, start_time ASC, id ASC`
	var windows []models.TeacherAvailability
	if err := r.db.SelectContext(ctx, &windows, query, institutionID, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher availability: %w", err)
	}
	return windows, nil
}

// ReplaceForTeacher swaps the full availability set for a teacher in one
// transaction: delete everything, then insert the new windows. There is no
// incremental update semantic.
func (r *AvailabilityRepository) ReplaceForTeacher(ctx context.Context, institutionID, teacherID string, windows []models.TeacherAvailability) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace availability: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM teacher_availability WHERE institution_id = $1 AND teacher_id = $2`, institutionID, teacherID); err != nil {
		err = fmt.Errorf("clear teacher availability: %w", err)
		return err
	}

	now := time.Now().UTC()
	for i := range windows {
		payload := windows[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		payload.InstitutionID = institutionID
		payload.TeacherID = teacherID
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		if _, err = sqlx.NamedExecContext(ctx, tx, `INSERT INTO teacher_availability (id, teacher_id, institution_id, day_of_week, start_time, end_time, is_available, notes, created_at) VALUES (:id, :teacher_id, :institution_id, :day_of_week, :start_time, :end_time, :is_available, :notes, :created_at)`, &payload); err != nil {
			err = fmt.Errorf("insert availability window: %w", err)
			return err
		}
		windows[i] = payload
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace availability: %w", err)
	}
	return nil
}
