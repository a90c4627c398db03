package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadplan/acadplan-api/internal/models"
)

const entryColumns = "id, schedule_id, subject_id, teacher_id, day_of_week, start_time, end_time, room, notes, created_at"

// EntryRepository provides persistence for schedule entries.
type EntryRepository struct {
	db *sqlx.DB
}

// NewEntryRepository creates a new entry repository.
func NewEntryRepository(db *sqlx.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// ListBySchedule returns all entries of a schedule in deterministic order
// (day, start time, id) so that detection output is stable.
func (r *EntryRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.ScheduleEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_entries WHERE schedule_id = $1 ORDER BY day_of_week ASC, start_time ASC, id ASC`, entryColumns)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	return entries, nil
}

// FindByID loads a single entry.
func (r *EntryRepository) FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_entries WHERE id = $1`, entryColumns)
	var entry models.ScheduleEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Create stores a single manually added entry.
func (r *EntryRepository) Create(ctx context.Context, entry *models.ScheduleEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO schedule_entries (id, schedule_id, subject_id, teacher_id, day_of_week, start_time, end_time, room, notes, created_at)
		VALUES (:id, :schedule_id, :subject_id, :teacher_id, :day_of_week, :start_time, :end_time, :room, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create schedule entry: %w", err)
	}
	return nil
}

// BulkCreate inserts generated entries within a single transaction.
func (r *EntryRepository) BulkCreate(ctx context.Context, entries []models.ScheduleEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk create entries: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = r.bulkInsertEntries(ctx, tx, entries); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk create entries: %w", err)
	}
	return nil
}

func (r *EntryRepository) bulkInsertEntries(ctx context.Context, exec sqlx.ExtContext, entries []models.ScheduleEntry) error {
	now := time.Now().UTC()
	for i := range entries {
		payload := entries[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}

		if _, err := sqlx.NamedExecContext(ctx, exec, `INSERT INTO schedule_entries (id, schedule_id, subject_id, teacher_id, day_of_week, start_time, end_time, room, notes, created_at) VALUES (:id, :schedule_id, :subject_id, :teacher_id, :day_of_week, :start_time, :end_time, :room, :notes, :created_at)`, &payload); err != nil {
			return fmt.Errorf("bulk insert entry: %w", err)
		}
		entries[i] = payload
	}
	return nil
}

// Delete removes an entry by id. Edits use delete+recreate, never update.
func (r *EntryRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedule_entries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule entry: %w", err)
	}
	return nil
}
