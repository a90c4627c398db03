package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadplan/acadplan-api/internal/models"
)

const scheduleColumns = "id, institution_id, name, week_start, week_end, status, generation_method, created_at, updated_at"

// ScheduleRepository provides persistence for schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// List returns schedules for an institution with optional filtering.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	base := `FROM schedules WHERE institution_id = $1`
	args := []interface{}{filter.InstitutionID}
	var conditions []string

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"week_start": true,
		"name":       true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "week_start"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", scheduleColumns, base, sortBy, order, size, offset)
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}
	return schedules, total, nil
}

// FindByID loads a schedule by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedules WHERE id = $1`, scheduleColumns)
	var sched models.Schedule
	if err := r.db.GetContext(ctx, &sched, query, id); err != nil {
		return nil, err
	}
	return &sched, nil
}

// ListPublishedIDs returns ids of all published schedules for an institution.
func (r *ScheduleRepository) ListPublishedIDs(ctx context.Context, institutionID string) ([]string, error) {
	const query = `SELECT id FROM schedules WHERE institution_id = $1 AND status = $2 ORDER BY week_start DESC, id ASC`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, institutionID, models.ScheduleStatusPublished); err != nil {
		return nil, fmt.Errorf("list published schedule ids: %w", err)
	}
	return ids, nil
}

// Create stores a new schedule record.
func (r *ScheduleRepository) Create(ctx context.Context, sched *models.Schedule) error {
	if sched.ID == "" {
		sched.ID = uuid.NewString()
	}
	if sched.Status == "" {
		sched.Status = models.ScheduleStatusDraft
	}
	if sched.GenerationMethod == "" {
		sched.GenerationMethod = models.GenerationManual
	}
	now := time.Now().UTC()
	sched.CreatedAt = now
	sched.UpdatedAt = now

	const query = `INSERT INTO schedules (id, institution_id, name, week_start, week_end, status, generation_method, created_at, updated_at)
		VALUES (:id, :institution_id, :name, :week_start, :week_end, :status, :generation_method, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, sched); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Update modifies a schedule record.
func (r *ScheduleRepository) Update(ctx context.Context, sched *models.Schedule) error {
	sched.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedules SET name = :name, week_start = :week_start, week_end = :week_end, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, sched); err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return nil
}

// UpdateStatus transitions the schedule lifecycle state.
func (r *ScheduleRepository) UpdateStatus(ctx context.Context, id string, status models.ScheduleStatus) error {
	const query = `UPDATE schedules SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update schedule status: %w", err)
	}
	return nil
}

// UpdateGenerationMethod records how the schedule's entries were produced.
func (r *ScheduleRepository) UpdateGenerationMethod(ctx context.Context, id string, method models.GenerationMethod) error {
	const query = `UPDATE schedules SET generation_method = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, method, time.Now().UTC()); err != nil {
		return fmt.Errorf("update schedule generation method: %w", err)
	}
	return nil
}

// Delete removes a schedule by id.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}
