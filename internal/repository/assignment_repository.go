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

const assignmentColumns = "id, institution_id, subject_id, teacher_id, status, requested_by, decided_by, decided_at, created_at, updated_at"

// AssignmentRepository persists teacher-subject assignment requests.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new assignment repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// FindByID loads an assignment by id.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.TeacherSubjectAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM teacher_subject_assignments WHERE id = $1`, assignmentColumns)
	var assignment models.TeacherSubjectAssignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ListByInstitution returns assignments for an institution, optionally by status.
func (r *AssignmentRepository) ListByInstitution(ctx context.Context, institutionID string, status models.AssignmentStatus) ([]models.TeacherSubjectAssignment, error) {
	base := fmt.Sprintf(`SELECT %s FROM teacher_subject_assignments WHERE institution_id = $1`, assignmentColumns)
	args := []interface{}{institutionID}
	if status != "" {
		base += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, status)
	}
	base += " ORDER BY created_at DESC, id ASC"

	var assignments []models.TeacherSubjectAssignment
	if err := r.db.SelectContext(ctx, &assignments, base, args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// ListByTeacher returns a teacher's assignments.
func (r *AssignmentRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherSubjectAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM teacher_subject_assignments WHERE teacher_id = $1 ORDER BY created_at DESC, id ASC`, assignmentColumns)
	var assignments []models.TeacherSubjectAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher assignments: %w", err)
	}
	return assignments, nil
}

// ExistsOpen reports whether a pending or approved assignment already links
// the teacher and subject.
func (r *AssignmentRepository) ExistsOpen(ctx context.Context, subjectID, teacherID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM teacher_subject_assignments WHERE subject_id = $1 AND teacher_id = $2 AND status IN ($3, $4)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, subjectID, teacherID, models.AssignmentPending, models.AssignmentApproved); err != nil {
		return false, fmt.Errorf("check open assignment: %w", err)
	}
	return count > 0, nil
}

// Create stores a new assignment request.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.TeacherSubjectAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.Status == "" {
		assignment.Status = models.AssignmentPending
	}
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now

	const query = `INSERT INTO teacher_subject_assignments (id, institution_id, subject_id, teacher_id, status, requested_by, created_at, updated_at)
		VALUES (:id, :institution_id, :subject_id, :teacher_id, :status, :requested_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Decide transitions a pending assignment to approved or declined.
func (r *AssignmentRepository) Decide(ctx context.Context, id string, status models.AssignmentStatus, decidedBy string, decidedAt time.Time) error {
	if status != models.AssignmentApproved && status != models.AssignmentDeclined {
		return fmt.Errorf("invalid decision status %q", strings.ToLower(string(status)))
	}
	const query = `UPDATE teacher_subject_assignments SET status = $2, decided_by = $3, decided_at = $4, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, decidedBy, decidedAt); err != nil {
		return fmt.Errorf("decide assignment: %w", err)
	}
	return nil
}
