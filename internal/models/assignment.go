package models

import "time"

// AssignmentStatus tracks the teacher-subject assignment workflow.
type AssignmentStatus string

const (
	AssignmentPending  AssignmentStatus = "pending"
	AssignmentApproved AssignmentStatus = "approved"
	AssignmentDeclined AssignmentStatus = "declined"
)

// TeacherSubjectAssignment links a teacher to a subject through a
// request/approval workflow.
type TeacherSubjectAssignment struct {
	ID            string           `db:"id" json:"id"`
	InstitutionID string           `db:"institution_id" json:"institution_id"`
	SubjectID     string           `db:"subject_id" json:"subject_id"`
	TeacherID     string           `db:"teacher_id" json:"teacher_id"`
	Status        AssignmentStatus `db:"status" json:"status"`
	RequestedBy   string           `db:"requested_by" json:"requested_by"`
	DecidedBy     *string          `db:"decided_by" json:"decided_by,omitempty"`
	DecidedAt     *time.Time       `db:"decided_at" json:"decided_at,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}
