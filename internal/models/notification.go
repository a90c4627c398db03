package models

import "time"

// NotificationKind labels what triggered a notification.
type NotificationKind string

const (
	NotificationAssignmentDecided   NotificationKind = "assignment_decided"
	NotificationAssignmentRequested NotificationKind = "assignment_requested"
	NotificationSchedulePublished   NotificationKind = "schedule_published"
)

// Notification is an in-app message for a single user.
type Notification struct {
	ID            string           `db:"id" json:"id"`
	InstitutionID string           `db:"institution_id" json:"institution_id"`
	UserID        string           `db:"user_id" json:"user_id"`
	Kind          NotificationKind `db:"kind" json:"kind"`
	Title         string           `db:"title" json:"title"`
	Body          string           `db:"body" json:"body"`
	ReadAt        *time.Time       `db:"read_at" json:"read_at,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
}
