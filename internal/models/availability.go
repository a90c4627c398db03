package models

import "time"

// TeacherAvailability is a declared window in which a teacher is (or is not)
// willing to teach. Multiple windows per teacher per day are allowed; the set
// for a teacher is replaced wholesale on every save.
type TeacherAvailability struct {
	ID            string    `db:"id" json:"id"`
	TeacherID     string    `db:"teacher_id" json:"teacher_id"`
	InstitutionID string    `db:"institution_id" json:"institution_id"`
	DayOfWeek     int       `db:"day_of_week" json:"day_of_week"`
	StartTime     string    `db:"start_time" json:"start_time"`
	EndTime       string    `db:"end_time" json:"end_time"`
	IsAvailable   bool      `db:"is_available" json:"is_available"`
	Notes         *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
