package models

import "time"

// Subject is a unit of curriculum with a weekly hour requirement.
// HoursPerWeek counts the number of one-hour slots the subject needs each week.
type Subject struct {
	ID            string    `db:"id" json:"id"`
	InstitutionID string    `db:"institution_id" json:"institution_id"`
	CourseID      string    `db:"course_id" json:"course_id"`
	Name          string    `db:"name" json:"name"`
	HoursPerWeek  int       `db:"hours_per_week" json:"hours_per_week"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	InstitutionID string
	CourseID      string
	Active        *bool
	Search        string
	Page          int
	PageSize      int
}
