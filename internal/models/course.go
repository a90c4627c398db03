package models

import "time"

// Course groups subjects under a grade level within an institution.
type Course struct {
	ID            string    `db:"id" json:"id"`
	InstitutionID string    `db:"institution_id" json:"institution_id"`
	Name          string    `db:"name" json:"name"`
	GradeLevel    string    `db:"grade_level" json:"grade_level"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter captures supported filters for listing courses.
type CourseFilter struct {
	InstitutionID string
	Active        *bool
	Search        string
	Page          int
	PageSize      int
}
