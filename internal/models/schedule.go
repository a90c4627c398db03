package models

import "time"

// ScheduleStatus is the lifecycle state of a schedule.
type ScheduleStatus string

const (
	ScheduleStatusDraft     ScheduleStatus = "draft"
	ScheduleStatusPublished ScheduleStatus = "published"
)

// GenerationMethod records how a schedule's entries were produced.
type GenerationMethod string

const (
	GenerationManual GenerationMethod = "manual"
	GenerationAuto   GenerationMethod = "auto"
)

// Schedule is a named container for entries, scoped to an institution and a week.
type Schedule struct {
	ID               string           `db:"id" json:"id"`
	InstitutionID    string           `db:"institution_id" json:"institution_id"`
	Name             string           `db:"name" json:"name"`
	WeekStart        time.Time        `db:"week_start" json:"week_start"`
	WeekEnd          time.Time        `db:"week_end" json:"week_end"`
	Status           ScheduleStatus   `db:"status" json:"status"`
	GenerationMethod GenerationMethod `db:"generation_method" json:"generation_method"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// ScheduleEntry is one scheduled class meeting. Day numbering is ISO:
// 1=Monday through 7=Sunday. StartTime and EndTime are wall-clock "HH:MM"
// values forming a half-open interval [start, end).
type ScheduleEntry struct {
	ID         string    `db:"id" json:"id"`
	ScheduleID string    `db:"schedule_id" json:"schedule_id"`
	SubjectID  string    `db:"subject_id" json:"subject_id"`
	TeacherID  string    `db:"teacher_id" json:"teacher_id"`
	DayOfWeek  int       `db:"day_of_week" json:"day_of_week"`
	StartTime  string    `db:"start_time" json:"start_time"`
	EndTime    string    `db:"end_time" json:"end_time"`
	Room       *string   `db:"room" json:"room,omitempty"`
	Notes      *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ScheduleFilter describes query params for listing schedules.
type ScheduleFilter struct {
	InstitutionID string
	Status        string
	Search        string
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}
