package dto

// CandidateSlot is one assignable position in the weekly grid. Day numbering
// is 1=Monday through 7=Sunday; times are wall-clock "HH:MM".
type CandidateSlot struct {
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// SubjectDemand is the generator's view of a subject: an id and how many
// one-hour slots it needs per week.
type SubjectDemand struct {
	SubjectID    string `json:"subject_id"`
	Name         string `json:"name"`
	HoursPerWeek int    `json:"hours_per_week"`
}

// EntryDraft is a not-yet-persisted schedule entry produced by a strategy.
type EntryDraft struct {
	SubjectID string `json:"subject_id"`
	TeacherID string `json:"teacher_id"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Room      string `json:"room"`
}

// SubjectShortfall reports hours that could not be placed for one subject.
type SubjectShortfall struct {
	SubjectID  string `json:"subject_id"`
	Name       string `json:"name"`
	UnmetHours int    `json:"unmet_hours"`
}

// PlanResult is the outcome of a strategy pass: the drafted entries plus a
// per-subject account of demand the slot grid could not absorb.
type PlanResult struct {
	Entries    []EntryDraft       `json:"entries"`
	Shortfalls []SubjectShortfall `json:"shortfalls"`
}

// GenerateRequest triggers generation for one schedule.
type GenerateRequest struct {
	ScheduleID string `json:"schedule_id" validate:"required"`
}

// GenerateResponse summarises a generation run.
type GenerateResponse struct {
	ScheduleID      string             `json:"schedule_id"`
	EntriesCreated  int                `json:"entries_created"`
	Shortfalls      []SubjectShortfall `json:"shortfalls"`
	TotalUnmetHours int                `json:"total_unmet_hours"`
}
