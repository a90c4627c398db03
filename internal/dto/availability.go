package dto

// AvailabilityWindow is one declared window in a replace-all save.
type AvailabilityWindow struct {
	DayOfWeek   int    `json:"day_of_week" validate:"required,min=1,max=7"`
	StartTime   string `json:"start_time" validate:"required"`
	EndTime     string `json:"end_time" validate:"required"`
	IsAvailable bool   `json:"is_available"`
	Notes       string `json:"notes"`
}

// ReplaceAvailabilityRequest replaces a teacher's full availability set.
// There is no incremental update: the previous windows are deleted first.
type ReplaceAvailabilityRequest struct {
	Windows []AvailabilityWindow `json:"windows" validate:"dive"`
}
