package dto

import "github.com/acadplan/acadplan-api/internal/models"

// ConflictReport is the caller-facing result of one detection pass.
type ConflictReport struct {
	ScheduleIDs []string          `json:"schedule_ids"`
	Conflicts   []models.Conflict `json:"conflicts"`
	FromCache   bool              `json:"from_cache"`
}

// ResolveConflictRequest records a detected conflict as resolved.
type ResolveConflictRequest struct {
	ScheduleID   string   `json:"schedule_id" validate:"required"`
	ConflictType string   `json:"conflict_type" validate:"required,oneof=teacher_double_booking room_double_booking teacher_availability"`
	Description  string   `json:"description" validate:"required"`
	EntryIDs     []string `json:"entry_ids" validate:"required,min=1"`
}
