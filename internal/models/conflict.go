package models

import (
	"time"

	"github.com/lib/pq"
)

// ConflictType classifies a detected scheduling problem.
type ConflictType string

const (
	ConflictTeacherDoubleBooking ConflictType = "teacher_double_booking"
	ConflictRoomDoubleBooking    ConflictType = "room_double_booking"
	ConflictTeacherAvailability  ConflictType = "teacher_availability"
)

// Conflict is a detected problem, computed on demand and never persisted as-is.
// EntryIDs holds the ids of the entries involved: two for double bookings, one
// for an availability violation.
type Conflict struct {
	ConflictType ConflictType `json:"conflict_type"`
	Description  string       `json:"description"`
	EntryIDs     []string     `json:"entry_ids"`
	ScheduleID   string       `json:"schedule_id"`
}

// ScheduleConflict is the persisted form of a conflict, created only when a
// user explicitly records one as resolved.
type ScheduleConflict struct {
	ID           string         `db:"id" json:"id"`
	ScheduleID   string         `db:"schedule_id" json:"schedule_id"`
	ConflictType ConflictType   `db:"conflict_type" json:"conflict_type"`
	Description  string         `db:"description" json:"description"`
	EntryIDs     pq.StringArray `db:"entry_ids" json:"entry_ids"`
	IsResolved   bool           `db:"is_resolved" json:"is_resolved"`
	ResolvedBy   *string        `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt   *time.Time     `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}
