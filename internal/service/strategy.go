package service

import (
	"fmt"

	"github.com/acadplan/acadplan-api/internal/dto"
	"github.com/acadplan/acadplan-api/pkg/config"
)

// SchedulingStrategy turns subject demand into entry drafts over a fixed slot
// grid. RoundRobinStrategy is the only implementation today; a constraint
// solver can slot in behind the same interface later.
type SchedulingStrategy interface {
	Plan(subjects []dto.SubjectDemand, slots []dto.CandidateSlot, teacherIDs []string) dto.PlanResult
}

// RoundRobinStrategy fills slots first-come-first-served and rotates through
// the teacher pool with a single shared cursor.
type RoundRobinStrategy struct{}

// NewRoundRobinStrategy creates the default strategy.
func NewRoundRobinStrategy() *RoundRobinStrategy {
	return &RoundRobinStrategy{}
}

// Plan walks subjects in the order given, consuming one slot per required hour.
// The slot cursor is shared across subjects, so teacher rotation and room
// numbering continue across subject boundaries. When the grid runs out the
// remaining demand is reported as shortfall rather than placed.
func (s *RoundRobinStrategy) Plan(subjects []dto.SubjectDemand, slots []dto.CandidateSlot, teacherIDs []string) dto.PlanResult {
	result := dto.PlanResult{}
	if len(teacherIDs) == 0 {
		return result
	}

	slotIndex := 0
	for _, subject := range subjects {
		placed := 0
		for hour := 0; hour < subject.HoursPerWeek; hour++ {
			if slotIndex >= len(slots) {
				break
			}
			slot := slots[slotIndex]
			result.Entries = append(result.Entries, dto.EntryDraft{
				SubjectID: subject.SubjectID,
				TeacherID: teacherIDs[slotIndex%len(teacherIDs)],
				DayOfWeek: slot.DayOfWeek,
				StartTime: slot.StartTime,
				EndTime:   slot.EndTime,
				Room:      fmt.Sprintf("Room %d", slotIndex+1),
			})
			slotIndex++
			placed++
		}
		if placed < subject.HoursPerWeek {
			result.Shortfalls = append(result.Shortfalls, dto.SubjectShortfall{
				SubjectID:  subject.SubjectID,
				Name:       subject.Name,
				UnmetHours: subject.HoursPerWeek - placed,
			})
		}
	}
	return result
}

// defaultCandidateSlots builds the weekly grid: for each weekday (Monday
// first) a morning block 08:00-09:00 and a late-morning block 10:00-11:00,
// extended by one hour per extra slot configured beyond two.
func defaultCandidateSlots(cfg config.GeneratorConfig) []dto.CandidateSlot {
	days := cfg.Days
	if days < 1 || days > 7 {
		days = 5
	}
	perDay := cfg.SlotsPerDay
	if perDay < 1 {
		perDay = 2
	}

	starts := []string{"08:00", "10:00", "11:00", "13:00", "14:00", "15:00", "16:00", "17:00"}
	ends := []string{"09:00", "11:00", "12:00", "14:00", "15:00", "16:00", "17:00", "18:00"}
	if perDay > len(starts) {
		perDay = len(starts)
	}

	slots := make([]dto.CandidateSlot, 0, days*perDay)
	for day := 1; day <= days; day++ {
		for i := 0; i < perDay; i++ {
			slots = append(slots, dto.CandidateSlot{
				DayOfWeek: day,
				StartTime: starts[i],
				EndTime:   ends[i],
			})
		}
	}
	return slots
}
