package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadplan/acadplan-api/internal/dto"
	"github.com/acadplan/acadplan-api/pkg/config"
)

func weeklySlots(t *testing.T) []dto.CandidateSlot {
	t.Helper()
	slots := defaultCandidateSlots(config.GeneratorConfig{SlotsPerDay: 2, Days: 5})
	require.Len(t, slots, 10)
	return slots
}

func TestDefaultCandidateSlotsGrid(t *testing.T) {
	slots := weeklySlots(t)

	assert.Equal(t, dto.CandidateSlot{DayOfWeek: 1, StartTime: "08:00", EndTime: "09:00"}, slots[0])
	assert.Equal(t, dto.CandidateSlot{DayOfWeek: 1, StartTime: "10:00", EndTime: "11:00"}, slots[1])
	assert.Equal(t, dto.CandidateSlot{DayOfWeek: 5, StartTime: "10:00", EndTime: "11:00"}, slots[9])
}

func TestRoundRobinRotatesTeachersAcrossSubjects(t *testing.T) {
	strategy := NewRoundRobinStrategy()
	subjects := []dto.SubjectDemand{
		{SubjectID: "math", Name: "Mathematics", HoursPerWeek: 3},
		{SubjectID: "physics", Name: "Physics", HoursPerWeek: 2},
	}
	teachers := []string{"t1", "t2"}

	result := strategy.Plan(subjects, weeklySlots(t), teachers)
	require.Len(t, result.Entries, 5)
	assert.Empty(t, result.Shortfalls)

	// one shared cursor: rotation continues across the subject boundary
	for i, entry := range result.Entries {
		assert.Equal(t, teachers[i%2], entry.TeacherID, "entry %d", i)
	}
	assert.Equal(t, "physics", result.Entries[3].SubjectID)
	assert.Equal(t, "t2", result.Entries[3].TeacherID)
}

func TestRoundRobinRoomNumberFollowsSlotIndex(t *testing.T) {
	strategy := NewRoundRobinStrategy()
	subjects := []dto.SubjectDemand{{SubjectID: "math", Name: "Mathematics", HoursPerWeek: 4}}

	result := strategy.Plan(subjects, weeklySlots(t), []string{"t1"})
	require.Len(t, result.Entries, 4)
	for i, entry := range result.Entries {
		assert.Equal(t, fmt.Sprintf("Room %d", i+1), entry.Room)
	}
}

func TestRoundRobinEmptyTeacherPoolIsNoop(t *testing.T) {
	strategy := NewRoundRobinStrategy()
	subjects := []dto.SubjectDemand{{SubjectID: "math", Name: "Mathematics", HoursPerWeek: 4}}

	result := strategy.Plan(subjects, weeklySlots(t), nil)
	assert.Empty(t, result.Entries)
	assert.Empty(t, result.Shortfalls)
}

func TestRoundRobinReportsShortfallOnExhaustedGrid(t *testing.T) {
	strategy := NewRoundRobinStrategy()
	subjects := []dto.SubjectDemand{
		{SubjectID: "math", Name: "Mathematics", HoursPerWeek: 6},
		{SubjectID: "physics", Name: "Physics", HoursPerWeek: 6},
		{SubjectID: "history", Name: "History", HoursPerWeek: 3},
	}

	result := strategy.Plan(subjects, weeklySlots(t), []string{"t1", "t2", "t3"})
	require.Len(t, result.Entries, 10, "placement stops when the grid is exhausted")

	require.Len(t, result.Shortfalls, 2)
	assert.Equal(t, dto.SubjectShortfall{SubjectID: "physics", Name: "Physics", UnmetHours: 2}, result.Shortfalls[0])
	assert.Equal(t, dto.SubjectShortfall{SubjectID: "history", Name: "History", UnmetHours: 3}, result.Shortfalls[1])
}

func TestRoundRobinDeterministic(t *testing.T) {
	strategy := NewRoundRobinStrategy()
	subjects := []dto.SubjectDemand{
		{SubjectID: "math", Name: "Mathematics", HoursPerWeek: 5},
		{SubjectID: "physics", Name: "Physics", HoursPerWeek: 5},
	}
	teachers := []string{"t1", "t2", "t3"}

	first := strategy.Plan(subjects, weeklySlots(t), teachers)
	second := strategy.Plan(subjects, weeklySlots(t), teachers)
	assert.Equal(t, first, second)
}
