package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadplan/acadplan-api/internal/models"
	"github.com/acadplan/acadplan-api/pkg/config"
)

type generatorScheduleStub struct {
	schedule      *models.Schedule
	methodUpdates []models.GenerationMethod
}

func (s *generatorScheduleStub) FindByID(_ context.Context, id string) (*models.Schedule, error) {
	if s.schedule == nil || s.schedule.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.schedule, nil
}

func (s *generatorScheduleStub) UpdateGenerationMethod(_ context.Context, _ string, method models.GenerationMethod) error {
	s.methodUpdates = append(s.methodUpdates, method)
	return nil
}

type generatorSubjectStub struct {
	subjects []models.Subject
	err      error
}

func (s *generatorSubjectStub) ListActiveByInstitution(_ context.Context, _ string) ([]models.Subject, error) {
	return s.subjects, s.err
}

type generatorTeacherStub struct {
	teacherIDs []string
	err        error
}

func (s *generatorTeacherStub) ListTeacherIDs(_ context.Context, _ string) ([]string, error) {
	return s.teacherIDs, s.err
}

type generatorEntryStub struct {
	created []models.ScheduleEntry
	err     error
}

func (s *generatorEntryStub) BulkCreate(_ context.Context, entries []models.ScheduleEntry) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, entries...)
	return nil
}

type invalidatorStub struct {
	calls int
}

func (s *invalidatorStub) InvalidateInstitution(_ context.Context, _ string) error {
	s.calls++
	return nil
}

func newGeneratorFixture(subjects []models.Subject, teacherIDs []string) (*GeneratorService, *generatorScheduleStub, *generatorEntryStub, *invalidatorStub) {
	schedules := &generatorScheduleStub{
		schedule: &models.Schedule{ID: "sched-1", InstitutionID: "inst-1", Status: models.ScheduleStatusDraft},
	}
	entries := &generatorEntryStub{}
	invalidator := &invalidatorStub{}
	svc := NewGeneratorService(
		schedules,
		&generatorSubjectStub{subjects: subjects},
		&generatorTeacherStub{teacherIDs: teacherIDs},
		entries,
		invalidator,
		nil,
		config.GeneratorConfig{SlotsPerDay: 2, Days: 5},
		nil,
	)
	return svc, schedules, entries, invalidator
}

func TestGeneratePersistsEntriesAndMarksAuto(t *testing.T) {
	subjects := []models.Subject{
		{ID: "math", Name: "Mathematics", HoursPerWeek: 3},
		{ID: "physics", Name: "Physics", HoursPerWeek: 2},
	}
	svc, schedules, entries, invalidator := newGeneratorFixture(subjects, []string{"t1", "t2"})

	resp, err := svc.Generate(context.Background(), "inst-1", "sched-1")
	require.NoError(t, err)
	assert.Equal(t, 5, resp.EntriesCreated)
	assert.Empty(t, resp.Shortfalls)
	assert.Zero(t, resp.TotalUnmetHours)

	require.Len(t, entries.created, 5)
	for i, entry := range entries.created {
		assert.Equal(t, "sched-1", entry.ScheduleID, "entry %d", i)
		require.NotNil(t, entry.Room)
	}
	assert.Equal(t, "t2", entries.created[3].TeacherID, "rotation crosses subject boundary")

	require.Len(t, schedules.methodUpdates, 1)
	assert.Equal(t, models.GenerationAuto, schedules.methodUpdates[0])
	assert.Equal(t, 1, invalidator.calls)
}

func TestGenerateEmptyTeacherPoolIsNoop(t *testing.T) {
	subjects := []models.Subject{{ID: "math", Name: "Mathematics", HoursPerWeek: 3}}
	svc, schedules, entries, invalidator := newGeneratorFixture(subjects, nil)

	resp, err := svc.Generate(context.Background(), "inst-1", "sched-1")
	require.NoError(t, err)
	assert.Zero(t, resp.EntriesCreated)
	assert.Empty(t, entries.created)
	assert.Empty(t, schedules.methodUpdates)
	assert.Zero(t, invalidator.calls)
}

func TestGenerateReportsUnmetHours(t *testing.T) {
	subjects := []models.Subject{
		{ID: "math", Name: "Mathematics", HoursPerWeek: 8},
		{ID: "physics", Name: "Physics", HoursPerWeek: 8},
	}
	svc, _, entries, _ := newGeneratorFixture(subjects, []string{"t1"})

	resp, err := svc.Generate(context.Background(), "inst-1", "sched-1")
	require.NoError(t, err)
	assert.Equal(t, 10, resp.EntriesCreated, "grid caps placement")
	assert.Len(t, entries.created, 10)

	require.Len(t, resp.Shortfalls, 1)
	assert.Equal(t, "physics", resp.Shortfalls[0].SubjectID)
	assert.Equal(t, 6, resp.Shortfalls[0].UnmetHours)
	assert.Equal(t, 6, resp.TotalUnmetHours)
}

func TestGenerateRejectsPublishedSchedule(t *testing.T) {
	svc, schedules, entries, _ := newGeneratorFixture(nil, []string{"t1"})
	schedules.schedule.Status = models.ScheduleStatusPublished

	_, err := svc.Generate(context.Background(), "inst-1", "sched-1")
	require.Error(t, err)
	assert.Empty(t, entries.created)
}

func TestGenerateRejectsForeignInstitution(t *testing.T) {
	svc, _, entries, _ := newGeneratorFixture(nil, []string{"t1"})

	_, err := svc.Generate(context.Background(), "inst-2", "sched-1")
	require.Error(t, err)
	assert.Empty(t, entries.created)
}

func TestGenerateAbortsBeforeWriteOnFetchFailure(t *testing.T) {
	schedules := &generatorScheduleStub{
		schedule: &models.Schedule{ID: "sched-1", InstitutionID: "inst-1", Status: models.ScheduleStatusDraft},
	}
	entries := &generatorEntryStub{}
	svc := NewGeneratorService(
		schedules,
		&generatorSubjectStub{err: errors.New("db down")},
		&generatorTeacherStub{teacherIDs: []string{"t1"}},
		entries,
		nil,
		nil,
		config.GeneratorConfig{SlotsPerDay: 2, Days: 5},
		nil,
	)

	_, err := svc.Generate(context.Background(), "inst-1", "sched-1")
	require.Error(t, err)
	assert.Empty(t, entries.created)
	assert.Empty(t, schedules.methodUpdates)
}
