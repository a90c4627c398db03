package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadplan/acadplan-api/internal/dto"
	"github.com/acadplan/acadplan-api/internal/models"
)

type scheduleRepoStub struct {
	schedules map[string]*models.Schedule
	published []string
	err       error
}

func (s *scheduleRepoStub) FindByID(_ context.Context, id string) (*models.Schedule, error) {
	if s.err != nil {
		return nil, s.err
	}
	sched, ok := s.schedules[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return sched, nil
}

func (s *scheduleRepoStub) ListPublishedIDs(_ context.Context, _ string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.published, nil
}

type entryRepoStub struct {
	entries map[string][]models.ScheduleEntry
	err     error
}

func (s *entryRepoStub) ListBySchedule(_ context.Context, scheduleID string) ([]models.ScheduleEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.entries[scheduleID], nil
}

type availabilityRepoStub struct {
	windows map[string][]models.TeacherAvailability
	err     error
}

func (s *availabilityRepoStub) ListByTeacher(_ context.Context, _, teacherID string) ([]models.TeacherAvailability, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.windows[teacherID], nil
}

type conflictRecordStub struct {
	created []*models.ScheduleConflict
	listed  []models.ScheduleConflict
}

func (s *conflictRecordStub) Create(_ context.Context, conflict *models.ScheduleConflict) error {
	s.created = append(s.created, conflict)
	return nil
}

func (s *conflictRecordStub) ListBySchedule(_ context.Context, _ string) ([]models.ScheduleConflict, error) {
	return s.listed, nil
}

type reportCacheStub struct {
	report   *dto.ConflictReport
	getErr   error
	setErr   error
	setCalls int
}

func (s *reportCacheStub) GetReport(_ context.Context, _ string, _ []string) (*dto.ConflictReport, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.report, nil
}

func (s *reportCacheStub) SetReport(_ context.Context, _ string, _ []string, report *dto.ConflictReport) error {
	s.setCalls++
	if s.setErr != nil {
		return s.setErr
	}
	s.report = report
	return nil
}

func entryWithRoom(id, scheduleID, teacherID string, day int, start, end, room string) models.ScheduleEntry {
	entry := models.ScheduleEntry{
		ID:         id,
		ScheduleID: scheduleID,
		SubjectID:  "subj-" + id,
		TeacherID:  teacherID,
		DayOfWeek:  day,
		StartTime:  start,
		EndTime:    end,
	}
	if room != "" {
		entry.Room = &room
	}
	return entry
}

func newConflictFixture(entries []models.ScheduleEntry, windows map[string][]models.TeacherAvailability, cache *reportCacheStub) (*ConflictService, *conflictRecordStub) {
	schedules := &scheduleRepoStub{
		schedules: map[string]*models.Schedule{
			"sched-1": {ID: "sched-1", InstitutionID: "inst-1", Status: models.ScheduleStatusDraft},
		},
	}
	records := &conflictRecordStub{}
	svc := NewConflictService(
		schedules,
		&entryRepoStub{entries: map[string][]models.ScheduleEntry{"sched-1": entries}},
		&availabilityRepoStub{windows: windows},
		records,
		cacheOrNil(cache),
		nil,
		nil,
	)
	return svc, records
}

func cacheOrNil(cache *reportCacheStub) conflictReportCache {
	if cache == nil {
		return nil
	}
	return cache
}

func TestDetectTeacherDoubleBooking(t *testing.T) {
	entries := []models.ScheduleEntry{
		entryWithRoom("e1", "sched-1", "teacher-1", 1, "08:00", "09:00", "Room 1"),
		entryWithRoom("e2", "sched-1", "teacher-1", 1, "08:30", "09:30", "Room 2"),
	}
	svc, _ := newConflictFixture(entries, nil, nil)

	report, err := svc.DetectForSchedule(context.Background(), "inst-1", "sched-1")
	require.NoError(t, err)
	require.Len(t, report.Conflicts, 1)
	conflict := report.Conflicts[0]
	assert.Equal(t, models.ConflictTeacherDoubleBooking, conflict.ConflictType)
	assert.Equal(t, []string{"e1", "e2"}, conflict.EntryIDs)
}

func TestDetectBoundaryTouchIsNotOverlap(t *testing.T) {
	entries := []models.ScheduleEntry{
		entryWithRoom("e1", "sched-1", "teacher-1", 1, "08:00", "09:00", "Room 1"),
		entryWithRoom("e2", "sched-1", "teacher-1", 1, "09:00", "10:00", "Room 1"),
	}
	svc, _ := newConflictFixture(entries, nil, nil)

	report, err := svc.DetectForSchedule(context.Background(), "inst-1", "sched-1")
	require.NoError(t, err)
	assert.Empty(t, report.Conflicts)
}

func TestDetectDifferentDaysNeverConflict(t *testing.T) {
	entries := []models.ScheduleEntry{
		entryWithRoom("e1", "sched-1", "teacher-1", 1, "08:00", "09:00", "Room 1"),
		entryWithRoom("e2", "sched-1", "teacher-1", 2, "08:00", "09:00", "Room 1"),
	}
	svc, _ := newConflictFixture(entries, nil, nil)

	report, err := svc.DetectForSchedule(context.Background(), "inst-1", "sched-1")
	require.NoError(t, err)
	assert.Empty(t, report.Conflicts)
}

func TestDetectEachPairReportedOnce(t *testing.T) {
	entries := []models.ScheduleEntry{
		entryWithRoom("e1", "sched-1", "teacher-1", 1, "08:00", "10:00", ""),
		entryWithRoom("e2", "sched-1", "teacher-1", 1, "08:30", "10:30", ""),
		entryWithRoom("e3", "sched-1", "teacher-1", 1, "09:00", "11:00", ""),
	}
	svc, _ := newConflictFixture(entries, nil, nil)

	report, err := svc.DetectForSchedule(context.Background(), "inst-1", "sched-1")
	require.NoError(t, err)
	require.Len(t, report.Conflicts, 3)

	seen := make(map[string]bool)
	for _, conflict := range report.Conflicts {
		require.Len(t, conflict.EntryIDs, 2)
		key := conflict.EntryIDs[0] + "|" + conflict.EntryIDs[1]
		assert.False(t, seen[key], "pair reported twice: %s", key)
		seen[key] = true
	}
}

func TestDetectRoomDoubleBooking(t *testing.T) {
	entries := []models.ScheduleEntry{
		entryWithRoom("e1", "sched-1", "teacher-1", 1, "08:00", "09:00", "Room 1"),
		entryWithRoom("e2", "sched-1", "teacher-2", 1, "08:30", "09:30", "Room 1"),
	}
	svc, _ := newConflictFixture(entries, nil, nil)

	report, err := svc.DetectForSchedule(context.Background(), "inst-1", "sched-1")
	require.NoError(t, err)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, models.ConflictRoomDoubleBooking, report.Conflicts[0].ConflictType)
}

func TestDetectMissingRoomsNeverRoomConflict(t *testing.T) {
	entries := []models.ScheduleEntry{
		entryWithRoom("e1", "sched-1", "teacher-1", 1, "08:00", "09:00", ""),
		entryWithRoom("e2", "sched-1", "teacher-2", 1, "08:30", "09:30", ""),
	}
	svc, _ := newConflictFixture(entries, nil, nil)

	report, err := svc.DetectForSchedule(context.Background(), "inst-1", "sched-1")
	require.NoError(t, err)
	assert.Empty(t, report.Conflicts)
}

func TestDetectAvailabilityViolations(t *testing.T) {
	windows := map[string][]models.TeacherAvailability{
		"teacher-1": {
			{TeacherID: "teacher-1", DayOfWeek: 1, StartTime: "08:00", EndTime: "12:00", IsAvailable: true},
		},
		"teacher-2": {
			{TeacherID: "teacher-2", DayOfWeek: 1, StartTime: "08:00", EndTime: "17:00", IsAvailable: true},
			{TeacherID: "teacher-2", DayOfWeek: 1, StartTime: "12:00", EndTime: "13:00", IsAvailable: false},
		},
	}
	entries := []models.ScheduleEntry{
		// inside teacher-1's window
		entryWithRoom("e1", "sched-1", "teacher-1", 1, "08:00", "09:00", "Room 1"),
		// outside teacher-1's window
		entryWithRoom("e2", "sched-1", "teacher-1", 1, "13:00", "14:00", "Room 2"),
		// overlaps teacher-2's unavailable block
		entryWithRoom("e3", "sched-1", "teacher-2", 1, "12:30", "13:30", "Room 3"),
		// teacher-3 declared nothing, unconstrained
		entryWithRoom("e4", "sched-1", "teacher-3", 1, "20:00", "21:00", "Room 4"),
	}
	svc, _ := newConflictFixture(entries, windows, nil)

	report, err := svc.DetectForSchedule(context.Background(), "inst-1", "sched-1")
	require.NoError(t, err)

	var violations []models.Conflict
	for _, conflict := range report.Conflicts {
		if conflict.ConflictType == models.ConflictTeacherAvailability {
			violations = append(violations, conflict)
		}
	}
	require.Len(t, violations, 2)
	assert.Equal(t, []string{"e2"}, violations[0].EntryIDs)
	assert.Equal(t, []string{"e3"}, violations[1].EntryIDs)
}

func TestDetectDeterministicAcrossCalls(t *testing.T) {
	entries := []models.ScheduleEntry{
		entryWithRoom("e1", "sched-1", "teacher-1", 1, "08:00", "10:00", "Room 1"),
		entryWithRoom("e2", "sched-1", "teacher-1", 1, "09:00", "11:00", "Room 1"),
		entryWithRoom("e3", "sched-1", "teacher-2", 1, "09:30", "10:30", "Room 1"),
	}
	svc, _ := newConflictFixture(entries, nil, nil)

	first, err := svc.DetectForSchedule(context.Background(), "inst-1", "sched-1")
	require.NoError(t, err)
	second, err := svc.DetectForSchedule(context.Background(), "inst-1", "sched-1")
	require.NoError(t, err)
	assert.Equal(t, first.Conflicts, second.Conflicts)
}

func TestDetectGroupsTeacherConflictsBeforeRoom(t *testing.T) {
	entries := []models.ScheduleEntry{
		entryWithRoom("e1", "sched-1", "teacher-1", 1, "08:00", "09:00", "Room 1"),
		entryWithRoom("e2", "sched-1", "teacher-2", 1, "08:30", "09:30", "Room 1"),
		entryWithRoom("e3", "sched-1", "teacher-2", 2, "08:00", "09:00", "Room 2"),
		entryWithRoom("e4", "sched-1", "teacher-2", 2, "08:30", "09:30", "Room 3"),
	}
	svc, _ := newConflictFixture(entries, nil, nil)

	report, err := svc.DetectForSchedule(context.Background(), "inst-1", "sched-1")
	require.NoError(t, err)
	require.Len(t, report.Conflicts, 2)
	assert.Equal(t, models.ConflictTeacherDoubleBooking, report.Conflicts[0].ConflictType)
	assert.Equal(t, models.ConflictRoomDoubleBooking, report.Conflicts[1].ConflictType)
}

func TestDetectUsesCachedReport(t *testing.T) {
	cached := &dto.ConflictReport{
		ScheduleIDs: []string{"sched-1"},
		Conflicts:   []models.Conflict{},
	}
	cache := &reportCacheStub{report: cached}
	entries := []models.ScheduleEntry{
		entryWithRoom("e1", "sched-1", "teacher-1", 1, "08:00", "09:00", "Room 1"),
		entryWithRoom("e2", "sched-1", "teacher-1", 1, "08:30", "09:30", "Room 1"),
	}
	svc, _ := newConflictFixture(entries, nil, cache)

	report, err := svc.DetectForSchedule(context.Background(), "inst-1", "sched-1")
	require.NoError(t, err)
	assert.True(t, report.FromCache)
	assert.Empty(t, report.Conflicts, "cached report wins over recomputation")
}

func TestDetectRecomputesWhenCacheFails(t *testing.T) {
	cache := &reportCacheStub{getErr: errors.New("redis down"), setErr: errors.New("redis down")}
	entries := []models.ScheduleEntry{
		entryWithRoom("e1", "sched-1", "teacher-1", 1, "08:00", "09:00", ""),
		entryWithRoom("e2", "sched-1", "teacher-1", 1, "08:30", "09:30", ""),
	}
	svc, _ := newConflictFixture(entries, nil, cache)

	report, err := svc.DetectForSchedule(context.Background(), "inst-1", "sched-1")
	require.NoError(t, err)
	assert.False(t, report.FromCache)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, 1, cache.setCalls)
}

func TestDetectFailsWhenEntriesUnavailable(t *testing.T) {
	schedules := &scheduleRepoStub{
		schedules: map[string]*models.Schedule{
			"sched-1": {ID: "sched-1", InstitutionID: "inst-1"},
		},
	}
	svc := NewConflictService(schedules, &entryRepoStub{err: errors.New("db down")}, &availabilityRepoStub{}, &conflictRecordStub{}, nil, nil, nil)

	_, err := svc.DetectForSchedule(context.Background(), "inst-1", "sched-1")
	require.Error(t, err)
}

func TestDetectRejectsForeignInstitution(t *testing.T) {
	svc, _ := newConflictFixture(nil, nil, nil)

	_, err := svc.DetectForSchedule(context.Background(), "inst-2", "sched-1")
	require.Error(t, err)
}

func TestDetectPublishedSpansSchedules(t *testing.T) {
	schedules := &scheduleRepoStub{
		published: []string{"sched-1", "sched-2"},
	}
	entries := &entryRepoStub{entries: map[string][]models.ScheduleEntry{
		"sched-1": {entryWithRoom("e1", "sched-1", "teacher-1", 1, "08:00", "09:00", "")},
		"sched-2": {entryWithRoom("e2", "sched-2", "teacher-1", 1, "08:30", "09:30", "")},
	}}
	svc := NewConflictService(schedules, entries, &availabilityRepoStub{}, &conflictRecordStub{}, nil, nil, nil)

	report, err := svc.DetectPublished(context.Background(), "inst-1")
	require.NoError(t, err)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, models.ConflictTeacherDoubleBooking, report.Conflicts[0].ConflictType)
	assert.ElementsMatch(t, []string{"e1", "e2"}, report.Conflicts[0].EntryIDs)
}

func TestResolveRecordsResolvedConflict(t *testing.T) {
	svc, records := newConflictFixture(nil, nil, nil)

	record, err := svc.Resolve(context.Background(), "inst-1", "user-1", dto.ResolveConflictRequest{
		ScheduleID:   "sched-1",
		ConflictType: "teacher_double_booking",
		Description:  "handled by swapping rooms",
		EntryIDs:     []string{"e1", "e2"},
	})
	require.NoError(t, err)
	require.Len(t, records.created, 1)
	assert.True(t, record.IsResolved)
	require.NotNil(t, record.ResolvedBy)
	assert.Equal(t, "user-1", *record.ResolvedBy)
	assert.NotNil(t, record.ResolvedAt)
}

func TestResolveRejectsUnknownType(t *testing.T) {
	svc, _ := newConflictFixture(nil, nil, nil)

	_, err := svc.Resolve(context.Background(), "inst-1", "user-1", dto.ResolveConflictRequest{
		ScheduleID:   "sched-1",
		ConflictType: "weather",
		Description:  "x",
		EntryIDs:     []string{"e1"},
	})
	require.Error(t, err)
}
