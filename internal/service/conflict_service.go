package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/acadplan/acadplan-api/internal/dto"
	"github.com/acadplan/acadplan-api/internal/models"
	"github.com/acadplan/acadplan-api/internal/repository"
	appErrors "github.com/acadplan/acadplan-api/pkg/errors"
)

type conflictScheduleRepository interface {
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	ListPublishedIDs(ctx context.Context, institutionID string) ([]string, error)
}

type conflictEntryRepository interface {
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.ScheduleEntry, error)
}

type conflictAvailabilityRepository interface {
	ListByTeacher(ctx context.Context, institutionID, teacherID string) ([]models.TeacherAvailability, error)
}

type conflictRecordRepository interface {
	Create(ctx context.Context, conflict *models.ScheduleConflict) error
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.ScheduleConflict, error)
}

type conflictReportCache interface {
	GetReport(ctx context.Context, institutionID string, scheduleIDs []string) (*dto.ConflictReport, error)
	SetReport(ctx context.Context, institutionID string, scheduleIDs []string, report *dto.ConflictReport) error
}

// ConflictService detects scheduling conflicts and records resolutions.
// Detection is a pure read: it never mutates schedules or entries.
type ConflictService struct {
	schedules    conflictScheduleRepository
	entries      conflictEntryRepository
	availability conflictAvailabilityRepository
	records      conflictRecordRepository
	cache        conflictReportCache
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewConflictService instantiates ConflictService. The cache is optional; a
// nil cache disables report caching entirely.
func NewConflictService(
	schedules conflictScheduleRepository,
	entries conflictEntryRepository,
	availability conflictAvailabilityRepository,
	records conflictRecordRepository,
	cache conflictReportCache,
	validate *validator.Validate,
	logger *zap.Logger,
) *ConflictService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{
		schedules:    schedules,
		entries:      entries,
		availability: availability,
		records:      records,
		cache:        cache,
		validator:    validate,
		logger:       logger,
	}
}

// DetectForSchedule runs detection over a single schedule.
func (s *ConflictService) DetectForSchedule(ctx context.Context, institutionID, scheduleID string) (*dto.ConflictReport, error) {
	sched, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if sched.InstitutionID != institutionID {
		return nil, appErrors.ErrWrongInstitution
	}
	return s.detect(ctx, institutionID, []string{scheduleID})
}

// DetectPublished runs detection across every published schedule of the
// institution, surfacing cross-schedule double bookings.
func (s *ConflictService) DetectPublished(ctx context.Context, institutionID string) (*dto.ConflictReport, error) {
	ids, err := s.schedules.ListPublishedIDs(ctx, institutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list published schedules")
	}
	if len(ids) == 0 {
		return &dto.ConflictReport{ScheduleIDs: []string{}, Conflicts: []models.Conflict{}}, nil
	}
	return s.detect(ctx, institutionID, ids)
}

func (s *ConflictService) detect(ctx context.Context, institutionID string, scheduleIDs []string) (*dto.ConflictReport, error) {
	if s.cache != nil {
		cached, err := s.cache.GetReport(ctx, institutionID, scheduleIDs)
		if err == nil {
			cached.FromCache = true
			return cached, nil
		}
		if !errors.Is(err, repository.ErrCacheMiss) {
			s.logger.Warn("conflict cache read failed, recomputing", zap.Error(err))
		}
	}

	var all []models.ScheduleEntry
	for _, scheduleID := range scheduleIDs {
		entries, err := s.entries.ListBySchedule(ctx, scheduleID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule entries")
		}
		all = append(all, entries...)
	}

	conflicts := pairwiseConflicts(all)

	availabilityConflicts, err := s.availabilityConflicts(ctx, institutionID, all)
	if err != nil {
		return nil, err
	}
	conflicts = append(conflicts, availabilityConflicts...)

	report := &dto.ConflictReport{
		ScheduleIDs: scheduleIDs,
		Conflicts:   conflicts,
	}
	if report.Conflicts == nil {
		report.Conflicts = []models.Conflict{}
	}

	if s.cache != nil {
		if err := s.cache.SetReport(ctx, institutionID, scheduleIDs, report); err != nil {
			s.logger.Warn("conflict cache write failed", zap.Error(err))
		}
	}
	return report, nil
}

// pairwiseConflicts scans unordered entry pairs for teacher and room double
// bookings. Entries arrive already ordered (day, start, id), so the i<j loop
// yields each pair exactly once and in stable order. Teacher conflicts come
// out grouped before room conflicts.
func pairwiseConflicts(entries []models.ScheduleEntry) []models.Conflict {
	var teacherConflicts, roomConflicts []models.Conflict

	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			a, b := entries[i], entries[j]
			if a.DayOfWeek != b.DayOfWeek {
				continue
			}
			if !overlaps(mustClock(a.StartTime), mustClock(a.EndTime), mustClock(b.StartTime), mustClock(b.EndTime)) {
				continue
			}

			if a.TeacherID == b.TeacherID {
				teacherConflicts = append(teacherConflicts, models.Conflict{
					ConflictType: models.ConflictTeacherDoubleBooking,
					Description: fmt.Sprintf("teacher %s has overlapping entries on day %d (%s-%s and %s-%s)",
						a.TeacherID, a.DayOfWeek, a.StartTime, a.EndTime, b.StartTime, b.EndTime),
					EntryIDs:   []string{a.ID, b.ID},
					ScheduleID: a.ScheduleID,
				})
			}
			if roomOf(a) != "" && roomOf(a) == roomOf(b) {
				roomConflicts = append(roomConflicts, models.Conflict{
					ConflictType: models.ConflictRoomDoubleBooking,
					Description: fmt.Sprintf("room %s is double booked on day %d (%s-%s and %s-%s)",
						roomOf(a), a.DayOfWeek, a.StartTime, a.EndTime, b.StartTime, b.EndTime),
					EntryIDs:   []string{a.ID, b.ID},
					ScheduleID: a.ScheduleID,
				})
			}
		}
	}
	return append(teacherConflicts, roomConflicts...)
}

// availabilityConflicts flags entries that fall outside a teacher's declared
// availability. An entry violates when no is_available window on its day fully
// contains it, or when it overlaps an explicit unavailable window. Teachers
// with no declared windows are unconstrained.
func (s *ConflictService) availabilityConflicts(ctx context.Context, institutionID string, entries []models.ScheduleEntry) ([]models.Conflict, error) {
	windowsByTeacher := make(map[string][]models.TeacherAvailability)
	var conflicts []models.Conflict

	for _, entry := range entries {
		windows, ok := windowsByTeacher[entry.TeacherID]
		if !ok {
			loaded, err := s.availability.ListByTeacher(ctx, institutionID, entry.TeacherID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher availability")
			}
			windowsByTeacher[entry.TeacherID] = loaded
			windows = loaded
		}
		if len(windows) == 0 {
			continue
		}

		start := mustClock(entry.StartTime)
		end := mustClock(entry.EndTime)
		covered := false
		blocked := false
		for _, window := range windows {
			if window.DayOfWeek != entry.DayOfWeek {
				continue
			}
			windowStart := mustClock(window.StartTime)
			windowEnd := mustClock(window.EndTime)
			if window.IsAvailable {
				if windowStart <= start && end <= windowEnd {
					covered = true
				}
			} else if overlaps(start, end, windowStart, windowEnd) {
				blocked = true
			}
		}
		if blocked || !covered {
			conflicts = append(conflicts, models.Conflict{
				ConflictType: models.ConflictTeacherAvailability,
				Description: fmt.Sprintf("teacher %s is not available on day %d %s-%s",
					entry.TeacherID, entry.DayOfWeek, entry.StartTime, entry.EndTime),
				EntryIDs:   []string{entry.ID},
				ScheduleID: entry.ScheduleID,
			})
		}
	}
	return conflicts, nil
}

// Resolve records a conflict occurrence as already handled. Nothing about the
// underlying entries changes; re-running detection will surface the same
// conflict again if the entries still overlap.
func (s *ConflictService) Resolve(ctx context.Context, institutionID, userID string, req dto.ResolveConflictRequest) (*models.ScheduleConflict, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resolve payload")
	}

	sched, err := s.schedules.FindByID(ctx, req.ScheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if sched.InstitutionID != institutionID {
		return nil, appErrors.ErrWrongInstitution
	}

	now := time.Now().UTC()
	record := &models.ScheduleConflict{
		ScheduleID:   req.ScheduleID,
		ConflictType: models.ConflictType(req.ConflictType),
		Description:  req.Description,
		EntryIDs:     pq.StringArray(req.EntryIDs),
		IsResolved:   true,
		ResolvedBy:   &userID,
		ResolvedAt:   &now,
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record conflict resolution")
	}
	return record, nil
}

// ListResolved returns the persisted resolution history for a schedule.
func (s *ConflictService) ListResolved(ctx context.Context, institutionID, scheduleID string) ([]models.ScheduleConflict, error) {
	sched, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if sched.InstitutionID != institutionID {
		return nil, appErrors.ErrWrongInstitution
	}
	records, err := s.records.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list resolved conflicts")
	}
	return records, nil
}

func roomOf(entry models.ScheduleEntry) string {
	if entry.Room == nil {
		return ""
	}
	return *entry.Room
}
