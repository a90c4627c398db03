package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadplan/acadplan-api/internal/models"
	appErrors "github.com/acadplan/acadplan-api/pkg/errors"
)

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error)
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	Create(ctx context.Context, sched *models.Schedule) error
	Update(ctx context.Context, sched *models.Schedule) error
	UpdateStatus(ctx context.Context, id string, status models.ScheduleStatus) error
	Delete(ctx context.Context, id string) error
}

type scheduleEntryRepository interface {
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.ScheduleEntry, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error)
	Create(ctx context.Context, entry *models.ScheduleEntry) error
	Delete(ctx context.Context, id string) error
}

type scheduleCacheInvalidator interface {
	InvalidateInstitution(ctx context.Context, institutionID string) error
}

// CreateScheduleRequest describes payload for creating a schedule.
type CreateScheduleRequest struct {
	Name      string `json:"name" validate:"required"`
	WeekStart string `json:"week_start" validate:"required,datetime=2006-01-02"`
	WeekEnd   string `json:"week_end" validate:"required,datetime=2006-01-02"`
}

// UpdateScheduleRequest renames or re-dates a draft schedule.
type UpdateScheduleRequest struct {
	Name      string `json:"name" validate:"required"`
	WeekStart string `json:"week_start" validate:"required,datetime=2006-01-02"`
	WeekEnd   string `json:"week_end" validate:"required,datetime=2006-01-02"`
}

// CreateEntryRequest adds one manual entry to a schedule.
type CreateEntryRequest struct {
	SubjectID string `json:"subject_id" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
	DayOfWeek int    `json:"day_of_week" validate:"required,min=1,max=7"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	Room      string `json:"room"`
	Notes     string `json:"notes"`
}

// ScheduleService manages schedule lifecycle and manual entry edits. Entries
// are never updated in place: an edit is a delete followed by a create.
type ScheduleService struct {
	schedules scheduleRepository
	entries   scheduleEntryRepository
	cache     scheduleCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService instantiates ScheduleService.
func NewScheduleService(schedules scheduleRepository, entries scheduleEntryRepository, cache scheduleCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{schedules: schedules, entries: entries, cache: cache, validator: validate, logger: logger}
}

// List returns schedules with pagination metadata.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, *models.Pagination, error) {
	schedules, total, err := s.schedules.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return schedules, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads a schedule, enforcing the tenant boundary.
func (s *ScheduleService) Get(ctx context.Context, institutionID, id string) (*models.Schedule, error) {
	return s.load(ctx, institutionID, id)
}

// Create inserts a new draft schedule.
func (s *ScheduleService) Create(ctx context.Context, institutionID string, req CreateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	weekStart, weekEnd, err := parseWeek(req.WeekStart, req.WeekEnd)
	if err != nil {
		return nil, err
	}

	sched := models.Schedule{
		InstitutionID: institutionID,
		Name:          req.Name,
		WeekStart:     weekStart,
		WeekEnd:       weekEnd,
	}
	if err := s.schedules.Create(ctx, &sched); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	return &sched, nil
}

// Update modifies a draft schedule's name and week.
func (s *ScheduleService) Update(ctx context.Context, institutionID, id string, req UpdateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	sched, err := s.load(ctx, institutionID, id)
	if err != nil {
		return nil, err
	}
	if sched.Status == models.ScheduleStatusPublished {
		return nil, appErrors.ErrPublished
	}
	weekStart, weekEnd, err := parseWeek(req.WeekStart, req.WeekEnd)
	if err != nil {
		return nil, err
	}

	sched.Name = req.Name
	sched.WeekStart = weekStart
	sched.WeekEnd = weekEnd
	if err := s.schedules.Update(ctx, sched); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}
	return sched, nil
}

// Publish marks a draft schedule published. Published schedules join the
// institution-wide conflict scan and reject further edits.
func (s *ScheduleService) Publish(ctx context.Context, institutionID, id string) (*models.Schedule, error) {
	sched, err := s.load(ctx, institutionID, id)
	if err != nil {
		return nil, err
	}
	if sched.Status == models.ScheduleStatusPublished {
		return nil, appErrors.ErrPublished
	}
	if err := s.schedules.UpdateStatus(ctx, id, models.ScheduleStatusPublished); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish schedule")
	}
	sched.Status = models.ScheduleStatusPublished
	s.invalidate(ctx, institutionID)
	return sched, nil
}

// Delete removes a draft schedule and its entries.
func (s *ScheduleService) Delete(ctx context.Context, institutionID, id string) error {
	sched, err := s.load(ctx, institutionID, id)
	if err != nil {
		return err
	}
	if sched.Status == models.ScheduleStatusPublished {
		return appErrors.ErrPublished
	}
	if err := s.schedules.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	s.invalidate(ctx, institutionID)
	return nil
}

// ListEntries returns a schedule's entries in detection order.
func (s *ScheduleService) ListEntries(ctx context.Context, institutionID, scheduleID string) ([]models.ScheduleEntry, error) {
	if _, err := s.load(ctx, institutionID, scheduleID); err != nil {
		return nil, err
	}
	entries, err := s.entries.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list entries")
	}
	if entries == nil {
		entries = []models.ScheduleEntry{}
	}
	return entries, nil
}

// AddEntry appends one manual entry to a schedule.
func (s *ScheduleService) AddEntry(ctx context.Context, institutionID, scheduleID string, req CreateEntryRequest) (*models.ScheduleEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid entry payload")
	}
	start, err := parseClock(req.StartTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
	}
	end, err := parseClock(req.EndTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end time")
	}
	if start >= end {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start time must be before end time")
	}

	if _, err := s.load(ctx, institutionID, scheduleID); err != nil {
		return nil, err
	}

	entry := models.ScheduleEntry{
		ScheduleID: scheduleID,
		SubjectID:  req.SubjectID,
		TeacherID:  req.TeacherID,
		DayOfWeek:  req.DayOfWeek,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	}
	if req.Room != "" {
		room := req.Room
		entry.Room = &room
	}
	if req.Notes != "" {
		notes := req.Notes
		entry.Notes = &notes
	}
	if err := s.entries.Create(ctx, &entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create entry")
	}
	s.invalidate(ctx, institutionID)
	return &entry, nil
}

// DeleteEntry removes one entry from a schedule.
func (s *ScheduleService) DeleteEntry(ctx context.Context, institutionID, scheduleID, entryID string) error {
	if _, err := s.load(ctx, institutionID, scheduleID); err != nil {
		return err
	}
	entry, err := s.entries.FindByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load entry")
	}
	if entry.ScheduleID != scheduleID {
		return appErrors.ErrNotFound
	}
	if err := s.entries.Delete(ctx, entryID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete entry")
	}
	s.invalidate(ctx, institutionID)
	return nil
}

func (s *ScheduleService) load(ctx context.Context, institutionID, id string) (*models.Schedule, error) {
	sched, err := s.schedules.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if sched.InstitutionID != institutionID {
		return nil, appErrors.ErrWrongInstitution
	}
	return sched, nil
}

func (s *ScheduleService) invalidate(ctx context.Context, institutionID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateInstitution(ctx, institutionID); err != nil {
		s.logger.Warn("conflict cache invalidation failed", zap.Error(err))
	}
}

func parseWeek(startValue, endValue string) (time.Time, time.Time, error) {
	weekStart, err := time.Parse("2006-01-02", startValue)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid week start")
	}
	weekEnd, err := time.Parse("2006-01-02", endValue)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid week end")
	}
	if !weekStart.Before(weekEnd) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "week start must be before week end")
	}
	return weekStart, weekEnd, nil
}
