package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/acadplan/acadplan-api/internal/dto"
	"github.com/acadplan/acadplan-api/internal/models"
	"github.com/acadplan/acadplan-api/pkg/config"
	appErrors "github.com/acadplan/acadplan-api/pkg/errors"
)

type generatorScheduleRepository interface {
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	UpdateGenerationMethod(ctx context.Context, id string, method models.GenerationMethod) error
}

type generatorSubjectRepository interface {
	ListActiveByInstitution(ctx context.Context, institutionID string) ([]models.Subject, error)
}

type generatorTeacherRepository interface {
	ListTeacherIDs(ctx context.Context, institutionID string) ([]string, error)
}

type generatorEntryRepository interface {
	BulkCreate(ctx context.Context, entries []models.ScheduleEntry) error
}

type generatorCacheInvalidator interface {
	InvalidateInstitution(ctx context.Context, institutionID string) error
}

// GeneratorService fills a draft schedule with entries produced by a
// scheduling strategy. Generation never chains into conflict detection;
// callers run detection separately when they want a report.
type GeneratorService struct {
	schedules generatorScheduleRepository
	subjects  generatorSubjectRepository
	teachers  generatorTeacherRepository
	entries   generatorEntryRepository
	cache     generatorCacheInvalidator
	strategy  SchedulingStrategy
	slots     []dto.CandidateSlot
	logger    *zap.Logger
}

// NewGeneratorService instantiates GeneratorService. A nil strategy defaults
// to round-robin; a nil cache disables invalidation.
func NewGeneratorService(
	schedules generatorScheduleRepository,
	subjects generatorSubjectRepository,
	teachers generatorTeacherRepository,
	entries generatorEntryRepository,
	cache generatorCacheInvalidator,
	strategy SchedulingStrategy,
	cfg config.GeneratorConfig,
	logger *zap.Logger,
) *GeneratorService {
	if strategy == nil {
		strategy = NewRoundRobinStrategy()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeneratorService{
		schedules: schedules,
		subjects:  subjects,
		teachers:  teachers,
		entries:   entries,
		cache:     cache,
		strategy:  strategy,
		slots:     defaultCandidateSlots(cfg),
		logger:    logger,
	}
}

// Generate plans and persists entries for the given draft schedule. All data
// fetches happen before any write; a fetch failure aborts with nothing
// persisted. An empty teacher pool is a defined no-op: zero entries, no error.
func (s *GeneratorService) Generate(ctx context.Context, institutionID, scheduleID string) (*dto.GenerateResponse, error) {
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
	if sched.Status == models.ScheduleStatusPublished {
		return nil, appErrors.ErrPublished
	}

	subjects, err := s.subjects.ListActiveByInstitution(ctx, institutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	teacherIDs, err := s.teachers.ListTeacherIDs(ctx, institutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher pool")
	}

	demands := make([]dto.SubjectDemand, 0, len(subjects))
	for _, subject := range subjects {
		demands = append(demands, dto.SubjectDemand{
			SubjectID:    subject.ID,
			Name:         subject.Name,
			HoursPerWeek: subject.HoursPerWeek,
		})
	}

	plan := s.strategy.Plan(demands, s.slots, teacherIDs)

	response := &dto.GenerateResponse{
		ScheduleID: scheduleID,
		Shortfalls: plan.Shortfalls,
	}
	for _, shortfall := range plan.Shortfalls {
		response.TotalUnmetHours += shortfall.UnmetHours
	}
	if response.Shortfalls == nil {
		response.Shortfalls = []dto.SubjectShortfall{}
	}

	if len(plan.Entries) == 0 {
		s.logger.Info("generation produced no entries",
			zap.String("schedule_id", scheduleID),
			zap.Int("teacher_pool", len(teacherIDs)),
			zap.Int("subjects", len(demands)))
		return response, nil
	}

	rows := make([]models.ScheduleEntry, 0, len(plan.Entries))
	for _, draft := range plan.Entries {
		room := draft.Room
		rows = append(rows, models.ScheduleEntry{
			ScheduleID: scheduleID,
			SubjectID:  draft.SubjectID,
			TeacherID:  draft.TeacherID,
			DayOfWeek:  draft.DayOfWeek,
			StartTime:  draft.StartTime,
			EndTime:    draft.EndTime,
			Room:       &room,
		})
	}

	if err := s.entries.BulkCreate(ctx, rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist generated entries")
	}
	if err := s.schedules.UpdateGenerationMethod(ctx, scheduleID, models.GenerationAuto); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark schedule as generated")
	}

	if s.cache != nil {
		if err := s.cache.InvalidateInstitution(ctx, institutionID); err != nil {
			s.logger.Warn("conflict cache invalidation failed", zap.Error(err))
		}
	}

	response.EntriesCreated = len(rows)
	return response, nil
}
