package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadplan/acadplan-api/internal/dto"
	"github.com/acadplan/acadplan-api/internal/models"
	appErrors "github.com/acadplan/acadplan-api/pkg/errors"
)

type availabilityRepository interface {
	ListByTeacher(ctx context.Context, institutionID, teacherID string) ([]models.TeacherAvailability, error)
	ReplaceForTeacher(ctx context.Context, institutionID, teacherID string, windows []models.TeacherAvailability) error
}

type availabilityUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// AvailabilityService manages teacher availability windows. Saves replace the
// full set; there is no per-window edit.
type AvailabilityService struct {
	availability availabilityRepository
	users        availabilityUserRepository
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewAvailabilityService instantiates AvailabilityService.
func NewAvailabilityService(availability availabilityRepository, users availabilityUserRepository, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{availability: availability, users: users, validator: validate, logger: logger}
}

// List returns a teacher's declared windows.
func (s *AvailabilityService) List(ctx context.Context, institutionID, teacherID string) ([]models.TeacherAvailability, error) {
	if _, err := s.loadTeacher(ctx, institutionID, teacherID); err != nil {
		return nil, err
	}
	windows, err := s.availability.ListByTeacher(ctx, institutionID, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability")
	}
	if windows == nil {
		windows = []models.TeacherAvailability{}
	}
	return windows, nil
}

// Replace swaps the teacher's full availability set for the submitted windows.
// An empty window list clears the teacher's declarations entirely.
func (s *AvailabilityService) Replace(ctx context.Context, institutionID, teacherID string, req dto.ReplaceAvailabilityRequest) ([]models.TeacherAvailability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	if _, err := s.loadTeacher(ctx, institutionID, teacherID); err != nil {
		return nil, err
	}

	windows := make([]models.TeacherAvailability, 0, len(req.Windows))
	for _, window := range req.Windows {
		start, err := parseClock(window.StartTime)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
		}
		end, err := parseClock(window.EndTime)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end time")
		}
		if start >= end {
			return nil, appErrors.Clone(appErrors.ErrValidation, "start time must be before end time")
		}

		var notes *string
		if window.Notes != "" {
			value := window.Notes
			notes = &value
		}
		windows = append(windows, models.TeacherAvailability{
			DayOfWeek:   window.DayOfWeek,
			StartTime:   window.StartTime,
			EndTime:     window.EndTime,
			IsAvailable: window.IsAvailable,
			Notes:       notes,
		})
	}

	if err := s.availability.ReplaceForTeacher(ctx, institutionID, teacherID, windows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace availability")
	}
	return windows, nil
}

func (s *AvailabilityService) loadTeacher(ctx context.Context, institutionID, teacherID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if user.InstitutionID != institutionID {
		return nil, appErrors.ErrWrongInstitution
	}
	if user.Role != models.RoleTeacher {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user is not a teacher")
	}
	return user, nil
}
