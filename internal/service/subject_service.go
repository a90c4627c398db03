package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadplan/acadplan-api/internal/models"
	appErrors "github.com/acadplan/acadplan-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

type subjectCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// CreateSubjectRequest describes payload for creating a subject.
type CreateSubjectRequest struct {
	CourseID     string `json:"course_id" validate:"required"`
	Name         string `json:"name" validate:"required"`
	HoursPerWeek int    `json:"hours_per_week" validate:"required,min=1,max=40"`
}

// UpdateSubjectRequest modifies an existing subject.
type UpdateSubjectRequest struct {
	Name         string `json:"name" validate:"required"`
	HoursPerWeek int    `json:"hours_per_week" validate:"required,min=1,max=40"`
	Active       bool   `json:"active"`
}

// SubjectService manages subjects and their weekly hour demand.
type SubjectService struct {
	subjects  subjectRepository
	courses   subjectCourseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService instantiates SubjectService.
func NewSubjectService(subjects subjectRepository, courses subjectCourseRepository, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{subjects: subjects, courses: courses, validator: validate, logger: logger}
}

// List returns subjects with pagination metadata.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	subjects, total, err := s.subjects.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return subjects, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one subject, enforcing the tenant boundary.
func (s *SubjectService) Get(ctx context.Context, institutionID, id string) (*models.Subject, error) {
	return s.load(ctx, institutionID, id)
}

// Create inserts a new active subject under an existing course.
func (s *SubjectService) Create(ctx context.Context, institutionID string, req CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.InstitutionID != institutionID {
		return nil, appErrors.ErrWrongInstitution
	}

	subject := models.Subject{
		InstitutionID: institutionID,
		CourseID:      req.CourseID,
		Name:          req.Name,
		HoursPerWeek:  req.HoursPerWeek,
		Active:        true,
	}
	if err := s.subjects.Create(ctx, &subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	return &subject, nil
}

// Update modifies a subject.
func (s *SubjectService) Update(ctx context.Context, institutionID, id string, req UpdateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	subject, err := s.load(ctx, institutionID, id)
	if err != nil {
		return nil, err
	}
	subject.Name = req.Name
	subject.HoursPerWeek = req.HoursPerWeek
	subject.Active = req.Active
	if err := s.subjects.Update(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}
	return subject, nil
}

// Delete removes a subject.
func (s *SubjectService) Delete(ctx context.Context, institutionID, id string) error {
	if _, err := s.load(ctx, institutionID, id); err != nil {
		return err
	}
	if err := s.subjects.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	return nil
}

func (s *SubjectService) load(ctx context.Context, institutionID, id string) (*models.Subject, error) {
	subject, err := s.subjects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if subject.InstitutionID != institutionID {
		return nil, appErrors.ErrWrongInstitution
	}
	return subject, nil
}
