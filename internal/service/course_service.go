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

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
	CountSubjects(ctx context.Context, id string) (int, error)
}

// CreateCourseRequest describes payload for creating a course.
type CreateCourseRequest struct {
	Name       string `json:"name" validate:"required"`
	GradeLevel string `json:"grade_level" validate:"required"`
}

// UpdateCourseRequest modifies an existing course.
type UpdateCourseRequest struct {
	Name       string `json:"name" validate:"required"`
	GradeLevel string `json:"grade_level" validate:"required"`
	Active     bool   `json:"active"`
}

// CourseService manages courses.
type CourseService struct {
	repo      courseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService instantiates CourseService.
func NewCourseService(repo courseRepository, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, validator: validate, logger: logger}
}

// List returns courses with pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return courses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one course, enforcing the tenant boundary.
func (s *CourseService) Get(ctx context.Context, institutionID, id string) (*models.Course, error) {
	return s.load(ctx, institutionID, id)
}

// Create inserts a new active course.
func (s *CourseService) Create(ctx context.Context, institutionID string, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := models.Course{
		InstitutionID: institutionID,
		Name:          req.Name,
		GradeLevel:    req.GradeLevel,
		Active:        true,
	}
	if err := s.repo.Create(ctx, &course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return &course, nil
}

// Update modifies a course.
func (s *CourseService) Update(ctx context.Context, institutionID, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.load(ctx, institutionID, id)
	if err != nil {
		return nil, err
	}
	course.Name = req.Name
	course.GradeLevel = req.GradeLevel
	course.Active = req.Active
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}

// Delete removes a course with no subjects attached.
func (s *CourseService) Delete(ctx context.Context, institutionID, id string) error {
	if _, err := s.load(ctx, institutionID, id); err != nil {
		return err
	}
	count, err := s.repo.CountSubjects(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count course subjects")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "course still has subjects")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}

func (s *CourseService) load(ctx context.Context, institutionID, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.InstitutionID != institutionID {
		return nil, appErrors.ErrWrongInstitution
	}
	return course, nil
}
