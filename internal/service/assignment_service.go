package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadplan/acadplan-api/internal/models"
	appErrors "github.com/acadplan/acadplan-api/pkg/errors"
)

type assignmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.TeacherSubjectAssignment, error)
	ListByInstitution(ctx context.Context, institutionID string, status models.AssignmentStatus) ([]models.TeacherSubjectAssignment, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherSubjectAssignment, error)
	ExistsOpen(ctx context.Context, subjectID, teacherID string) (bool, error)
	Create(ctx context.Context, assignment *models.TeacherSubjectAssignment) error
	Decide(ctx context.Context, id string, status models.AssignmentStatus, decidedBy string, decidedAt time.Time) error
}

type assignmentSubjectRepository interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type assignmentNotifier interface {
	Notify(ctx context.Context, institutionID, userID string, kind models.NotificationKind, title, body string)
}

// RequestAssignmentRequest asks for a teacher-subject link.
type RequestAssignmentRequest struct {
	SubjectID string `json:"subject_id" validate:"required"`
}

// AssignmentService runs the teacher-subject request/approval workflow.
type AssignmentService struct {
	assignments assignmentRepository
	subjects    assignmentSubjectRepository
	notifier    assignmentNotifier
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAssignmentService instantiates AssignmentService. A nil notifier
// disables notifications.
func NewAssignmentService(assignments assignmentRepository, subjects assignmentSubjectRepository, notifier assignmentNotifier, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{assignments: assignments, subjects: subjects, notifier: notifier, validator: validate, logger: logger}
}

// Request creates a pending assignment from a teacher for a subject.
func (s *AssignmentService) Request(ctx context.Context, institutionID, teacherID string, req RequestAssignmentRequest) (*models.TeacherSubjectAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if subject.InstitutionID != institutionID {
		return nil, appErrors.ErrWrongInstitution
	}

	open, err := s.assignments.ExistsOpen(ctx, req.SubjectID, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing assignments")
	}
	if open {
		return nil, appErrors.Clone(appErrors.ErrConflict, "assignment already requested or approved")
	}

	assignment := models.TeacherSubjectAssignment{
		InstitutionID: institutionID,
		SubjectID:     req.SubjectID,
		TeacherID:     teacherID,
		RequestedBy:   teacherID,
	}
	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return &assignment, nil
}

// List returns institution assignments, optionally filtered by status.
func (s *AssignmentService) List(ctx context.Context, institutionID, status string) ([]models.TeacherSubjectAssignment, error) {
	assignments, err := s.assignments.ListByInstitution(ctx, institutionID, models.AssignmentStatus(status))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	if assignments == nil {
		assignments = []models.TeacherSubjectAssignment{}
	}
	return assignments, nil
}

// ListMine returns the calling teacher's assignments.
func (s *AssignmentService) ListMine(ctx context.Context, teacherID string) ([]models.TeacherSubjectAssignment, error) {
	assignments, err := s.assignments.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	if assignments == nil {
		assignments = []models.TeacherSubjectAssignment{}
	}
	return assignments, nil
}

// Decide approves or declines a pending assignment and notifies the teacher
// who requested it.
func (s *AssignmentService) Decide(ctx context.Context, institutionID, deciderID, assignmentID string, approve bool) (*models.TeacherSubjectAssignment, error) {
	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if assignment.InstitutionID != institutionID {
		return nil, appErrors.ErrWrongInstitution
	}
	if assignment.Status != models.AssignmentPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "assignment already decided")
	}

	status := models.AssignmentDeclined
	if approve {
		status = models.AssignmentApproved
	}
	now := time.Now().UTC()
	if err := s.assignments.Decide(ctx, assignmentID, status, deciderID, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decide assignment")
	}

	assignment.Status = status
	assignment.DecidedBy = &deciderID
	assignment.DecidedAt = &now

	if s.notifier != nil {
		s.notifier.Notify(ctx, institutionID, assignment.TeacherID,
			models.NotificationAssignmentDecided,
			"Assignment "+string(status),
			fmt.Sprintf("Your request for subject %s was %s.", assignment.SubjectID, status))
	}
	return assignment, nil
}
