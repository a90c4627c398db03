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

type institutionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Institution, error)
	Update(ctx context.Context, inst *models.Institution) error
}

// UpdateInstitutionRequest modifies the caller's institution profile.
type UpdateInstitutionRequest struct {
	Name     string `json:"name" validate:"required"`
	Timezone string `json:"timezone" validate:"required"`
}

// InstitutionService exposes the caller's own institution.
type InstitutionService struct {
	repo      institutionRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInstitutionService instantiates InstitutionService.
func NewInstitutionService(repo institutionRepository, validate *validator.Validate, logger *zap.Logger) *InstitutionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstitutionService{repo: repo, validator: validate, logger: logger}
}

// Get loads the institution.
func (s *InstitutionService) Get(ctx context.Context, id string) (*models.Institution, error) {
	inst, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institution")
	}
	return inst, nil
}

// Update modifies the institution profile.
func (s *InstitutionService) Update(ctx context.Context, id string, req UpdateInstitutionRequest) (*models.Institution, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid institution payload")
	}
	inst, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	inst.Name = req.Name
	inst.Timezone = req.Timezone
	if err := s.repo.Update(ctx, inst); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update institution")
	}
	return inst, nil
}
