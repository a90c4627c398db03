package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadplan/acadplan-api/internal/models"
)

// InstitutionRepository provides persistence for institutions.
type InstitutionRepository struct {
	db *sqlx.DB
}

// NewInstitutionRepository creates a new institution repository.
func NewInstitutionRepository(db *sqlx.DB) *InstitutionRepository {
	return &InstitutionRepository{db: db}
}

// FindByID loads an institution by id.
func (r *InstitutionRepository) FindByID(ctx context.Context, id string) (*models.Institution, error) {
	const query = `SELECT id, name, timezone, active, created_at, updated_at FROM institutions WHERE id = $1`
	var inst models.Institution
	if err := r.db.GetContext(ctx, &inst, query, id); err != nil {
		return nil, err
	}
	return &inst, nil
}

// Create stores a new institution.
func (r *InstitutionRepository) Create(ctx context.Context, inst *models.Institution) error {
	if inst.ID == "" {
		inst.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	inst.CreatedAt = now
	inst.UpdatedAt = now

	const query = `INSERT INTO institutions (id, name, timezone, active, created_at, updated_at)
		VALUES (:id, :name, :timezone, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, inst); err != nil {
		return fmt.Errorf("create institution: %w", err)
	}
	return nil
}

// Update modifies an institution record.
func (r *InstitutionRepository) Update(ctx context.Context, inst *models.Institution) error {
	inst.UpdatedAt = time.Now().UTC()
	const query = `UPDATE institutions SET name = :name, timezone = :timezone, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, inst); err != nil {
		return fmt.Errorf("update institution: %w", err)
	}
	return nil
}
