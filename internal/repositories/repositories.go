package repositories

import (
	"context"

	"dealdesk/internal/models"
)

// PipelineRepository stores pipeline definitions. All lookups are tenant
// scoped; a pipeline of another tenant is reported as not found.
type PipelineRepository interface {
	Create(ctx context.Context, p *models.Pipeline) error
	GetByID(ctx context.Context, tenantID, id int64) (*models.Pipeline, error)
	// GetEarliest returns the tenant's first created pipeline.
	GetEarliest(ctx context.Context, tenantID int64) (*models.Pipeline, error)
	List(ctx context.Context, tenantID int64) ([]models.Pipeline, error)
	// Update replaces name and stage set. It fails with a conflict when a
	// removed stage is still the current stage of some deal.
	Update(ctx context.Context, p *models.Pipeline) error
	// Delete fails with a conflict while any deal references the pipeline.
	Delete(ctx context.Context, tenantID, id int64) error
}

// DealRepository stores deals together with their stage history.
type DealRepository interface {
	// Create inserts d and its seed history entry. The stage must still
	// exist in the pipeline at commit time.
	Create(ctx context.Context, d *models.Deal) error
	GetByID(ctx context.Context, tenantID, id int64) (*models.Deal, error)
	List(ctx context.Context, tenantID int64, filter models.DealFilter) ([]models.Deal, error)
	// UpdateFields persists the non-stage fields of d.
	UpdateFields(ctx context.Context, d *models.Deal) error
	// SaveTransition persists the last move recorded in d.StageHistory if the
	// stored version still equals expectedVersion, then bumps d.Version.
	SaveTransition(ctx context.Context, d *models.Deal, expectedVersion int64) error
	Delete(ctx context.Context, tenantID, id int64) error
	Stats(ctx context.Context, tenantID int64) (models.DealStats, error)
}
