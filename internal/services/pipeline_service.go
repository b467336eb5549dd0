package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"dealdesk/internal/apperr"
	"dealdesk/internal/models"
	"dealdesk/internal/repositories"
)

// PipelineService manages per-tenant pipeline definitions.
type PipelineService interface {
	Create(ctx context.Context, tenantID int64, name string, stages []models.StageInput) (*models.Pipeline, error)
	GetByID(ctx context.Context, tenantID, id int64) (*models.Pipeline, error)
	List(ctx context.Context, tenantID int64) ([]models.Pipeline, error)
	Update(ctx context.Context, tenantID, id int64, upd models.PipelineUpdate) (*models.Pipeline, error)
	Delete(ctx context.Context, tenantID, id int64) error
}

type pipelineService struct {
	repo repositories.PipelineRepository
}

func NewPipelineService(repo repositories.PipelineRepository) PipelineService {
	return &pipelineService{repo: repo}
}

// normalizeStages trims names and drops blank ones. A missing order falls back
// to the stage's position in the request, a missing id to a fresh uuid.
func normalizeStages(in []models.StageInput) []models.Stage {
	out := make([]models.Stage, 0, len(in))
	for i, s := range in {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			continue
		}
		order := i
		if s.Order != nil {
			order = *s.Order
		}
		id := strings.TrimSpace(s.ID)
		if id == "" {
			id = uuid.NewString()
		}
		out = append(out, models.Stage{ID: id, Name: name, Order: order})
	}
	return out
}

func (s *pipelineService) Create(ctx context.Context, tenantID int64, name string, stages []models.StageInput) (*models.Pipeline, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	normalized := normalizeStages(stages)
	if len(normalized) == 0 {
		return nil, apperr.Validation("stages required")
	}

	p := &models.Pipeline{TenantID: tenantID, Name: name, Stages: normalized}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	log.Printf("[pipelines][create] tenant=%d id=%d name=%q stages=%d", tenantID, p.ID, p.Name, len(p.Stages))
	return p, nil
}

func (s *pipelineService) GetByID(ctx context.Context, tenantID, id int64) (*models.Pipeline, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

func (s *pipelineService) List(ctx context.Context, tenantID int64) ([]models.Pipeline, error) {
	return s.repo.List(ctx, tenantID)
}

func (s *pipelineService) Update(ctx context.Context, tenantID, id int64, upd models.PipelineUpdate) (*models.Pipeline, error) {
	p, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, apperr.Validation("name must not be blank")
		}
		p.Name = name
	}
	if upd.Stages != nil {
		normalized := normalizeStages(*upd.Stages)
		if len(normalized) == 0 {
			return nil, apperr.Validation("stages required")
		}
		p.Stages = normalized
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	log.Printf("[pipelines][update] tenant=%d id=%d name=%q stages=%d", tenantID, p.ID, p.Name, len(p.Stages))
	return p, nil
}

func (s *pipelineService) Delete(ctx context.Context, tenantID, id int64) error {
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	log.Printf("[pipelines][delete] tenant=%d id=%d", tenantID, id)
	return nil
}
