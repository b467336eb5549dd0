package services

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"

	"dealdesk/internal/apperr"
	"dealdesk/internal/metrics"
	"dealdesk/internal/models"
	"dealdesk/internal/repositories"
)

// DealService is the stage transition engine plus the plain deal operations.
// Only TransitionStage changes a deal's stage or its history.
type DealService interface {
	Create(ctx context.Context, who models.Identity, in models.DealInput) (*models.Deal, error)
	GetByID(ctx context.Context, tenantID, id int64) (*models.Deal, error)
	List(ctx context.Context, tenantID int64, filter models.DealFilter) ([]models.Deal, error)
	TransitionStage(ctx context.Context, tenantID, id int64, stageID string) (*models.Deal, error)
	UpdateFields(ctx context.Context, tenantID, id int64, patch models.DealPatch) (*models.Deal, error)
	// Update moves the deal to stageID when set, then applies patch. The patch
	// is validated before the move is saved, so a rejected request changes nothing.
	Update(ctx context.Context, tenantID, id int64, stageID *string, patch models.DealPatch) (*models.Deal, error)
	Delete(ctx context.Context, tenantID, id int64) error
	Stats(ctx context.Context, tenantID int64) (models.DealStats, error)
}

type dealService struct {
	deals     repositories.DealRepository
	pipelines repositories.PipelineRepository
	opts      options
}

func NewDealService(deals repositories.DealRepository, pipelines repositories.PipelineRepository, opts ...Option) DealService {
	return &dealService{deals: deals, pipelines: pipelines, opts: buildOptions(opts)}
}

func validateDealFields(title string, amount float64, status models.DealStatus, probability int) error {
	if strings.TrimSpace(title) == "" {
		return apperr.Validation("title is required")
	}
	if amount < 0 {
		return apperr.Validation("amount must not be negative")
	}
	if !status.Valid() {
		return apperr.Validation("status must be one of open, won, lost")
	}
	if probability < 0 || probability > 100 {
		return apperr.Validation("probability must be between 0 and 100")
	}
	return nil
}

func (s *dealService) resolvePipeline(ctx context.Context, tenantID int64, pipelineID *int64) (*models.Pipeline, error) {
	if pipelineID != nil {
		return s.pipelines.GetByID(ctx, tenantID, *pipelineID)
	}
	return s.pipelines.GetEarliest(ctx, tenantID)
}

func (s *dealService) Create(ctx context.Context, who models.Identity, in models.DealInput) (*models.Deal, error) {
	if in.Status == "" {
		in.Status = models.DealOpen
	}
	if err := validateDealFields(in.Title, in.Amount, in.Status, in.Probability); err != nil {
		return nil, err
	}

	pipeline, err := s.resolvePipeline(ctx, who.TenantID, in.PipelineID)
	if err != nil {
		return nil, err
	}

	stageID := strings.TrimSpace(in.StageID)
	if stageID == "" {
		first, ok := pipeline.FirstStage()
		if !ok {
			return nil, apperr.Validation("pipeline %d has no stages", pipeline.ID)
		}
		stageID = first.ID
	}
	if !pipeline.HasStage(stageID) {
		return nil, apperr.Validation("stage %q does not belong to pipeline %d", stageID, pipeline.ID)
	}

	now := s.opts.now()
	deal := &models.Deal{
		TenantID:    who.TenantID,
		OwnerID:     who.UserID,
		ContactID:   in.ContactID,
		PipelineID:  pipeline.ID,
		Title:       strings.TrimSpace(in.Title),
		Amount:      in.Amount,
		Currency:    in.Currency,
		Status:      in.Status,
		Probability: in.Probability,
		CloseDate:   in.CloseDate,
		CreatedAt:   now,
	}
	deal.EnterInitialStage(stageID, now)

	if err := s.deals.Create(ctx, deal); err != nil {
		return nil, err
	}
	s.opts.metrics.ObserveDealCreated()
	log.Printf("[deals][create] tenant=%d id=%d pipeline=%d stage=%s owner=%d",
		deal.TenantID, deal.ID, deal.PipelineID, deal.StageID, deal.OwnerID)
	return deal, nil
}

func (s *dealService) GetByID(ctx context.Context, tenantID, id int64) (*models.Deal, error) {
	return s.deals.GetByID(ctx, tenantID, id)
}

func (s *dealService) List(ctx context.Context, tenantID int64, filter models.DealFilter) ([]models.Deal, error) {
	return s.deals.List(ctx, tenantID, filter)
}

func (s *dealService) TransitionStage(ctx context.Context, tenantID, id int64, stageID string) (*models.Deal, error) {
	stageID = strings.TrimSpace(stageID)
	if stageID == "" {
		s.opts.metrics.ObserveTransition(metrics.TransitionRejected)
		return nil, apperr.Validation("stage_id is required")
	}

	deal, err := s.deals.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	pipeline, err := s.pipelines.GetByID(ctx, tenantID, deal.PipelineID)
	if err != nil {
		return nil, err
	}
	if !pipeline.HasStage(stageID) {
		s.opts.metrics.ObserveTransition(metrics.TransitionRejected)
		return nil, apperr.Validation("stage %q does not belong to pipeline %d", stageID, pipeline.ID)
	}
	if stageID == deal.StageID {
		s.opts.metrics.ObserveTransition(metrics.TransitionNoop)
		return deal, nil
	}

	if err := deal.CheckHistory(); err != nil {
		if !errors.Is(err, models.ErrNoOpenEntry) {
			log.Errorf("[deals][transition] corrupt stage history tenant=%d deal=%d: %v", tenantID, id, err)
			return nil, apperr.Internal(err, "deal %d has an inconsistent stage history", id)
		}
		log.Warnf("[deals][transition] tenant=%d deal=%d: %v; keeping existing exit time", tenantID, id, err)
	}

	from := deal.StageID
	expected := deal.Version
	deal.MoveTo(stageID, s.opts.now())

	if err := s.deals.SaveTransition(ctx, deal, expected); err != nil {
		switch {
		case apperr.IsConflict(err):
			s.opts.metrics.ObserveTransition(metrics.TransitionConflict)
		case apperr.IsValidation(err):
			s.opts.metrics.ObserveTransition(metrics.TransitionRejected)
		}
		return nil, err
	}
	s.opts.metrics.ObserveTransition(metrics.TransitionApplied)
	log.Printf("[deals][transition] tenant=%d deal=%d %s -> %s version=%d",
		tenantID, id, from, stageID, deal.Version)
	return deal, nil
}

func (s *dealService) UpdateFields(ctx context.Context, tenantID, id int64, patch models.DealPatch) (*models.Deal, error) {
	deal, err := s.deals.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(deal)
	deal.Title = strings.TrimSpace(deal.Title)
	if err := validateDealFields(deal.Title, deal.Amount, deal.Status, deal.Probability); err != nil {
		return nil, err
	}
	if err := s.deals.UpdateFields(ctx, deal); err != nil {
		return nil, err
	}
	return deal, nil
}

func (s *dealService) Update(ctx context.Context, tenantID, id int64, stageID *string, patch models.DealPatch) (*models.Deal, error) {
	if stageID == nil {
		return s.UpdateFields(ctx, tenantID, id, patch)
	}

	current, err := s.deals.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	preview := *current
	patch.Apply(&preview)
	if err := validateDealFields(preview.Title, preview.Amount, preview.Status, preview.Probability); err != nil {
		return nil, err
	}

	deal, err := s.TransitionStage(ctx, tenantID, id, *stageID)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return deal, nil
	}
	return s.UpdateFields(ctx, tenantID, id, patch)
}

func (s *dealService) Delete(ctx context.Context, tenantID, id int64) error {
	if err := s.deals.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	log.Printf("[deals][delete] tenant=%d id=%d", tenantID, id)
	return nil
}

func (s *dealService) Stats(ctx context.Context, tenantID int64) (models.DealStats, error) {
	return s.deals.Stats(ctx, tenantID)
}
