// Package memory provides in-memory pipeline and deal repositories with the
// same semantics as the postgres ones. Used by tests and the "memory" driver.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"dealdesk/internal/apperr"
	"dealdesk/internal/models"
	"dealdesk/internal/repositories"
)

var (
	_ repositories.PipelineRepository = (*PipelineRepository)(nil)
	_ repositories.DealRepository     = (*DealRepository)(nil)
)

// Store holds all state behind one mutex, which makes every repository call
// atomic with respect to every other one.
type Store struct {
	mu         sync.Mutex
	now        func() time.Time
	pipelineID int64
	dealID     int64
	pipelines  map[int64]models.Pipeline
	deals      map[int64]models.Deal
}

func NewStore() *Store {
	return &Store{
		now:       func() time.Time { return time.Now().UTC() },
		pipelines: make(map[int64]models.Pipeline),
		deals:     make(map[int64]models.Deal),
	}
}

// SetNowFunc overrides the clock used for created/updated timestamps.
func (s *Store) SetNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Pipelines() *PipelineRepository { return &PipelineRepository{s: s} }
func (s *Store) Deals() *DealRepository         { return &DealRepository{s: s} }

func clonePipeline(p models.Pipeline) models.Pipeline {
	p.Stages = append([]models.Stage(nil), p.Stages...)
	return p
}

func cloneDeal(d models.Deal) models.Deal {
	history := make([]models.StageHistoryEntry, len(d.StageHistory))
	for i, e := range d.StageHistory {
		if e.ExitedAt != nil {
			t := *e.ExitedAt
			e.ExitedAt = &t
		}
		history[i] = e
	}
	d.StageHistory = history
	if d.CloseDate != nil {
		t := *d.CloseDate
		d.CloseDate = &t
	}
	return d
}

type PipelineRepository struct{ s *Store }

func (r *PipelineRepository) nameTaken(tenantID, exceptID int64, name string) bool {
	for _, p := range r.s.pipelines {
		if p.TenantID == tenantID && p.ID != exceptID && p.Name == name {
			return true
		}
	}
	return false
}

func validateStageIDs(stages []models.Stage) error {
	seen := make(map[string]struct{}, len(stages))
	for _, st := range stages {
		if _, dup := seen[st.ID]; dup {
			return apperr.Validation("duplicate stage id %q", st.ID)
		}
		seen[st.ID] = struct{}{}
	}
	return nil
}

func (r *PipelineRepository) Create(_ context.Context, p *models.Pipeline) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.nameTaken(p.TenantID, 0, p.Name) {
		return apperr.Conflict("pipeline %q already exists", p.Name)
	}
	if err := validateStageIDs(p.Stages); err != nil {
		return err
	}
	r.s.pipelineID++
	p.ID = r.s.pipelineID
	p.CreatedAt = r.s.now()
	p.UpdatedAt = p.CreatedAt
	r.s.pipelines[p.ID] = clonePipeline(*p)
	return nil
}

func (r *PipelineRepository) get(tenantID, id int64) (models.Pipeline, error) {
	p, ok := r.s.pipelines[id]
	if !ok || p.TenantID != tenantID {
		return models.Pipeline{}, apperr.NotFound("pipeline not found")
	}
	return p, nil
}

func (r *PipelineRepository) GetByID(_ context.Context, tenantID, id int64) (*models.Pipeline, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, err := r.get(tenantID, id)
	if err != nil {
		return nil, err
	}
	out := clonePipeline(p)
	return &out, nil
}

func (r *PipelineRepository) sorted(tenantID int64) []models.Pipeline {
	out := []models.Pipeline{}
	for _, p := range r.s.pipelines {
		if p.TenantID == tenantID {
			out = append(out, clonePipeline(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *PipelineRepository) GetEarliest(_ context.Context, tenantID int64) (*models.Pipeline, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all := r.sorted(tenantID)
	if len(all) == 0 {
		return nil, apperr.NotFound("no pipeline configured")
	}
	return &all[0], nil
}

func (r *PipelineRepository) List(_ context.Context, tenantID int64) ([]models.Pipeline, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.sorted(tenantID), nil
}

func (r *PipelineRepository) Update(_ context.Context, p *models.Pipeline) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, err := r.get(p.TenantID, p.ID)
	if err != nil {
		return err
	}
	if r.nameTaken(p.TenantID, p.ID, p.Name) {
		return apperr.Conflict("pipeline %q already exists", p.Name)
	}
	if err := validateStageIDs(p.Stages); err != nil {
		return err
	}
	if removed := current.RemovedStages(p.Stages); len(removed) > 0 {
		gone := make(map[string]struct{}, len(removed))
		for _, id := range removed {
			gone[id] = struct{}{}
		}
		inUse := 0
		for _, d := range r.s.deals {
			if d.TenantID != p.TenantID || d.PipelineID != p.ID {
				continue
			}
			if _, ok := gone[d.StageID]; ok {
				inUse++
			}
		}
		if inUse > 0 {
			return apperr.Conflict("%d deal(s) are still in stages removed by this update", inUse)
		}
	}

	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = r.s.now()
	r.s.pipelines[p.ID] = clonePipeline(*p)
	return nil
}

func (r *PipelineRepository) Delete(_ context.Context, tenantID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, err := r.get(tenantID, id); err != nil {
		return err
	}
	for _, d := range r.s.deals {
		if d.TenantID == tenantID && d.PipelineID == id {
			return apperr.Conflict("pipeline has deals attached")
		}
	}
	delete(r.s.pipelines, id)
	return nil
}

type DealRepository struct{ s *Store }

func (r *DealRepository) requireStage(tenantID, pipelineID int64, stageID string) error {
	p, ok := r.s.pipelines[pipelineID]
	if !ok || p.TenantID != tenantID || !p.HasStage(stageID) {
		return apperr.Validation("stage %q does not belong to pipeline %d", stageID, pipelineID)
	}
	return nil
}

func (r *DealRepository) Create(_ context.Context, d *models.Deal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.requireStage(d.TenantID, d.PipelineID, d.StageID); err != nil {
		return err
	}
	r.s.dealID++
	d.ID = r.s.dealID
	d.Version = 1
	d.UpdatedAt = d.CreatedAt
	r.s.deals[d.ID] = cloneDeal(*d)
	return nil
}

func (r *DealRepository) get(tenantID, id int64) (models.Deal, error) {
	d, ok := r.s.deals[id]
	if !ok || d.TenantID != tenantID {
		return models.Deal{}, apperr.NotFound("deal not found")
	}
	return d, nil
}

func (r *DealRepository) GetByID(_ context.Context, tenantID, id int64) (*models.Deal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, err := r.get(tenantID, id)
	if err != nil {
		return nil, err
	}
	out := cloneDeal(d)
	return &out, nil
}

func matches(d models.Deal, f models.DealFilter) bool {
	switch {
	case f.ContactID != nil && d.ContactID != *f.ContactID:
		return false
	case f.PipelineID != nil && d.PipelineID != *f.PipelineID:
		return false
	case f.OwnerID != nil && d.OwnerID != *f.OwnerID:
		return false
	case f.Status != nil && d.Status != *f.Status:
		return false
	}
	return true
}

func (r *DealRepository) List(_ context.Context, tenantID int64, filter models.DealFilter) ([]models.Deal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []models.Deal{}
	for _, d := range r.s.deals {
		if d.TenantID == tenantID && matches(d, filter) {
			out = append(out, cloneDeal(d))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *DealRepository) UpdateFields(_ context.Context, d *models.Deal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, err := r.get(d.TenantID, d.ID)
	if err != nil {
		return err
	}
	// Stage columns and version are owned by SaveTransition.
	next := cloneDeal(*d)
	next.StageID = stored.StageID
	next.StageHistory = stored.StageHistory
	next.Version = stored.Version
	next.PipelineID = stored.PipelineID
	next.UpdatedAt = r.s.now()
	d.UpdatedAt = next.UpdatedAt
	r.s.deals[d.ID] = next
	return nil
}

func (r *DealRepository) SaveTransition(_ context.Context, d *models.Deal, expectedVersion int64) error {
	if n := len(d.StageHistory); n < 2 || d.StageHistory[n-2].ExitedAt == nil {
		return apperr.Internal(models.ErrNoTransition, "deal %d: no transition recorded in history", d.ID)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, err := r.get(d.TenantID, d.ID)
	if err != nil {
		return err
	}
	if err := r.requireStage(d.TenantID, stored.PipelineID, d.StageID); err != nil {
		return err
	}
	if stored.Version != expectedVersion {
		return apperr.Conflict("deal %d was changed concurrently, reload and retry", d.ID)
	}

	stored.StageID = d.StageID
	stored.StageHistory = d.StageHistory
	stored.Version = expectedVersion + 1
	stored.UpdatedAt = d.StageHistory[len(d.StageHistory)-1].EnteredAt
	r.s.deals[d.ID] = cloneDeal(stored)

	d.Version = stored.Version
	d.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *DealRepository) Delete(_ context.Context, tenantID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, err := r.get(tenantID, id); err != nil {
		return err
	}
	delete(r.s.deals, id)
	return nil
}

func (r *DealRepository) Stats(_ context.Context, tenantID int64) (models.DealStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var s models.DealStats
	for _, d := range r.s.deals {
		if d.TenantID != tenantID {
			continue
		}
		switch d.Status {
		case models.DealOpen:
			s.OpenDeals++
		case models.DealWon:
			s.WonDeals++
		case models.DealLost:
			s.LostDeals++
		}
		s.TotalDealValue += d.Amount
	}
	return s, nil
}
