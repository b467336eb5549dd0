package services

import (
	"context"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"dealdesk/internal/apperr"
	"dealdesk/internal/models"
	"dealdesk/internal/repositories"
)

const msPerDay = 24 * 60 * 60 * 1000

type AnalyticsService interface {
	Compute(ctx context.Context, tenantID, pipelineID int64) (*models.PipelineAnalytics, error)
}

type analyticsService struct {
	deals     repositories.DealRepository
	pipelines repositories.PipelineRepository
	opts      options
}

func NewAnalyticsService(deals repositories.DealRepository, pipelines repositories.PipelineRepository, opts ...Option) AnalyticsService {
	return &analyticsService{deals: deals, pipelines: pipelines, opts: buildOptions(opts)}
}

func (s *analyticsService) Compute(ctx context.Context, tenantID, pipelineID int64) (*models.PipelineAnalytics, error) {
	start := time.Now()
	defer func() { s.opts.metrics.ObserveAnalytics(time.Since(start)) }()

	pipeline, err := s.pipelines.GetByID(ctx, tenantID, pipelineID)
	if err != nil {
		return nil, err
	}
	deals, err := s.deals.List(ctx, tenantID, models.DealFilter{PipelineID: &pipeline.ID})
	if err != nil {
		return nil, err
	}
	return ComputePipelineAnalytics(pipeline, deals, s.opts.now())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputePipelineAnalytics derives win rate and average dwell time per stage.
// Open history entries are measured up to now.
func ComputePipelineAnalytics(p *models.Pipeline, deals []models.Deal, now time.Time) (*models.PipelineAnalytics, error) {
	var won, lost int
	totals := make(map[string]float64)
	counts := make(map[string]int)

	for i := range deals {
		d := &deals[i]
		if err := d.CheckHistory(); err != nil {
			log.Errorf("[analytics] pipeline=%d deal=%d: %v", p.ID, d.ID, err)
			return nil, apperr.Internal(err, "deal %d has an inconsistent stage history", d.ID)
		}

		switch d.Status {
		case models.DealWon:
			won++
		case models.DealLost:
			lost++
		}

		for _, e := range d.StageHistory {
			totals[e.StageID] += float64(e.Duration(now)) / float64(time.Millisecond)
			counts[e.StageID]++
		}
	}

	winRate := 0.0
	if closed := won + lost; closed > 0 {
		winRate = round2(float64(won) / float64(closed) * 100)
	}

	ordered := p.OrderedStages()
	perStage := make([]models.StageDwell, 0, len(ordered))
	for _, st := range ordered {
		avgMs := 0.0
		if n := counts[st.ID]; n > 0 {
			avgMs = totals[st.ID] / float64(n)
		}
		perStage = append(perStage, models.StageDwell{
			StageID:   st.ID,
			StageName: st.Name,
			AvgDays:   round2(avgMs / msPerDay),
		})
	}

	return &models.PipelineAnalytics{
		PipelineID:      p.ID,
		PipelineName:    p.Name,
		WinRate:         winRate,
		PerStageAvgDays: perStage,
	}, nil
}
