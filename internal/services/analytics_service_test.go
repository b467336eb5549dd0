package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealdesk/internal/apperr"
	"dealdesk/internal/models"
	"dealdesk/internal/services"
)

func TestAnalyticsWithoutDeals(t *testing.T) {
	f := newFixture()
	p := abcPipeline(t, f)

	a, err := f.analytics.Compute(context.Background(), seller.TenantID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, a.WinRate)
	require.Len(t, a.PerStageAvgDays, 3)
	for _, s := range a.PerStageAvgDays {
		assert.Equal(t, 0.0, s.AvgDays, s.StageID)
	}
}

func TestAnalyticsStageOrder(t *testing.T) {
	f := newFixture()
	p := abcPipeline(t, f)

	a, err := f.analytics.Compute(context.Background(), seller.TenantID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.StageDwell{
		{StageID: "A", StageName: "Lead"},
		{StageID: "B", StageName: "Demo"},
		{StageID: "C", StageName: "Closing"},
	}, a.PerStageAvgDays)
	assert.Equal(t, "Sales", a.PipelineName)
}

func TestAnalyticsWinRate(t *testing.T) {
	f := newFixture()
	p := abcPipeline(t, f)
	ctx := context.Background()

	_, err := f.deals.Create(ctx, seller, models.DealInput{ContactID: 1, Title: "won", Status: models.DealWon})
	require.NoError(t, err)
	_, err = f.deals.Create(ctx, seller, models.DealInput{ContactID: 1, Title: "lost", Status: models.DealLost})
	require.NoError(t, err)
	_, err = f.deals.Create(ctx, seller, models.DealInput{ContactID: 1, Title: "open"})
	require.NoError(t, err)

	a, err := f.analytics.Compute(ctx, seller.TenantID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, a.WinRate)
}

func TestAnalyticsWinRateRounding(t *testing.T) {
	p := &models.Pipeline{ID: 1, Stages: []models.Stage{{ID: "A", Name: "A"}}}
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	deal := func(status models.DealStatus) models.Deal {
		d := models.Deal{Status: status}
		d.EnterInitialStage("A", now)
		return d
	}

	a, err := services.ComputePipelineAnalytics(p, []models.Deal{
		deal(models.DealWon), deal(models.DealLost), deal(models.DealLost),
	}, now)
	require.NoError(t, err)
	assert.Equal(t, 33.33, a.WinRate)
}

func TestAnalyticsOpenEntryMeasuredAgainstNow(t *testing.T) {
	f := newFixture()
	p := abcPipeline(t, f)
	ctx := context.Background()

	d, err := f.deals.Create(ctx, seller, models.DealInput{ContactID: 1, Title: "Deal"})
	require.NoError(t, err)
	f.clock.Advance(24 * time.Hour)
	_, err = f.deals.TransitionStage(ctx, seller.TenantID, d.ID, "B")
	require.NoError(t, err)

	f.clock.Advance(72 * time.Hour)
	a, err := f.analytics.Compute(ctx, seller.TenantID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, a.PerStageAvgDays[0].AvgDays)
	assert.Equal(t, 3.0, a.PerStageAvgDays[1].AvgDays)
	assert.Equal(t, 0.0, a.PerStageAvgDays[2].AvgDays)

	// still in B: the elapsed time keeps growing
	f.clock.Advance(12 * time.Hour)
	a, err = f.analytics.Compute(ctx, seller.TenantID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.5, a.PerStageAvgDays[1].AvgDays)
}

func TestAnalyticsAveragesAcrossEntries(t *testing.T) {
	f := newFixture()
	p := abcPipeline(t, f)
	ctx := context.Background()

	first, err := f.deals.Create(ctx, seller, models.DealInput{ContactID: 1, Title: "first"})
	require.NoError(t, err)
	f.clock.Advance(24 * time.Hour)
	second, err := f.deals.Create(ctx, seller, models.DealInput{ContactID: 1, Title: "second"})
	require.NoError(t, err)

	f.clock.Advance(24 * time.Hour)
	_, err = f.deals.TransitionStage(ctx, seller.TenantID, first.ID, "C")
	require.NoError(t, err)
	_, err = f.deals.TransitionStage(ctx, seller.TenantID, second.ID, "C")
	require.NoError(t, err)

	// first spent 2 days in A, second 1 day: 1.5 on average
	a, err := f.analytics.Compute(ctx, seller.TenantID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.5, a.PerStageAvgDays[0].AvgDays)
	assert.Equal(t, 0.0, a.PerStageAvgDays[2].AvgDays)
}

func TestAnalyticsIgnoresOtherPipelinesAndTenants(t *testing.T) {
	f := newFixture()
	p := abcPipeline(t, f)
	ctx := context.Background()
	other, err := f.pipelines.Create(ctx, seller.TenantID, "Other", []models.StageInput{{ID: "x", Name: "X"}})
	require.NoError(t, err)
	_, err = f.deals.Create(ctx, seller, models.DealInput{ContactID: 1, Title: "elsewhere", PipelineID: &other.ID, Status: models.DealWon})
	require.NoError(t, err)

	a, err := f.analytics.Compute(ctx, seller.TenantID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, a.WinRate)

	_, err = f.analytics.Compute(ctx, 2, p.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestAnalyticsSurfacesCorruptHistory(t *testing.T) {
	p := &models.Pipeline{ID: 1, Stages: []models.Stage{{ID: "A"}, {ID: "B"}}}
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	corrupt := models.Deal{ID: 9, StageID: "B", StageHistory: []models.StageHistoryEntry{
		{StageID: "A", EnteredAt: now},
		{StageID: "B", EnteredAt: now},
	}}

	_, err := services.ComputePipelineAnalytics(p, []models.Deal{corrupt}, now)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}
