package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealdesk/internal/apperr"
	"dealdesk/internal/models"
)

func TestCreatePipelineNormalizesStages(t *testing.T) {
	f := newFixture()
	p, err := f.pipelines.Create(context.Background(), 1, "  Sales  ", []models.StageInput{
		{Name: " Lead "},
		{Name: "   "},
		{Name: "Proposal", Order: intPtr(10)},
		{ID: "won", Name: "Won"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Sales", p.Name)
	require.Len(t, p.Stages, 3)
	assert.Equal(t, "Lead", p.Stages[0].Name)
	assert.Equal(t, 0, p.Stages[0].Order)
	assert.NotEmpty(t, p.Stages[0].ID)
	assert.Equal(t, 10, p.Stages[1].Order)
	// positional order counts the dropped blank entry
	assert.Equal(t, "won", p.Stages[2].ID)
	assert.Equal(t, 3, p.Stages[2].Order)
}

func TestCreatePipelineValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.pipelines.Create(ctx, 1, " ", []models.StageInput{{Name: "A"}})
	assert.True(t, apperr.IsValidation(err))

	_, err = f.pipelines.Create(ctx, 1, "Sales", nil)
	assert.True(t, apperr.IsValidation(err))

	_, err = f.pipelines.Create(ctx, 1, "Sales", []models.StageInput{{Name: " "}, {Name: ""}})
	assert.True(t, apperr.IsValidation(err))

	_, err = f.pipelines.Create(ctx, 1, "Sales", []models.StageInput{{ID: "x", Name: "A"}, {ID: "x", Name: "B"}})
	assert.True(t, apperr.IsValidation(err))
}

func TestCreatePipelineDuplicateName(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.pipelines.Create(ctx, 1, "Sales", []models.StageInput{{Name: "A"}})
	require.NoError(t, err)

	_, err = f.pipelines.Create(ctx, 1, "Sales", []models.StageInput{{Name: "B"}})
	assert.True(t, apperr.IsConflict(err))

	_, err = f.pipelines.Create(ctx, 2, "Sales", []models.StageInput{{Name: "B"}})
	assert.NoError(t, err)
}

func TestUpdatePipeline(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p, err := f.pipelines.Create(ctx, 1, "Sales", []models.StageInput{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}})
	require.NoError(t, err)

	renamed, err := f.pipelines.Update(ctx, 1, p.ID, models.PipelineUpdate{Name: strPtr("Enterprise")})
	require.NoError(t, err)
	assert.Equal(t, "Enterprise", renamed.Name)
	assert.Len(t, renamed.Stages, 2)

	stages := []models.StageInput{{ID: "b", Name: "Bee", Order: intPtr(0)}, {ID: "a", Name: "A", Order: intPtr(1)}}
	reordered, err := f.pipelines.Update(ctx, 1, p.ID, models.PipelineUpdate{Stages: &stages})
	require.NoError(t, err)
	first, ok := reordered.FirstStage()
	require.True(t, ok)
	assert.Equal(t, "b", first.ID)
	assert.Equal(t, "Bee", first.Name)

	_, err = f.pipelines.Update(ctx, 1, p.ID, models.PipelineUpdate{Name: strPtr("  ")})
	assert.True(t, apperr.IsValidation(err))

	empty := []models.StageInput{{Name: " "}}
	_, err = f.pipelines.Update(ctx, 1, p.ID, models.PipelineUpdate{Stages: &empty})
	assert.True(t, apperr.IsValidation(err))

	_, err = f.pipelines.Update(ctx, 2, p.ID, models.PipelineUpdate{Name: strPtr("x")})
	assert.True(t, apperr.IsNotFound(err))
}

func TestUpdatePipelineCannotOrphanDeals(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p, err := f.pipelines.Create(ctx, 1, "Sales", []models.StageInput{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}})
	require.NoError(t, err)
	_, err = f.deals.Create(ctx, models.Identity{TenantID: 1, UserID: 5}, models.DealInput{
		ContactID: 1, Title: "Deal", PipelineID: &p.ID, StageID: "b",
	})
	require.NoError(t, err)

	withoutB := []models.StageInput{{ID: "a", Name: "A"}}
	_, err = f.pipelines.Update(ctx, 1, p.ID, models.PipelineUpdate{Stages: &withoutB})
	assert.True(t, apperr.IsConflict(err))

	withoutA := []models.StageInput{{ID: "b", Name: "B"}}
	_, err = f.pipelines.Update(ctx, 1, p.ID, models.PipelineUpdate{Stages: &withoutA})
	assert.NoError(t, err)
}

func TestDeletePipeline(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p, err := f.pipelines.Create(ctx, 1, "Sales", []models.StageInput{{Name: "A"}})
	require.NoError(t, err)
	deal, err := f.deals.Create(ctx, models.Identity{TenantID: 1, UserID: 5}, models.DealInput{ContactID: 1, Title: "Deal"})
	require.NoError(t, err)

	err = f.pipelines.Delete(ctx, 1, p.ID)
	assert.True(t, apperr.IsConflict(err))

	require.NoError(t, f.deals.Delete(ctx, 1, deal.ID))
	require.NoError(t, f.pipelines.Delete(ctx, 1, p.ID))

	list, err := f.pipelines.List(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)

	err = f.pipelines.Delete(ctx, 1, p.ID)
	assert.True(t, apperr.IsNotFound(err))
}
