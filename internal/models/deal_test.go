package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDealMoveToBuildsHistory(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	t1 := t0.Add(2 * time.Hour)
	t2 := t1.Add(24 * time.Hour)

	d := &Deal{ID: 1}
	d.EnterInitialStage("A", t0)
	require.NoError(t, d.CheckHistory())

	assert.True(t, d.MoveTo("B", t1))
	assert.True(t, d.MoveTo("C", t2))
	require.NoError(t, d.CheckHistory())

	require.Len(t, d.StageHistory, 3)
	assert.Equal(t, "C", d.StageID)

	assert.Equal(t, "A", d.StageHistory[0].StageID)
	assert.Equal(t, t0, d.StageHistory[0].EnteredAt)
	assert.Equal(t, t1, *d.StageHistory[0].ExitedAt)

	assert.Equal(t, "B", d.StageHistory[1].StageID)
	assert.Equal(t, t1, d.StageHistory[1].EnteredAt)
	assert.Equal(t, t2, *d.StageHistory[1].ExitedAt)

	assert.Equal(t, "C", d.StageHistory[2].StageID)
	assert.Equal(t, t2, d.StageHistory[2].EnteredAt)
	assert.Nil(t, d.StageHistory[2].ExitedAt)
}

func TestDealMoveToSameStageIsNoop(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	d := &Deal{}
	d.EnterInitialStage("A", t0)
	before := d.StageHistory

	assert.False(t, d.MoveTo("A", t0.Add(time.Hour)))
	assert.Equal(t, before, d.StageHistory)
	assert.Nil(t, d.StageHistory[0].ExitedAt)
}

func TestDealMoveToDoesNotMutatePreviousHistory(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	d := &Deal{}
	d.EnterInitialStage("A", t0)
	snapshot := d.StageHistory

	d.MoveTo("B", t0.Add(time.Minute))
	assert.Nil(t, snapshot[0].ExitedAt)
	assert.Len(t, snapshot, 1)
}

func TestDealMoveBackward(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	d := &Deal{}
	d.EnterInitialStage("A", t0)
	d.MoveTo("B", t0.Add(time.Hour))
	d.MoveTo("A", t0.Add(2*time.Hour))

	require.NoError(t, d.CheckHistory())
	assert.Len(t, d.StageHistory, 3)
	assert.Equal(t, "A", d.StageID)
}

func TestDealCheckHistoryDetectsDefects(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	exited := t0.Add(time.Hour)

	tests := []struct {
		name string
		deal Deal
	}{
		{"empty", Deal{StageID: "A"}},
		{"two open entries", Deal{StageID: "B", StageHistory: []StageHistoryEntry{
			{StageID: "A", EnteredAt: t0},
			{StageID: "B", EnteredAt: t0},
		}}},
		{"last does not match", Deal{StageID: "C", StageHistory: []StageHistoryEntry{
			{StageID: "A", EnteredAt: t0, ExitedAt: &exited},
			{StageID: "B", EnteredAt: exited},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.deal.CheckHistory()
			assert.Error(t, err)
			assert.NotErrorIs(t, err, ErrNoOpenEntry)
		})
	}
}

func TestDealCheckHistoryClosedLastEntry(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	exited := t0.Add(time.Hour)
	d := Deal{StageID: "A", StageHistory: []StageHistoryEntry{{StageID: "A", EnteredAt: t0, ExitedAt: &exited}}}

	assert.ErrorIs(t, d.CheckHistory(), ErrNoOpenEntry)

	// Moving on must not overwrite the existing exit time.
	d.MoveTo("B", t0.Add(5*time.Hour))
	assert.Equal(t, exited, *d.StageHistory[0].ExitedAt)
	assert.NoError(t, d.CheckHistory())
}

func TestStageHistoryEntryDuration(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	exited := t0.Add(36 * time.Hour)
	closed := StageHistoryEntry{StageID: "A", EnteredAt: t0, ExitedAt: &exited}
	open := StageHistoryEntry{StageID: "B", EnteredAt: t0}

	assert.Equal(t, 36*time.Hour, closed.Duration(t0.Add(100*time.Hour)))
	assert.Equal(t, 3*time.Hour, open.Duration(t0.Add(3*time.Hour)))
	assert.Zero(t, open.Duration(t0.Add(-time.Hour)))
}

func TestDealPatchLeavesStageAlone(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	d := &Deal{Title: "old", Status: DealOpen}
	d.EnterInitialStage("A", t0)

	title := "new"
	status := DealWon
	amount := 1500.0
	DealPatch{Title: &title, Status: &status, Amount: &amount}.Apply(d)

	assert.Equal(t, "new", d.Title)
	assert.Equal(t, DealWon, d.Status)
	assert.Equal(t, 1500.0, d.Amount)
	assert.Equal(t, "A", d.StageID)
	assert.Len(t, d.StageHistory, 1)
}

func TestPipelineStageOrdering(t *testing.T) {
	p := &Pipeline{Stages: []Stage{
		{ID: "won", Name: "Won", Order: 5},
		{ID: "lead", Name: "Lead", Order: 0},
		{ID: "demo", Name: "Demo", Order: 2},
		{ID: "call", Name: "Call", Order: 2},
	}}

	ordered := p.OrderedStages()
	ids := make([]string, 0, len(ordered))
	for _, s := range ordered {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"lead", "demo", "call", "won"}, ids)

	first, ok := p.FirstStage()
	require.True(t, ok)
	assert.Equal(t, "lead", first.ID)

	assert.True(t, p.HasStage("demo"))
	assert.False(t, p.HasStage("lost"))
	assert.Equal(t, []string{"won", "call"}, p.RemovedStages([]Stage{{ID: "lead"}, {ID: "demo"}}))
}
