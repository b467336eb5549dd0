package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoOpenEntry reports a history whose last entry was already closed.
// The transition engine tolerates it; everything else treats it as a defect.
var ErrNoOpenEntry = errors.New("current stage has no open history entry")

// ErrNoTransition reports a deal handed to a transition save whose history
// does not end with a closed entry followed by a new one.
var ErrNoTransition = errors.New("stage history does not end with a stage move")

type DealStatus string

const (
	DealOpen DealStatus = "open"
	DealWon  DealStatus = "won"
	DealLost DealStatus = "lost"
)

func (s DealStatus) Valid() bool {
	switch s {
	case DealOpen, DealWon, DealLost:
		return true
	}
	return false
}

// StageHistoryEntry records one stay of a deal in a stage. ExitedAt is nil
// while the deal is still there.
type StageHistoryEntry struct {
	StageID   string     `json:"stage_id"`
	EnteredAt time.Time  `json:"entered_at"`
	ExitedAt  *time.Time `json:"exited_at,omitempty"`
}

func (e StageHistoryEntry) Open() bool { return e.ExitedAt == nil }

// Duration is the time spent in the stage, measured to now for open entries.
func (e StageHistoryEntry) Duration(now time.Time) time.Duration {
	end := now
	if e.ExitedAt != nil {
		end = *e.ExitedAt
	}
	if d := end.Sub(e.EnteredAt); d > 0 {
		return d
	}
	return 0
}

type Deal struct {
	ID           int64               `json:"id"`
	TenantID     int64               `json:"tenant_id"`
	OwnerID      int64               `json:"owner_id"`
	ContactID    int64               `json:"contact_id"`
	PipelineID   int64               `json:"pipeline_id"`
	StageID      string              `json:"stage_id"`
	Title        string              `json:"title"`
	Amount       float64             `json:"amount"`
	Currency     string              `json:"currency"`
	Status       DealStatus          `json:"status"`
	Probability  int                 `json:"probability"`
	CloseDate    *time.Time          `json:"close_date,omitempty"`
	StageHistory []StageHistoryEntry `json:"stage_history"`
	Version      int64               `json:"version"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// EnterInitialStage seeds the history of a deal that has never been stored.
func (d *Deal) EnterInitialStage(stageID string, now time.Time) {
	d.StageID = stageID
	d.StageHistory = []StageHistoryEntry{{StageID: stageID, EnteredAt: now}}
}

// MoveTo closes the open history entry and appends one for stageID.
// It reports false and changes nothing when the deal is already there.
// The history slice is replaced, never mutated in place, so a caller
// holding the previous value still sees the old history.
func (d *Deal) MoveTo(stageID string, now time.Time) bool {
	if stageID == d.StageID {
		return false
	}
	next := make([]StageHistoryEntry, len(d.StageHistory), len(d.StageHistory)+1)
	copy(next, d.StageHistory)
	if n := len(next); n > 0 && next[n-1].ExitedAt == nil {
		exited := now
		next[n-1].ExitedAt = &exited
	}
	next = append(next, StageHistoryEntry{StageID: stageID, EnteredAt: now})
	d.StageHistory = next
	d.StageID = stageID
	return true
}

// CheckHistory verifies the stage history invariants: never empty, only the
// last entry open, and the last entry matching StageID.
func (d *Deal) CheckHistory() error {
	n := len(d.StageHistory)
	if n == 0 {
		return fmt.Errorf("deal %d: empty stage history", d.ID)
	}
	for i, e := range d.StageHistory[:n-1] {
		if e.Open() {
			return fmt.Errorf("deal %d: history entry %d (stage %s) is open but not last", d.ID, i, e.StageID)
		}
	}
	last := d.StageHistory[n-1]
	if last.StageID != d.StageID {
		return fmt.Errorf("deal %d: last history stage %s does not match current stage %s", d.ID, last.StageID, d.StageID)
	}
	if !last.Open() {
		return fmt.Errorf("deal %d: stage %s: %w", d.ID, d.StageID, ErrNoOpenEntry)
	}
	return nil
}

// DealInput carries the fields accepted when creating a deal.
type DealInput struct {
	ContactID   int64      `json:"contact_id" binding:"required,gt=0"`
	PipelineID  *int64     `json:"pipeline_id"`
	StageID     string     `json:"stage_id"`
	Title       string     `json:"title" binding:"required"`
	Amount      float64    `json:"amount" binding:"gte=0"`
	Currency    string     `json:"currency"`
	Status      DealStatus `json:"status"`
	Probability int        `json:"probability" binding:"gte=0,lte=100"`
	CloseDate   *time.Time `json:"close_date"`
}

// DealPatch holds the non-stage fields a generic update may change.
// Stage moves go through DealService.TransitionStage only.
type DealPatch struct {
	ContactID   *int64      `json:"contact_id" binding:"omitempty,gt=0"`
	Title       *string     `json:"title"`
	Amount      *float64    `json:"amount" binding:"omitempty,gte=0"`
	Currency    *string     `json:"currency"`
	Status      *DealStatus `json:"status"`
	Probability *int        `json:"probability" binding:"omitempty,gte=0,lte=100"`
	CloseDate   *time.Time  `json:"close_date"`
}

func (p DealPatch) Apply(d *Deal) {
	if p.ContactID != nil {
		d.ContactID = *p.ContactID
	}
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Amount != nil {
		d.Amount = *p.Amount
	}
	if p.Currency != nil {
		d.Currency = *p.Currency
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.Probability != nil {
		d.Probability = *p.Probability
	}
	if p.CloseDate != nil {
		d.CloseDate = p.CloseDate
	}
}

type DealFilter struct {
	ContactID  *int64
	PipelineID *int64
	OwnerID    *int64
	Status     *DealStatus
}

// DealStats is the dashboard summary over a tenant's deals.
type DealStats struct {
	OpenDeals      int     `json:"open_deals"`
	WonDeals       int     `json:"won_deals"`
	LostDeals      int     `json:"lost_deals"`
	TotalDealValue float64 `json:"total_deal_value"`
}

// Empty reports whether the patch changes nothing.
func (p DealPatch) Empty() bool {
	return p.ContactID == nil && p.Title == nil && p.Amount == nil && p.Currency == nil &&
		p.Status == nil && p.Probability == nil && p.CloseDate == nil
}
