package services_test

import (
	"sync"
	"time"

	"dealdesk/internal/repositories/memory"
	"dealdesk/internal/services"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

type fixture struct {
	clock     *fakeClock
	store     *memory.Store
	pipelines services.PipelineService
	deals     services.DealService
	analytics services.AnalyticsService
}

func newFixture() *fixture {
	clock := newFakeClock()
	store := memory.NewStore()
	store.SetNowFunc(clock.Now)
	return &fixture{
		clock:     clock,
		store:     store,
		pipelines: services.NewPipelineService(store.Pipelines()),
		deals:     services.NewDealService(store.Deals(), store.Pipelines(), services.WithClock(clock.Now)),
		analytics: services.NewAnalyticsService(store.Deals(), store.Pipelines(), services.WithClock(clock.Now)),
	}
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }
func strPtr(v string) *string { return &v }
