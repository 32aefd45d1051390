package quota

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/zhouzirui/cupid-agent/backend/internal/model/quota"
)

// DefaultMaxDaily is the advisory daily analysis cap.
const DefaultMaxDaily = 10

// Snapshot is the externally visible usage state.
type Snapshot struct {
	Date         string `json:"date"`
	Count        int    `json:"count"`
	Max          int    `json:"max"`
	LimitReached bool   `json:"limitReached"`
}

// Tracker gates analysis calls behind a per-day counter. The limit is
// advisory: storage failure means count 0 and not limited, never a blocked UI.
type Tracker struct {
	store quota.Store
	max   int
	now   func() time.Time

	mu  sync.Mutex
	rec quota.Record
}

// NewTracker wires the tracker to its store. maxDaily <= 0 falls back to
// DefaultMaxDaily.
func NewTracker(store quota.Store, maxDaily int) *Tracker {
	if maxDaily <= 0 {
		maxDaily = DefaultMaxDaily
	}
	return &Tracker{
		store: store,
		max:   maxDaily,
		now:   time.Now,
	}
}

// Initialize loads the persisted record, rolling stale days over to
// {today, 0} and writing the fresh record back.
func (t *Tracker) Initialize(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	today := quota.Today(t.now())

	rec, ok, err := t.store.Load(ctx)
	if err != nil {
		log.Printf("[quota] load failed, assuming zero usage: %v", err)
		t.rec = quota.Record{Date: today, Count: 0}
		return
	}

	if !ok || rec.Date != today {
		rec = quota.Record{Date: today, Count: 0}
		if err := t.store.Save(ctx, rec); err != nil {
			log.Printf("[quota] save failed during rollover: %v", err)
		}
	}
	t.rec = rec
}

// IsLimitReached reports whether today's count has hit the cap.
func (t *Tracker) IsLimitReached() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentLocked() >= t.max
}

// Increment records one successful analysis. Call it only after the provider
// call succeeded so failed calls never consume quota.
func (t *Tracker) Increment(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	today := quota.Today(t.now())
	t.rec = quota.Increment(t.rec, today)
	if err := t.store.Save(ctx, t.rec); err != nil {
		log.Printf("[quota] save failed after increment: %v", err)
	}
}

// Snapshot returns the current usage state for display.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := t.currentLocked()
	return Snapshot{
		Date:         t.rec.Date,
		Count:        count,
		Max:          t.max,
		LimitReached: count >= t.max,
	}
}

// currentLocked applies day rollover in memory without touching the store,
// so a tracker that lives across midnight reads as zero again.
func (t *Tracker) currentLocked() int {
	today := quota.Today(t.now())
	t.rec = quota.Normalize(t.rec, today)
	return t.rec.Count
}
