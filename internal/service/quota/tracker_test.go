package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	quotaModel "github.com/zhouzirui/cupid-agent/backend/internal/model/quota"
)

type failingStore struct{}

func (failingStore) Load(context.Context) (quotaModel.Record, bool, error) {
	return quotaModel.Record{}, false, errors.New("storage unavailable")
}

func (failingStore) Save(context.Context, quotaModel.Record) error {
	return errors.New("storage unavailable")
}

func fixedNow(day string) func() time.Time {
	parsed, _ := time.ParseInLocation(quotaModel.DateLayout, day, time.Local)
	return func() time.Time { return parsed }
}

func TestIsLimitReachedBoundary(t *testing.T) {
	ctx := context.Background()
	today := quotaModel.Today(time.Now())

	for count := 0; count <= 12; count++ {
		store := quotaModel.NewMemoryStore()
		store.Save(ctx, quotaModel.Record{Date: today, Count: count})

		tracker := NewTracker(store, 10)
		tracker.Initialize(ctx)

		want := count >= 10
		if got := tracker.IsLimitReached(); got != want {
			t.Fatalf("count=%d: IsLimitReached=%v, want %v", count, got, want)
		}
	}
}

func TestInitializeRolloverFromPriorDay(t *testing.T) {
	ctx := context.Background()
	store := quotaModel.NewMemoryStore()
	store.Save(ctx, quotaModel.Record{Date: "2026-08-28", Count: 7})

	tracker := NewTracker(store, 10)
	tracker.now = fixedNow("2026-08-29")
	tracker.Initialize(ctx)

	snap := tracker.Snapshot()
	if snap.Count != 0 {
		t.Fatalf("expected count reset to 0, got %d", snap.Count)
	}
	if snap.Date != "2026-08-29" {
		t.Fatalf("expected today's date, got %s", snap.Date)
	}

	// Rollover must be written back through the store.
	rec, ok, err := store.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load err=%v ok=%v", err, ok)
	}
	if rec.Date != "2026-08-29" || rec.Count != 0 {
		t.Fatalf("stored record not rolled over: %+v", rec)
	}
}

func TestIncrementPersists(t *testing.T) {
	ctx := context.Background()
	store := quotaModel.NewMemoryStore()

	tracker := NewTracker(store, 10)
	tracker.Initialize(ctx)
	tracker.Increment(ctx)
	tracker.Increment(ctx)

	snap := tracker.Snapshot()
	if snap.Count != 2 {
		t.Fatalf("expected count 2, got %d", snap.Count)
	}

	rec, ok, _ := store.Load(ctx)
	if !ok || rec.Count != 2 {
		t.Fatalf("stored record mismatch: %+v ok=%v", rec, ok)
	}
}

func TestIncrementAcrossMidnightResets(t *testing.T) {
	ctx := context.Background()
	store := quotaModel.NewMemoryStore()

	tracker := NewTracker(store, 10)
	tracker.now = fixedNow("2026-08-28")
	tracker.Initialize(ctx)
	tracker.Increment(ctx)

	tracker.now = fixedNow("2026-08-29")
	if tracker.IsLimitReached() {
		t.Fatal("new day should not be limited")
	}
	tracker.Increment(ctx)

	snap := tracker.Snapshot()
	if snap.Date != "2026-08-29" || snap.Count != 1 {
		t.Fatalf("expected fresh count for new day, got %+v", snap)
	}
}

func TestFailOpenOnStoreError(t *testing.T) {
	ctx := context.Background()

	tracker := NewTracker(failingStore{}, 10)
	tracker.Initialize(ctx)

	if tracker.IsLimitReached() {
		t.Fatal("storage failure must not block usage")
	}

	// Increments still count in memory even when persistence fails.
	tracker.Increment(ctx)
	if snap := tracker.Snapshot(); snap.Count != 1 {
		t.Fatalf("expected in-memory count 1, got %d", snap.Count)
	}
}

func TestNewTrackerDefaultsMax(t *testing.T) {
	tracker := NewTracker(quotaModel.NewMemoryStore(), 0)
	if snap := tracker.Snapshot(); snap.Max != DefaultMaxDaily {
		t.Fatalf("expected default max %d, got %d", DefaultMaxDaily, snap.Max)
	}
}
