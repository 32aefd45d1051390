package quota_test

import (
	"testing"

	quota "github.com/zhouzirui/cupid-agent/backend/internal/model/quota"
)

func TestNormalizeSameDayKeepsCount(t *testing.T) {
	rec := quota.Normalize(quota.Record{Date: "2026-08-29", Count: 4}, "2026-08-29")
	if rec.Count != 4 {
		t.Fatalf("expected count preserved, got %d", rec.Count)
	}
}

func TestNormalizeStaleDayResets(t *testing.T) {
	rec := quota.Normalize(quota.Record{Date: "2026-08-28", Count: 9}, "2026-08-29")
	if rec.Date != "2026-08-29" || rec.Count != 0 {
		t.Fatalf("expected fresh record, got %+v", rec)
	}
}

func TestNormalizeNegativeCountResets(t *testing.T) {
	rec := quota.Normalize(quota.Record{Date: "2026-08-29", Count: -1}, "2026-08-29")
	if rec.Count != 0 {
		t.Fatalf("expected count 0, got %d", rec.Count)
	}
}

func TestIncrementRollsOverFirst(t *testing.T) {
	rec := quota.Increment(quota.Record{Date: "2026-08-28", Count: 9}, "2026-08-29")
	if rec.Date != "2026-08-29" || rec.Count != 1 {
		t.Fatalf("expected {2026-08-29 1}, got %+v", rec)
	}
}
