package quota

import "time"

// StorageKey is the single fixed key the usage record lives under.
const StorageKey = "cupid_usage"

// DateLayout formats calendar days in server-local time; the rollover
// boundary is local midnight.
const DateLayout = "2006-01-02"

// Record 记录某个自然日内已消耗的分析次数。全局只有一条。
type Record struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Today returns the current local calendar day in DateLayout.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// Normalize resets the record whenever the stored day differs from today.
// Pure function of (record, today) so rollover is testable without a store.
func Normalize(rec Record, today string) Record {
	if rec.Date != today || rec.Count < 0 {
		return Record{Date: today, Count: 0}
	}
	return rec
}

// Increment bumps the count for today, rolling over stale records first.
func Increment(rec Record, today string) Record {
	rec = Normalize(rec, today)
	rec.Count++
	return rec
}
