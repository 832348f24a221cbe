package services

import (
	"fmt"
	"time"
)

const (
	listCacheTTL      = 1 * time.Minute
	detailCacheTTL    = 5 * time.Minute
	analyticsCacheTTL = 10 * time.Minute
)

const (
	IntervalDay   = "day"
	IntervalWeek  = "week"
	IntervalMonth = "month"
)

// SeriesPoint is one bucket of a generic count-over-time series.
type SeriesPoint struct {
	Period string `json:"period"`
	Count  int64  `json:"count"`
}

// GrowthRate returns the percentage change versus the preceding period.
// A period starting from zero counts as 100% growth when anything happened,
// and 0% when nothing did.
func GrowthRate(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - previous) / previous * 100
}

// BucketKey maps a timestamp to its trend bucket label for the interval.
func BucketKey(t time.Time, interval string) string {
	switch interval {
	case IntervalWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case IntervalMonth:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

func validInterval(interval string) bool {
	switch interval {
	case IntervalDay, IntervalWeek, IntervalMonth:
		return true
	}
	return false
}

// sortedBucketKeys walks the range start..end and returns bucket labels in
// chronological order, so trend series stay ordered even for empty buckets.
func sortedBucketKeys(from, to time.Time, interval string) []string {
	var keys []string
	seen := make(map[string]bool)
	for t := from; !t.After(to); t = t.AddDate(0, 0, 1) {
		key := BucketKey(t, interval)
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys
}
