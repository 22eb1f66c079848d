package analytics

import (
	"sort"
	"time"

	"bizcal/internal/model"
)

// Summary describes a set of logged resolutions.
type Summary struct {
	Count int
	// Requests resolved to a later moment than asked for
	Deferred int
	MeanDelay time.Duration
	MaxDelay  time.Duration
}

// Summarize computes counts and delays between requested and resolved times.
func Summarize(rs []model.Resolution) Summary {
	var s Summary
	var total time.Duration
	for _, r := range rs {
		s.Count++
		d := r.ResolvedAt.Sub(r.RequestedAt)
		if d <= 0 {
			continue
		}
		s.Deferred++
		total += d
		if d > s.MaxDelay {
			s.MaxDelay = d
		}
	}
	if s.Deferred > 0 {
		s.MeanDelay = total / time.Duration(s.Deferred)
	}
	return s
}

// HourlyResolved buckets resolutions by the hour they resolved to.
func HourlyResolved(rs []model.Resolution) map[time.Time]int {
	buckets := make(map[time.Time]int)
	for _, r := range rs {
		t := r.ResolvedAt
		buckets[time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)]++
	}
	return buckets
}

// SortedBucketKeys returns sorted hour keys.
func SortedBucketKeys(m map[time.Time]int) []time.Time {
	keys := make([]time.Time, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	return keys
}
