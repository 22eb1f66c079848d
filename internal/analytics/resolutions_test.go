package analytics

import (
	"testing"
	"time"

	"bizcal/internal/model"
)

func at(s string) time.Time {
	t, _ := time.Parse("2006-01-02 15:04", s)
	return t
}

func TestSummarize(t *testing.T) {
	rs := []model.Resolution{
		{RequestedAt: at("2024-01-08 10:00"), ResolvedAt: at("2024-01-08 10:00")},
		{RequestedAt: at("2024-01-08 07:00"), ResolvedAt: at("2024-01-08 08:00")},
		{RequestedAt: at("2024-01-08 20:00"), ResolvedAt: at("2024-01-09 08:00")},
	}
	s := Summarize(rs)
	if s.Count != 3 || s.Deferred != 2 { t.Fatalf("unexpected counts: %+v", s) }
	if s.MaxDelay != 12*time.Hour { t.Fatalf("max delay %v", s.MaxDelay) }
	if s.MeanDelay != 6*time.Hour+30*time.Minute { t.Fatalf("mean delay %v", s.MeanDelay) }
}

func TestHourlyResolved(t *testing.T) {
	rs := []model.Resolution{
		{ResolvedAt: at("2024-01-09 08:00")},
		{ResolvedAt: at("2024-01-08 08:15")},
		{ResolvedAt: at("2024-01-08 08:45")},
	}
	b := HourlyResolved(rs)
	keys := SortedBucketKeys(b)
	if len(keys) != 2 || !keys[0].Equal(at("2024-01-08 08:00")) { t.Fatalf("unexpected keys: %v", keys) }
	if b[keys[0]] != 2 || b[keys[1]] != 1 { t.Fatalf("unexpected buckets: %v", b) }
}
