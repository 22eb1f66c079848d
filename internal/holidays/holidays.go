package holidays

import (
	"fmt"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"

	"bizcal/internal/schedule"
)

// sets holds the public holidays observed per country code.
var sets = map[string][]*cal.Holiday{
	"us": {
		us.NewYear,
		us.MlkDay,
		us.MemorialDay,
		us.Juneteenth,
		us.IndependenceDay,
		us.LaborDay,
		us.ThanksgivingDay,
		us.ChristmasDay,
	},
}

// Countries lists the supported country codes.
func Countries() []string {
	out := make([]string, 0, len(sets))
	for k := range sets {
		out = append(out, k)
	}
	return out
}

// ForYear returns the observed public holidays of country in year as dated single-day ranges.
func ForYear(country string, year int) ([]schedule.Holiday, error) {
	set, ok := sets[strings.ToLower(country)]
	if !ok {
		return nil, fmt.Errorf("unsupported public holiday country %q", country)
	}
	var out []schedule.Holiday
	for _, h := range set {
		_, observed := h.Calc(year)
		if observed.IsZero() {
			continue
		}
		d := time.Date(observed.Year(), observed.Month(), observed.Day(), 0, 0, 0, 0, time.UTC)
		out = append(out, schedule.Holiday{Name: h.Name, Start: d, End: d, Dated: true})
	}
	return out, nil
}

// Merge appends the holidays in add that are not already present in base, keyed by
// name and start date. It returns the merged list and how many were added.
func Merge(base, add []schedule.Holiday) ([]schedule.Holiday, int) {
	seen := make(map[string]bool, len(base))
	for _, h := range base {
		seen[key(h)] = true
	}
	out := append([]schedule.Holiday(nil), base...)
	n := 0
	for _, h := range add {
		if seen[key(h)] {
			continue
		}
		seen[key(h)] = true
		out = append(out, h)
		n++
	}
	return out, n
}

func key(h schedule.Holiday) string { return h.Name + "|" + schedule.FormatDate(h.Start) }
