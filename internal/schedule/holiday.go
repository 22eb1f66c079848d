package schedule

import "time"

// HolidayRule reports the first holiday containing the calendar date of t.
type HolidayRule func(holidays []Holiday, t time.Time) (Holiday, bool)

// MatchLiteral compares against each holiday's own recorded dates.
func MatchLiteral(holidays []Holiday, t time.Time) (Holiday, bool) {
	d := dateOf(t)
	for _, h := range holidays {
		if !d.Before(dateOf(h.Start)) && !d.After(dateOf(h.End)) {
			return h, true
		}
	}
	return Holiday{}, false
}

// MatchRecurring re-anchors each holiday's month/day to the year of t, so a range
// recorded once recurs every year. Ranges that wrap the new year never match.
// Dated holidays only match their own dates.
func MatchRecurring(holidays []Holiday, t time.Time) (Holiday, bool) {
	d := dateOf(t)
	y := d.Year()
	for _, h := range holidays {
		if h.Dated {
			if !d.Before(dateOf(h.Start)) && !d.After(dateOf(h.End)) {
				return h, true
			}
			continue
		}
		start := time.Date(y, h.Start.Month(), h.Start.Day(), 0, 0, 0, 0, time.UTC)
		end := time.Date(y, h.End.Month(), h.End.Day(), 0, 0, 0, 0, time.UTC)
		if !d.Before(start) && !d.After(end) {
			return Holiday{Name: h.Name, Start: start, End: end}, true
		}
	}
	return Holiday{}, false
}

// IsHoliday applies the literal rule to def.
func IsHoliday(def *Definition, t time.Time) bool {
	_, ok := MatchLiteral(def.Holidays, t)
	return ok
}
