package schedule

import (
	"fmt"
	"time"
)

// DefaultMaxDays bounds every day walk to roughly ten years of day advances.
const DefaultMaxDays = 3660

// firstMinute is where the walker resumes after moving to a new day.
var firstMinute = NewClock(0, 1, 0)

// Walker advances a date/time day by day until it lands on business hours.
// The zero value walks with start-sorted windows, recurring holidays and the default horizon.
type Walker struct {
	Sort    SortMode
	MaxDays int
	// Holidays is the rule used by the day scan of NextValidRange. Nil means MatchRecurring.
	Holidays HolidayRule
	Sink     Sink
}

// Resolved is the outcome of NextValidRange.
type Resolved struct {
	Date     time.Time // calendar date, midnight
	Time     Clock
	At       time.Time
	Matched  Window   // last window matched by the day scan
	Windows  []Window // every window applicable to Date, sorted
	Advances int
}

func (w Walker) maxDays() int {
	if w.MaxDays <= 0 {
		return DefaultMaxDays
	}
	return w.MaxDays
}

func (w Walker) rule() HolidayRule {
	if w.Holidays == nil {
		return MatchRecurring
	}
	return w.Holidays
}

// ResolveInitialDate returns the first moment at or after t that falls on a work day,
// outside every literal holiday range and inside (or at the start of) a business window.
func (w Walker) ResolveInitialDate(def *Definition, t time.Time) (time.Time, error) {
	if err := def.Validate(); err != nil {
		return time.Time{}, err
	}
	at, _, err := w.resolveInitial(def, t, w.maxDays())
	return at, err
}

// resolveInitial walks at most limit day advances.
func (w Walker) resolveInitial(def *Definition, t time.Time, limit int) (time.Time, int, error) {
	for adv := 0; adv <= limit; adv++ {
		wd := int(t.Weekday())
		switch {
		case !def.IsWorkDay(wd):
			tracef(w.Sink, "initial date: %s is not a work day", FormatDate(t))
		case IsHoliday(def, t):
			tracef(w.Sink, "initial date: %s is a holiday", FormatDate(t))
		default:
			if next, ok := NextWorkHours(def, t, wd, w.Sort); ok {
				tracef(w.Sink, "initial date: %s", next.Format("2006-01-02 15:04:05"))
				return next, adv, nil
			}
			tracef(w.Sink, "initial date: no window left on %s", FormatDate(t))
		}
		t = nextDay(t)
	}
	return time.Time{}, limit, fmt.Errorf("%w: %d days walked", ErrNoMatchWithinHorizon, limit)
}

// NextValidBusinessHoursRange parses a YYYY-MM-DD date and HH:MM[:SS] clock and
// resolves them with NextValidRange.
func (w Walker) NextValidBusinessHoursRange(def *Definition, date, clock string) (Resolved, error) {
	start, err := ParseDateTime(date, clock)
	if err != nil {
		return Resolved{}, err
	}
	return w.NextValidRange(def, start)
}

// NextValidRange scans forward from start for the first accepted business day, settles the
// initial moment with ResolveInitialDate and reports the windows of the resolved day.
func (w Walker) NextValidRange(def *Definition, start time.Time) (Resolved, error) {
	if err := def.Validate(); err != nil {
		return Resolved{}, err
	}
	limit := w.maxDays()
	rule := w.rule()
	tracef(w.Sink, "================= start: %s =================", start.Format("2006-01-02 15:04:05"))

	day := dateOf(start)
	requested := ClockOf(start)
	changed := false
	adv := 0
	var matched Window
	for {
		if adv > limit {
			return Resolved{}, fmt.Errorf("%w: %d days walked from %s", ErrNoMatchWithinHorizon, limit, FormatDate(start))
		}
		wd := int(day.Weekday())
		tracef(w.Sink, "**** %s (%d) %s", time.Weekday(wd), wd, FormatDate(day))

		valid := true
		if !def.IsWorkDay(wd) {
			tracef(w.Sink, "- non working day, work days %v", def.WorkDays)
			valid = false
		}
		if h, ok := rule(def.Holidays, day); ok {
			tracef(w.Sink, "it is a holiday -> %s (%s - %s)", h.Name, FormatDate(h.Start), FormatDate(h.End))
			valid = false
		}
		if valid {
			tracef(w.Sink, "found valid date -> %s", FormatDate(day))
			if changed {
				requested = firstMinute
			}
			if m, ok := w.scanWindows(def, wd, requested); ok {
				matched = m
				break
			}
			tracef(w.Sink, "> no valid business hour found for current date, go to next")
		}
		day = nextDay(day)
		changed = true
		adv++
	}

	at, extra, err := w.resolveInitial(def, requested.On(day), limit-adv)
	if err != nil {
		return Resolved{}, err
	}
	if !dateOf(at).Equal(day) {
		// Literal holidays pushed the moment past the scanned day.
		quiet := w
		quiet.Sink = nil
		matched, _ = quiet.scanWindows(def, int(at.Weekday()), ClockOf(at))
	}
	return Resolved{
		Date:     dateOf(at),
		Time:     ClockOf(at),
		At:       at,
		Matched:  matched,
		Windows:  DayWindows(def, int(at.Weekday()), w.Sort),
		Advances: adv + extra,
	}, nil
}

// scanWindows walks the windows of the day in definition order and keeps the last one whose
// interval, in whole seconds, contains or lies after the requested time.
func (w Walker) scanWindows(def *Definition, weekday int, at Clock) (Window, bool) {
	var prevEnd Clock
	var match Window
	found := false
	t := at
	for _, bw := range def.Windows {
		if bw.Day != AllDays && bw.Day != weekday {
			continue
		}
		tracef(w.Sink, "validating (%s/%s) from %s to %s", t, prevEnd, bw.Start, bw.End)
		if t.Seconds() >= prevEnd.Seconds() && t.Seconds() < bw.End.Seconds() {
			tracef(w.Sink, "*** found valid business hour %s - %s", bw.Start, bw.End)
			if t.Seconds() < bw.Start.Seconds() {
				tracef(w.Sink, "set to default start hour %s", bw.Start)
				t = bw.Start
			}
			prevEnd = bw.End
			match = bw
			found = true
		}
	}
	return match, found
}
