package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AllDays tags a business window that applies to every weekday.
const AllDays = 7

const dateLayout = "2006-01-02"

// Clock is a naive time-of-day, stored as seconds since midnight.
type Clock int

// ParseClock accepts HH:MM or HH:MM:SS.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: clock %q", ErrInvalidDate, s)
	}
	limits := []int{23, 59, 59}
	var vals [3]int
	for i, p := range parts {
		if len(p) == 0 || len(p) > 2 {
			return 0, fmt.Errorf("%w: clock %q", ErrInvalidDate, s)
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > limits[i] {
			return 0, fmt.Errorf("%w: clock %q", ErrInvalidDate, s)
		}
		vals[i] = n
	}
	return NewClock(vals[0], vals[1], vals[2]), nil
}

// MustClock is ParseClock for literals known to be valid.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func NewClock(h, m, s int) Clock { return Clock(h*3600 + m*60 + s) }

// ClockOf returns the time-of-day portion of t.
func ClockOf(t time.Time) Clock { return NewClock(t.Hour(), t.Minute(), t.Second()) }

// Seconds is the comparison encoding used by the day walker.
func (c Clock) Seconds() int { return int(c) }

// Minutes is the HHMM encoding used by the per-day window resolver; seconds are dropped.
func (c Clock) Minutes() int {
	s := int(c)
	return (s/3600)*100 + (s%3600)/60
}

func (c Clock) String() string {
	s := int(c)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

// On places the clock on the calendar date of d.
func (c Clock) On(d time.Time) time.Time {
	s := int(c)
	return time.Date(d.Year(), d.Month(), d.Day(), s/3600, (s%3600)/60, s%60, 0, time.UTC)
}

func (c Clock) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Clock) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Window is a business-hour interval for one weekday, or for AllDays.
type Window struct {
	Day   int   `json:"day"`
	Start Clock `json:"start"`
	End   Clock `json:"end"`
}

func (w Window) String() string {
	day := "all"
	if w.Day != AllDays {
		day = time.Weekday(w.Day).String()[:3]
	}
	return fmt.Sprintf("%s %s-%s", day, w.Start, w.End)
}

// Holiday is an inclusive date range. Dated holidays belong to one year only,
// like observed public holidays, and never recur.
type Holiday struct {
	Name  string    `json:"name"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Dated bool      `json:"dated,omitempty"`
}

// Definition holds the exception rules of one calendar. It is never mutated by resolution.
type Definition struct {
	WorkDays []int     `json:"workDays"`
	Windows  []Window  `json:"windows"`
	Holidays []Holiday `json:"holidays"`
}

// Validate rejects definitions that can never yield a business moment.
func (d *Definition) Validate() error {
	if d == nil || len(d.WorkDays) == 0 {
		return fmt.Errorf("%w: no work days", ErrEmptyCalendar)
	}
	if len(d.Windows) == 0 {
		return fmt.Errorf("%w: no business windows", ErrEmptyCalendar)
	}
	return nil
}

// IsWorkDay reports whether weekday is in the work-day mask.
func (d *Definition) IsWorkDay(weekday int) bool {
	for _, w := range d.WorkDays {
		if w == weekday {
			return true
		}
	}
	return false
}

// ParseDate parses YYYY-MM-DD into a naive midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidDate, s)
	}
	return t, nil
}

// ParseDateTime combines a YYYY-MM-DD date and an HH:MM[:SS] clock.
func ParseDateTime(date, clock string) (time.Time, error) {
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	c, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return c.On(d), nil
}

// FormatDate renders the calendar date of t.
func FormatDate(t time.Time) string { return t.Format(dateLayout) }

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func nextDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, time.UTC)
}
