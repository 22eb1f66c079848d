package schedule

import (
	"sort"
	"time"
)

// SortMode selects how a day's windows are ordered before scanning.
type SortMode int

const (
	// SortByStart orders windows ascending by start.
	SortByStart SortMode = iota
	// SortLegacy reproduces the exchange sort of the legacy engine, which compares a
	// window's start with the following window's end.
	SortLegacy
)

func (m SortMode) String() string {
	if m == SortLegacy {
		return "legacy"
	}
	return "start"
}

// ParseSortMode maps "start" (or empty) and "legacy".
func ParseSortMode(s string) (SortMode, bool) {
	switch s {
	case "", "start":
		return SortByStart, true
	case "legacy":
		return SortLegacy, true
	}
	return SortByStart, false
}

// DayWindows returns the windows that apply to weekday: the day-specific ones, or
// the AllDays ones when the weekday has none, sorted by mode.
func DayWindows(def *Definition, weekday int, mode SortMode) []Window {
	var day, all []Window
	for _, w := range def.Windows {
		switch w.Day {
		case weekday:
			day = append(day, w)
		case AllDays:
			all = append(all, w)
		}
	}
	if len(day) == 0 {
		day = all
	}
	if mode == SortLegacy {
		legacySort(day)
	} else {
		sort.SliceStable(day, func(i, j int) bool { return day[i].Start < day[j].Start })
	}
	return day
}

func legacySort(ws []Window) {
	n := len(ws)
	for i := 1; i < n; i++ {
		for j := 0; j < n-i; j++ {
			if ws[j].Start > ws[j+1].End {
				ws[j], ws[j+1] = ws[j+1], ws[j]
			}
		}
	}
}

// NextWorkHours finds the earliest window of the day at or after the time-of-day of t,
// comparing at minute precision. A t inside a window is returned unchanged; a t before
// a window jumps to that window's start.
func NextWorkHours(def *Definition, t time.Time, weekday int, mode SortMode) (time.Time, bool) {
	now := ClockOf(t).Minutes()
	for _, w := range DayWindows(def, weekday, mode) {
		start, end := w.Start.Minutes(), w.End.Minutes()
		if start <= now && now < end {
			return t, true
		}
		if now < start {
			return w.Start.On(t), true
		}
	}
	return time.Time{}, false
}
