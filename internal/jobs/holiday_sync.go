package jobs

import (
	"context"
	"fmt"
	"strconv"

	"bizcal/internal/holidays"
	"bizcal/internal/logging"
	"bizcal/internal/metrics"
	"bizcal/internal/model"
)

// CalendarStore is the storage the sync job needs.
type CalendarStore interface {
	GetCalendar(ctx context.Context, id string) (model.Calendar, error)
	PutCalendar(ctx context.Context, c model.Calendar) (string, error)
	LoadCursor(ctx context.Context, key string) (string, error)
	SaveCursor(ctx context.Context, key, value string) error
}

func holidayCursorKey(calendarID, country string) string {
	return "holidays:" + calendarID + ":" + country
}

// SyncPublicHolidays merges the public holidays of the calendar's country for
// [fromYear, fromYear+years) into the stored calendar. Years already covered by the
// cursor are skipped, so reruns only add new years. It returns how many holidays were added.
func SyncPublicHolidays(ctx context.Context, db CalendarStore, calendarID string, fromYear, years int) (int, error) {
	c, err := db.GetCalendar(ctx, calendarID)
	if err != nil {
		return 0, err
	}
	if c.PublicHolidays == "" {
		return 0, fmt.Errorf("calendar %s has no public holiday country", calendarID)
	}
	key := holidayCursorKey(c.ID, c.PublicHolidays)
	start := fromYear
	v, err := db.LoadCursor(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("load cursor %s: %w", key, err)
	}
	if v != "" {
		if last, err := strconv.Atoi(v); err == nil && last >= start {
			start = last + 1
		}
	}
	end := fromYear + years
	if start >= end {
		return 0, nil
	}

	merged := c.Definition.Holidays
	added := 0
	for y := start; y < end; y++ {
		hs, err := holidays.ForYear(c.PublicHolidays, y)
		if err != nil {
			return 0, err
		}
		var n int
		merged, n = holidays.Merge(merged, hs)
		added += n
	}
	c.Definition.Holidays = merged
	if _, err := db.PutCalendar(ctx, c); err != nil {
		return 0, err
	}
	if err := db.SaveCursor(ctx, key, strconv.Itoa(end-1)); err != nil {
		return added, err
	}
	metrics.HolidaySyncs.Add(float64(added))
	logging.Info("holiday_sync", map[string]any{"calendar": c.ID, "country": c.PublicHolidays, "from": start, "to": end - 1, "added": added})
	return added, nil
}
