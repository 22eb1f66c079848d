package resolver

import (
	"context"
	"errors"
	"testing"

	"bizcal/internal/config"
	"bizcal/internal/lookup"
	"bizcal/internal/model"
	"bizcal/internal/schedule"
	"bizcal/internal/store/sqlitecal"
)

func newService(t *testing.T) (*Service, *sqlitecal.DB) {
	t.Helper()
	db, err := sqlitecal.Open(":memory:")
	if err != nil { t.Fatal(err) }
	cfg := config.Default()
	cfg.Calendars[0].Windows = []config.WindowConfig{{Day: "all", Start: "08:00", End: "17:00"}}
	cfg.Calendars[0].Holidays = []config.HolidayConfig{{Name: "closure", Start: "2024-01-09"}}
	def, err := cfg.Calendars[0].Definition()
	if err != nil { t.Fatal(err) }
	ctx := context.Background()
	if _, err := db.PutCalendar(ctx, model.Calendar{ID: "default", Name: "Default", Definition: def}); err != nil { t.Fatal(err) }
	if _, err := db.PutCalendar(ctx, model.Calendar{ID: "broken", Definition: schedule.Definition{WorkDays: []int{1}}}); err != nil { t.Fatal(err) }
	if err := db.Assign(ctx, model.Assignment{ObjectType: model.ObjectTask, ObjectID: "t-broken", CalendarID: "broken"}); err != nil { t.Fatal(err) }
	return New(lookup.New(db, "default"), schedule.Walker{}, db), db
}

func TestResolveLogsResolution(t *testing.T) {
	svc, db := newService(t)
	defer db.Close()
	ctx := context.Background()

	res, err := svc.Resolve(ctx, Request{UserID: "anyone", Date: "2024-01-08", Time: "20:00"})
	if err != nil { t.Fatal(err) }
	if res.CalendarID != "default" { t.Fatalf("expected default calendar, got %s", res.CalendarID) }
	if got := res.Resolved.At.Format("2006-01-02 15:04"); got != "2024-01-10 08:00" {
		t.Fatalf("expected 2024-01-10 08:00, got %s", got)
	}
	if len(res.Trace) == 0 || res.LogID == "" { t.Fatalf("expected trace and log id: %+v", res) }

	logged, err := db.LoadResolutions(ctx, "default", 5)
	if err != nil || len(logged) != 1 { t.Fatalf("expected one logged resolution, got %d %v", len(logged), err) }
	if len(logged[0].Trace) != len(res.Trace) { t.Fatalf("trace not persisted") }
}

func TestResolveErrors(t *testing.T) {
	svc, db := newService(t)
	defer db.Close()
	ctx := context.Background()

	if _, err := svc.Resolve(ctx, Request{Date: "2024-02-31", Time: "10:00"}); !errors.Is(err, schedule.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if _, err := svc.Resolve(ctx, Request{TaskID: "t-broken", Date: "2024-01-08", Time: "10:00"}); !errors.Is(err, schedule.ErrEmptyCalendar) {
		t.Fatalf("expected ErrEmptyCalendar, got %v", err)
	}
	if _, err := svc.Resolve(ctx, Request{CalendarID: "nope", Date: "2024-01-08", Time: "10:00"}); !errors.Is(err, lookup.ErrUnknownCalendar) {
		t.Fatalf("expected ErrUnknownCalendar, got %v", err)
	}
}

func TestWindows(t *testing.T) {
	svc, db := newService(t)
	defer db.Close()
	ws, err := svc.Windows(context.Background(), Request{CalendarID: "default", Date: "2024-01-08"})
	if err != nil { t.Fatal(err) }
	if len(ws) != 1 || ws[0].Start != schedule.MustClock("08:00") { t.Fatalf("unexpected windows: %+v", ws) }
}
