package lookup

import (
	"context"
	"errors"
	"testing"

	"bizcal/internal/config"
	"bizcal/internal/model"
	"bizcal/internal/store/sqlitecal"
)

func seed(t *testing.T) *sqlitecal.DB {
	t.Helper()
	db, err := sqlitecal.Open(":memory:")
	if err != nil { t.Fatal(err) }
	ctx := context.Background()
	for _, id := range []string{"default", "user-cal", "proc-cal", "task-cal"} {
		if _, err := db.PutCalendar(ctx, model.Calendar{ID: id, Name: id}); err != nil { t.Fatal(err) }
	}
	for _, a := range []model.Assignment{
		{ObjectType: model.ObjectUser, ObjectID: "u1", CalendarID: "user-cal"},
		{ObjectType: model.ObjectProcess, ObjectID: "p1", CalendarID: "proc-cal"},
		{ObjectType: model.ObjectTask, ObjectID: "t1", CalendarID: "task-cal"},
		{ObjectType: model.ObjectTask, ObjectID: "t-dangling", CalendarID: "deleted"},
	} {
		if err := db.Assign(ctx, a); err != nil { t.Fatal(err) }
	}
	return db
}

func TestCalendarForPriority(t *testing.T) {
	db := seed(t)
	defer db.Close()
	l := New(db, "default")
	ctx := context.Background()

	tests := []struct {
		user, proc, task string
		want             string
	}{
		{"u1", "p1", "t1", "task-cal"},
		{"u1", "p1", "", "proc-cal"},
		{"u1", "p1", "t-unknown", "proc-cal"},
		{"u1", "", "", "user-cal"},
		{"", "", "", "default"},
		{"nobody", "none", "t-dangling", "default"},
	}
	for _, tt := range tests {
		cal, err := l.CalendarFor(ctx, tt.user, tt.proc, tt.task)
		if err != nil { t.Fatalf("%+v: %v", tt, err) }
		if cal.ID != tt.want { t.Fatalf("%+v: got %s", tt, cal.ID) }
	}
}

func TestCalendarForMissingDefault(t *testing.T) {
	db := seed(t)
	defer db.Close()
	ctx := context.Background()

	if _, err := New(db, "").CalendarFor(ctx, "", "", ""); !errors.Is(err, ErrUnknownCalendar) {
		t.Fatalf("expected ErrUnknownCalendar, got %v", err)
	}
	if _, err := New(db, "gone").CalendarFor(ctx, "x", "", ""); !errors.Is(err, ErrUnknownCalendar) {
		t.Fatalf("expected ErrUnknownCalendar, got %v", err)
	}
}

func TestConfigSource(t *testing.T) {
	cfg := config.Default()
	cfg.Calendars = append(cfg.Calendars, config.CalendarConfig{
		ID:       "night",
		WorkDays: []int{0, 6},
		Windows:  []config.WindowConfig{{Day: "all", Start: "20:00", End: "23:00"}},
	})
	cfg.Assignments = []config.AssignmentConfig{{Type: model.ObjectProcess, ID: "p9", Calendar: "night"}}
	l := New(NewConfigSource(cfg), cfg.DefaultCalendar)
	ctx := context.Background()

	cal, err := l.CalendarFor(ctx, "", "p9", "")
	if err != nil || cal.ID != "night" { t.Fatalf("expected night calendar, got %+v %v", cal, err) }
	if len(cal.Definition.WorkDays) != 2 { t.Fatalf("definition not parsed: %+v", cal.Definition) }

	cal, err = l.CalendarFor(ctx, "", "p0", "")
	if err != nil || cal.ID != "default" { t.Fatalf("expected default calendar, got %+v %v", cal, err) }
}

func TestConfigSourceNotFound(t *testing.T) {
	src := NewConfigSource(config.Default())
	ctx := context.Background()
	if _, err := src.GetCalendar(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected model.ErrNotFound, got %v", err)
	}
	if _, err := src.LookupAssignment(ctx, model.ObjectUser, "u1"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected model.ErrNotFound, got %v", err)
	}
	if _, err := New(src, "default").CalendarFor(ctx, "u1", "", ""); err != nil {
		t.Fatalf("expected default fallback, got %v", err)
	}
}
