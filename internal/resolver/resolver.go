package resolver

import (
	"context"
	"time"

	"bizcal/internal/logging"
	"bizcal/internal/lookup"
	"bizcal/internal/metrics"
	"bizcal/internal/model"
	"bizcal/internal/schedule"
)

// ResolutionLog persists resolutions and their traces.
type ResolutionLog interface {
	PutResolution(ctx context.Context, r model.Resolution) (string, error)
}

// Request names a calendar directly, or the user/process/task to look one up for.
type Request struct {
	CalendarID string
	UserID     string
	ProcessID  string
	TaskID     string
	Date       string // YYYY-MM-DD
	Time       string // HH:MM[:SS]
}

type Result struct {
	CalendarID string
	Resolved   schedule.Resolved
	Trace      []string
	LogID      string
}

// Service resolves business hours for requests.
type Service struct {
	lookup *lookup.Lookup
	walker schedule.Walker
	log    ResolutionLog
}

// New builds a Service. log may be nil to skip persisting resolutions.
func New(l *lookup.Lookup, w schedule.Walker, log ResolutionLog) *Service {
	return &Service{lookup: l, walker: w, log: log}
}

// Calendar returns the calendar a request applies to.
func (s *Service) Calendar(ctx context.Context, req Request) (model.Calendar, error) {
	if req.CalendarID != "" {
		return s.lookup.Calendar(ctx, req.CalendarID)
	}
	return s.lookup.CalendarFor(ctx, req.UserID, req.ProcessID, req.TaskID)
}

// Resolve finds the next valid business hours for req.
func (s *Service) Resolve(ctx context.Context, req Request) (Result, error) {
	cal, err := s.Calendar(ctx, req)
	if err != nil {
		return Result{}, err
	}
	trace := &schedule.Trace{}
	w := s.walker
	w.Sink = schedule.Tee(trace, logging.TraceSink(map[string]any{"calendar": cal.ID}))

	start := time.Now()
	res, err := w.NextValidBusinessHoursRange(&cal.Definition, req.Date, req.Time)
	metrics.ObserveResolution(start, res.Advances, schedule.ErrorKind(err))
	if err != nil {
		logging.Error("resolve_error", map[string]any{"calendar": cal.ID, "date": req.Date, "time": req.Time, "error": err.Error()})
		return Result{CalendarID: cal.ID, Trace: trace.Lines()}, err
	}

	out := Result{CalendarID: cal.ID, Resolved: res, Trace: trace.Lines()}
	if s.log != nil {
		requested, _ := schedule.ParseDateTime(req.Date, req.Time)
		id, err := s.log.PutResolution(ctx, model.Resolution{
			CalendarID:  cal.ID,
			RequestedAt: requested,
			ResolvedAt:  res.At,
			Trace:       out.Trace,
		})
		if err != nil {
			logging.Error("resolution_log_error", map[string]any{"calendar": cal.ID, "error": err.Error()})
		}
		out.LogID = id
	}
	logging.Info("resolved", map[string]any{"calendar": cal.ID, "at": res.At.Format("2006-01-02 15:04:05"), "advances": res.Advances})
	return out, nil
}

// Windows returns the windows applicable on date for the requested calendar.
func (s *Service) Windows(ctx context.Context, req Request) ([]schedule.Window, error) {
	cal, err := s.Calendar(ctx, req)
	if err != nil {
		return nil, err
	}
	d, err := schedule.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	return schedule.DayWindows(&cal.Definition, int(d.Weekday()), s.walker.Sort), nil
}
