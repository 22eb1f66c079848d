package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bizcal/internal/logging"
	"bizcal/internal/lookup"
	"bizcal/internal/model"
	"bizcal/internal/resolver"
	"bizcal/internal/schedule"
)

// CalendarLister lists stored calendars.
type CalendarLister interface {
	ListCalendars(ctx context.Context) ([]model.Calendar, error)
}

type Server struct {
	svc       *resolver.Service
	calendars CalendarLister
	limiter   *RateLimiter
}

func New(svc *resolver.Service, calendars CalendarLister, limiter *RateLimiter) *Server {
	return &Server{svc: svc, calendars: calendars, limiter: limiter}
}

// Handler returns the API routes wrapped in request id, access log and rate limiting.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/resolve", s.handleResolve)
	mux.HandleFunc("GET /v1/windows", s.handleWindows)
	mux.HandleFunc("GET /v1/calendars", s.handleCalendars)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	mw := []Middleware{WithRequestID, WithAccessLog}
	if s.limiter != nil {
		mw = append(mw, s.limiter.Middleware())
	}
	return Chain(mux, mw...)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logging.Info("http_listen", map[string]any{"addr": addr})
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type resolveResponse struct {
	Calendar string       `json:"calendar"`
	Date     string       `json:"date"`
	Time     string       `json:"time"`
	At       string       `json:"at"`
	Window   string       `json:"window"`
	Windows  []windowJSON `json:"windows"`
	Advances int          `json:"advances"`
	LogID    string       `json:"log_id,omitempty"`
	Trace    []string     `json:"trace,omitempty"`
}

type windowJSON struct {
	Day   int    `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type calendarJSON struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	WorkDays       []int  `json:"work_days"`
	Windows        int    `json:"windows"`
	Holidays       int    `json:"holidays"`
	PublicHolidays string `json:"public_holidays,omitempty"`
}

func requestFrom(r *http.Request) resolver.Request {
	q := r.URL.Query()
	return resolver.Request{
		CalendarID: q.Get("calendar"),
		UserID:     q.Get("user"),
		ProcessID:  q.Get("process"),
		TaskID:     q.Get("task"),
		Date:       q.Get("date"),
		Time:       q.Get("time"),
	}
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	req := requestFrom(r)
	if req.Date == "" || req.Time == "" {
		writeError(w, http.StatusBadRequest, "invalid_date", "date and time are required")
		return
	}
	res, err := s.svc.Resolve(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	out := resolveResponse{
		Calendar: res.CalendarID,
		Date:     schedule.FormatDate(res.Resolved.Date),
		Time:     res.Resolved.Time.String(),
		At:       res.Resolved.At.Format("2006-01-02 15:04:05"),
		Window:   res.Resolved.Matched.String(),
		Windows:  toWindowJSON(res.Resolved.Windows),
		Advances: res.Resolved.Advances,
		LogID:    res.LogID,
	}
	if v := r.URL.Query().Get("trace"); v == "1" || v == "true" {
		out.Trace = res.Trace
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleWindows(w http.ResponseWriter, r *http.Request) {
	req := requestFrom(r)
	if req.Date == "" {
		writeError(w, http.StatusBadRequest, "invalid_date", "date is required")
		return
	}
	ws, err := s.svc.Windows(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": req.Date, "windows": toWindowJSON(ws)})
}

func toWindowJSON(ws []schedule.Window) []windowJSON {
	out := make([]windowJSON, 0, len(ws))
	for _, win := range ws {
		out = append(out, windowJSON{Day: win.Day, Start: win.Start.String(), End: win.End.String()})
	}
	return out
}

func (s *Server) handleCalendars(w http.ResponseWriter, r *http.Request) {
	cals, err := s.calendars.ListCalendars(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]calendarJSON, 0, len(cals))
	for _, c := range cals {
		out = append(out, calendarJSON{
			ID:             c.ID,
			Name:           c.Name,
			WorkDays:       c.Definition.WorkDays,
			Windows:        len(c.Definition.Windows),
			Holidays:       len(c.Definition.Holidays),
			PublicHolidays: c.PublicHolidays,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"calendars": out})
}

// statusFor maps resolution errors to HTTP status codes and error kinds.
func statusFor(err error) (int, string) {
	if errors.Is(err, lookup.ErrUnknownCalendar) {
		return http.StatusNotFound, "unknown_calendar"
	}
	kind := schedule.ErrorKind(err)
	switch kind {
	case "invalid_date":
		return http.StatusBadRequest, kind
	case "empty_calendar", "no_match_within_horizon":
		return http.StatusUnprocessableEntity, kind
	}
	return http.StatusInternalServerError, "internal"
}

func writeErr(w http.ResponseWriter, err error) {
	code, kind := statusFor(err)
	if code == http.StatusInternalServerError {
		logging.Error("http_internal_error", map[string]any{"error": err.Error()})
	}
	writeError(w, code, kind, err.Error())
}

func writeError(w http.ResponseWriter, code int, kind, msg string) {
	writeJSON(w, code, map[string]string{"error": kind, "message": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
