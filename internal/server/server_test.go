package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizcal/internal/config"
	"bizcal/internal/lookup"
	"bizcal/internal/model"
	"bizcal/internal/resolver"
	"bizcal/internal/schedule"
	"bizcal/internal/store/sqlitecal"
)

func newTestServer(t *testing.T, limiter *RateLimiter) http.Handler {
	t.Helper()
	db, err := sqlitecal.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Default()
	def, err := cfg.Calendars[0].Definition()
	require.NoError(t, err)
	ctx := context.Background()
	_, err = db.PutCalendar(ctx, model.Calendar{ID: "default", Name: "Default", Definition: def})
	require.NoError(t, err)
	_, err = db.PutCalendar(ctx, model.Calendar{ID: "empty", Definition: schedule.Definition{WorkDays: []int{1}}})
	require.NoError(t, err)

	svc := resolver.New(lookup.New(db, "default"), schedule.Walker{}, db)
	return New(svc, db, limiter).Handler()
}

func get(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]any
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestResolveEndpoint(t *testing.T) {
	h := newTestServer(t, nil)

	rec, body := get(t, h, "/v1/resolve?calendar=default&date=2024-12-31&time=18:00&trace=1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "2025-01-02", body["date"])
	assert.Equal(t, "09:00:00", body["time"])
	assert.Equal(t, "2025-01-02 09:00:00", body["at"])
	assert.Equal(t, "all 09:00:00-17:00:00", body["window"])
	ws := body["windows"].([]any)
	require.Len(t, ws, 1)
	assert.Equal(t, "09:00:00", ws[0].(map[string]any)["start"])
	assert.Equal(t, "17:00:00", ws[0].(map[string]any)["end"])
	assert.NotEmpty(t, body["trace"])
	assert.NotEmpty(t, body["log_id"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	// Lookup by user falls back to the default calendar; trace is omitted unless asked for.
	rec, body = get(t, h, "/v1/resolve?user=u1&date=2024-01-08&time=10:30")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "default", body["calendar"])
	assert.Equal(t, "10:30:00", body["time"])
	assert.Nil(t, body["trace"])
}

func TestResolveEndpointErrors(t *testing.T) {
	h := newTestServer(t, nil)
	cases := []struct {
		target string
		code   int
		kind   string
	}{
		{"/v1/resolve?calendar=default&date=2024-02-30&time=10:00", http.StatusBadRequest, "invalid_date"},
		{"/v1/resolve?calendar=default&date=2024-01-08", http.StatusBadRequest, "invalid_date"},
		{"/v1/resolve?calendar=empty&date=2024-01-08&time=10:00", http.StatusUnprocessableEntity, "empty_calendar"},
		{"/v1/resolve?calendar=missing&date=2024-01-08&time=10:00", http.StatusNotFound, "unknown_calendar"},
	}
	for _, c := range cases {
		rec, body := get(t, h, c.target)
		assert.Equal(t, c.code, rec.Code, c.target)
		assert.Equal(t, c.kind, body["error"], c.target)
	}
}

func TestWindowsAndCalendars(t *testing.T) {
	h := newTestServer(t, nil)

	rec, body := get(t, h, "/v1/windows?calendar=default&date=2024-01-08")
	require.Equal(t, http.StatusOK, rec.Code)
	ws := body["windows"].([]any)
	require.Len(t, ws, 1)
	assert.Equal(t, "09:00:00", ws[0].(map[string]any)["start"])

	rec, body = get(t, h, "/v1/calendars")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["calendars"], 2)

	rec, _ = get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(t, NewRateLimiter(1, 1))
	rec, _ := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, body := get(t, h, "/health")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", body["error"])
}

func TestStatusFor(t *testing.T) {
	code, kind := statusFor(schedule.ErrNoMatchWithinHorizon)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "no_match_within_horizon", kind)
	code, _ = statusFor(context.Canceled)
	assert.Equal(t, http.StatusInternalServerError, code)
}
