package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsExposure(t *testing.T) {
	ObserveResolution(time.Now().Add(-5*time.Millisecond), 3, "")
	ObserveResolution(time.Now(), 0, "invalid_date")
	IncCommandRun("resolve")
	IncCommandError("resolve")
	HolidaySyncs.Add(2)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rec.Code)
	}
	body := rec.Body.String()
	for _, m := range []string{
		"bizcal_resolutions_total",
		"bizcal_resolution_errors_total",
		"bizcal_day_advances",
		"bizcal_resolution_duration_seconds",
		"bizcal_command_runs_total",
		"bizcal_command_errors_total",
		"bizcal_holiday_sync_total",
	} {
		if !strings.Contains(body, m) {
			t.Fatalf("expected metric %s in body", m)
		}
	}
	if v := testutil.ToFloat64(ResolutionErrors.WithLabelValues("invalid_date")); v < 1 {
		t.Fatalf("expected invalid_date error counted, got %v", v)
	}
}
