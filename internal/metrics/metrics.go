package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Resolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bizcal_resolutions_total",
		Help: "Total business-hours resolutions by outcome",
	}, []string{"outcome"})
	ResolutionErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bizcal_resolution_errors_total",
		Help: "Total failed resolutions by error kind",
	}, []string{"kind"})
	DayAdvances = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bizcal_day_advances",
		Help:    "Days walked forward per resolution",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 14, 31, 93, 366},
	})
	ResolutionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bizcal_resolution_duration_seconds",
		Help:    "Resolution duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bizcal_command_runs_total",
		Help: "Total CLI command runs",
	}, []string{"command"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bizcal_command_errors_total",
		Help: "Total CLI command errors",
	}, []string{"command"})
	HolidaySyncs = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bizcal_holiday_sync_total",
		Help: "Total public holidays added by sync runs",
	})
)

func init() {
	prometheus.MustRegister(Resolutions, ResolutionErrors, DayAdvances, ResolutionDuration, CommandRuns, CommandErrors, HolidaySyncs)
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	go func() { _ = http.ListenAndServe(addr, mux) }()
}

// ObserveResolution records the outcome of one resolution started at start.
func ObserveResolution(start time.Time, advances int, errKind string) {
	ResolutionDuration.Observe(time.Since(start).Seconds())
	if errKind != "" {
		Resolutions.WithLabelValues("error").Inc()
		ResolutionErrors.WithLabelValues(errKind).Inc()
		return
	}
	Resolutions.WithLabelValues("ok").Inc()
	DayAdvances.Observe(float64(advances))
}

func IncCommandRun(cmd string)   { CommandRuns.WithLabelValues(cmd).Inc() }
func IncCommandError(cmd string) { CommandErrors.WithLabelValues(cmd).Inc() }
