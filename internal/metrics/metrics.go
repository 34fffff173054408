package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors, registered via Register.
var (
	regOK atomic.Bool

	siteStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sitekeeper",
			Subsystem: "site",
			Name:      "starts_total",
			Help:      "Number of successful site starts.",
		}, []string{"name"},
	)
	siteStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sitekeeper",
			Subsystem: "site",
			Name:      "stops_total",
			Help:      "Number of site stops.",
		}, []string{"name"},
	)
	siteRestarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sitekeeper",
			Subsystem: "site",
			Name:      "restarts_total",
			Help:      "Number of site restarts requested through the API.",
		}, []string{"name"},
	)
	watchdogRestarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sitekeeper",
			Subsystem: "watchdog",
			Name:      "restarts_total",
			Help:      "Number of crashed sites restarted by the watchdog.",
		}, []string{"name"},
	)
	startErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sitekeeper",
			Subsystem: "site",
			Name:      "start_errors_total",
			Help:      "Number of failed start attempts.",
		}, []string{"name"},
	)
	sitesRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sitekeeper",
			Name:      "sites_running",
			Help:      "Sites currently observed running.",
		},
	)
	logWatchers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sitekeeper",
			Name:      "log_watchers",
			Help:      "Connected live log viewers.",
		},
	)
)

// Register registers all collectors with the provided registerer. Safe to
// call more than once; duplicate registrations are ignored.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{siteStarts, siteStops, siteRestarts, watchdogRestarts, startErrors, sitesRunning, logWatchers}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler serves the default gatherer; the caller wires the route.
func Handler() http.Handler { return promhttp.Handler() }

// Helpers below no-op until Register has been called.

func IncStart(name string) {
	if regOK.Load() {
		siteStarts.WithLabelValues(name).Inc()
	}
}

func IncStop(name string) {
	if regOK.Load() {
		siteStops.WithLabelValues(name).Inc()
	}
}

func IncRestart(name string) {
	if regOK.Load() {
		siteRestarts.WithLabelValues(name).Inc()
	}
}

func IncWatchdogRestart(name string) {
	if regOK.Load() {
		watchdogRestarts.WithLabelValues(name).Inc()
	}
}

func IncStartError(name string) {
	if regOK.Load() {
		startErrors.WithLabelValues(name).Inc()
	}
}

func SetSitesRunning(n int) {
	if regOK.Load() {
		sitesRunning.Set(float64(n))
	}
}

func AddLogWatcher(delta int) {
	if regOK.Load() {
		logWatchers.Add(float64(delta))
	}
}
