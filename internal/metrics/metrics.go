package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/loykin/svcmon/internal/status"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	checksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "svcmon",
			Subsystem: "monitor",
			Name:      "checks_total",
			Help:      "Number of service probes by resulting status.",
		}, []string{"service", "status"},
	)
	probeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "svcmon",
			Subsystem: "monitor",
			Name:      "probe_duration_seconds",
			Help:      "Observed duration of a single service probe.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"},
	)
	appUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "svcmon",
			Subsystem: "monitor",
			Name:      "app_up",
			Help:      "Derived application verdict (1 = UP, 0 = DOWN).",
		}, []string{"app"},
	)
	snapshotWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "svcmon",
			Subsystem: "snapshot",
			Name:      "writes_total",
			Help:      "Snapshot file writes by outcome.",
		}, []string{"result"},
	)
	ingestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "svcmon",
			Subsystem: "api",
			Name:      "ingest_total",
			Help:      "Ingested status documents by outcome.",
		}, []string{"result"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{checksTotal, probeDuration, appUp, snapshotWrites, ingestTotal}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
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

// Handler returns an http.Handler serving Prometheus metrics for the default gatherer.
func Handler() http.Handler { return promhttp.Handler() }

// ObserveCheck records one probe outcome and its duration.
func ObserveCheck(service string, st status.Status, d time.Duration) {
	checksTotal.WithLabelValues(service, string(st)).Inc()
	probeDuration.WithLabelValues(service).Observe(d.Seconds())
}

// SetAppUp records the derived application verdict.
func SetAppUp(app string, st status.Status) {
	v := 0.0
	if st == status.Up {
		v = 1.0
	}
	appUp.WithLabelValues(app).Set(v)
}

// CountSnapshotWrite records one snapshot write outcome.
func CountSnapshotWrite(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	snapshotWrites.WithLabelValues(result).Inc()
}

// CountIngest records one API ingest outcome.
func CountIngest(ok bool) {
	result := "ok"
	if !ok {
		result = "rejected"
	}
	ingestTotal.WithLabelValues(result).Inc()
}
