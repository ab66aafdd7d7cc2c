package svcmon

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	cfg "github.com/loykin/svcmon/internal/config"
	"github.com/loykin/svcmon/internal/metrics"
	"github.com/loykin/svcmon/internal/monitor"
	"github.com/loykin/svcmon/internal/probe"
	iapi "github.com/loykin/svcmon/internal/server"
	"github.com/loykin/svcmon/internal/snapshot"
	"github.com/loykin/svcmon/internal/status"
	"github.com/loykin/svcmon/internal/store"
	"github.com/loykin/svcmon/internal/store/factory"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Status = status.Status

const (
	StatusUp   = status.Up
	StatusDown = status.Down
)

type Record = status.Record

type Report = monitor.Report

type Store = store.Store

// ErrNotFound is returned by store lookups for unknown services.
var ErrNotFound = store.ErrNotFound

// NewRecord builds a validated status record.
func NewRecord(service string, st Status, host, timestamp string) (Record, error) {
	return status.New(service, st, host, timestamp)
}

// FormatTime renders t as the canonical UTC record timestamp.
func FormatTime(t time.Time) string { return status.FormatTime(t) }

// Monitor is a thin facade over internal/monitor.Aggregator.
// It probes an injected set of services via systemd and derives the
// application verdict from their combined state.
type Monitor struct{ inner *monitor.Aggregator }

// NewMonitor builds a Monitor for the named application over services,
// using the local systemd as the probe target.
func NewMonitor(app string, services []string) (*Monitor, error) {
	if len(services) == 0 {
		return nil, monitor.ErrEmptyServices
	}
	return &Monitor{inner: monitor.New(probe.NewSystemd(), app, services)}, nil
}

func (m *Monitor) App() string        { return m.inner.App() }
func (m *Monitor) Host() string       { return m.inner.Host() }
func (m *Monitor) Services() []string { return m.inner.Services() }
func (m *Monitor) CheckAll(ctx context.Context, names []string) (map[string]Status, error) {
	return m.inner.CheckAll(ctx, names)
}
func (m *Monitor) AppStatus(ctx context.Context) Status { return m.inner.AppStatus(ctx) }
func (m *Monitor) BuildReport(ctx context.Context) Report { return m.inner.BuildReport(ctx) }

// SnapshotWriter writes per-service status files under a directory.
type SnapshotWriter = snapshot.Writer

func NewSnapshotWriter(dir string) SnapshotWriter { return snapshot.New(dir) }

type Config = cfg.FileConfig

func LoadConfig(path string) (*Config, error) { return cfg.Load(path) }

func DefaultConfig() *Config { return cfg.Default() }

// OpenStore selects and prepares a report store from a DSN.
// Supported: postgres://, http(s):// (OpenSearch), clickhouse://,
// sqlite:// or a bare file path.
func OpenStore(ctx context.Context, dsn, index string) (Store, error) {
	return factory.Open(ctx, dsn, index)
}

// NewHTTPServer starts an HTTP server exposing the status API over the given store.
func NewHTTPServer(addr, basePath string, st Store) (*http.Server, error) {
	return iapi.NewServer(addr, basePath, st)
}

// NewHTTPHandler returns the status API as a mountable http.Handler.
func NewHTTPHandler(basePath string, st Store) http.Handler {
	return iapi.NewRouter(st, basePath).Handler()
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// ServeMetrics starts an HTTP server on addr exposing /metrics using the default registry.
// It returns any immediate listen error; otherwise it runs the server in the caller goroutine.
func ServeMetrics(addr string) error {
	http.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           nil,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}
