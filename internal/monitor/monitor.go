// Package monitor aggregates per-service liveness probes into an
// application-level verdict and assembles status reports.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/loykin/svcmon/internal/metrics"
	"github.com/loykin/svcmon/internal/probe"
	"github.com/loykin/svcmon/internal/status"
)

// ErrEmptyServices is returned when a caller explicitly requests a check of
// zero services.
var ErrEmptyServices = errors.New("services list cannot be empty")

// Aggregator runs one probe per configured service and derives the verdict
// for the monitored application. The service set is injected at construction;
// there is no package-level default.
type Aggregator struct {
	prober   probe.Prober
	app      string
	services []string
}

// New builds an Aggregator monitoring app through the given service set.
func New(p probe.Prober, app string, services []string) *Aggregator {
	if app == "" {
		app = "app"
	}
	return &Aggregator{prober: p, app: app, services: append([]string(nil), services...)}
}

// App returns the monitored application name.
func (a *Aggregator) App() string { return a.app }

// Host returns the hostname records from this aggregator carry.
func (a *Aggregator) Host() string { return a.prober.Host() }

// Services returns a copy of the configured service set.
func (a *Aggregator) Services() []string { return append([]string(nil), a.services...) }

// CheckAll probes every named service sequentially and returns one status per
// name. A nil slice means the configured set; an explicitly empty slice is an
// error. A probe failure for one service is recorded as DOWN for that service
// only and never aborts the batch.
func (a *Aggregator) CheckAll(ctx context.Context, names []string) (map[string]status.Status, error) {
	if names == nil {
		names = a.services
	}
	if len(names) == 0 {
		return nil, ErrEmptyServices
	}
	statuses := make(map[string]status.Status, len(names))
	for _, name := range names {
		start := time.Now()
		st, err := a.prober.Check(ctx, name)
		if err != nil {
			slog.Error("service check failed", "service", name, "error", err)
			st = status.Down
		}
		metrics.ObserveCheck(name, st, time.Since(start))
		slog.Info("service checked", "service", name, "status", st)
		statuses[name] = st
	}
	return statuses, nil
}

// Verdict derives the application status from a status map: UP iff every
// configured service is present and UP. A missing configured service counts
// the same as an explicit DOWN; names outside the configured set are ignored.
func (a *Aggregator) Verdict(statuses map[string]status.Status) status.Status {
	if len(statuses) == 0 {
		slog.Warn("no service statuses provided, considering app DOWN", "app", a.app)
		return status.Down
	}
	for _, svc := range a.services {
		st, ok := statuses[svc]
		if !ok {
			slog.Warn("required service missing from status check", "app", a.app, "service", svc)
			return status.Down
		}
		if st != status.Up {
			slog.Warn("required service is not UP", "app", a.app, "service", svc, "status", st)
			return status.Down
		}
	}
	slog.Info("all required services are UP", "app", a.app)
	return status.Up
}

// AppStatus runs a full pass over the configured set and returns only the
// derived verdict. Any failure degrades to DOWN.
func (a *Aggregator) AppStatus(ctx context.Context) status.Status {
	statuses, err := a.CheckAll(ctx, nil)
	if err != nil {
		slog.Error("failed to determine app status", "app", a.app, "error", err)
		return status.Down
	}
	return a.Verdict(statuses)
}

// Report is one complete aggregation pass. All records share a single
// timestamp taken at assembly time.
type Report struct {
	ServiceStatuses map[string]status.Status `json:"service_statuses"`
	AppStatus       status.Status            `json:"app_status"`
	ServiceRecords  []status.Record          `json:"service_records"`
	AppRecord       status.Record            `json:"app_record"`
	Timestamp       string                   `json:"timestamp"`
	Error           string                   `json:"error,omitempty"`
}

// BuildReport checks the configured set and assembles the full report.
// It never fails: when assembly cannot complete it returns a degraded report
// with an empty status map, a DOWN verdict and the error message attached.
func (a *Aggregator) BuildReport(ctx context.Context) Report {
	host := a.prober.Host()
	ts := status.FormatTime(a.prober.Now())

	statuses, err := a.CheckAll(ctx, nil)
	if err != nil {
		slog.Error("error generating monitoring report", "app", a.app, "error", err)
		return a.degraded(host, ts, err)
	}
	verdict := a.Verdict(statuses)
	metrics.SetAppUp(a.app, verdict)

	records := make([]status.Record, 0, len(statuses))
	for _, svc := range a.services {
		rec, recErr := status.New(svc, statuses[svc], host, ts)
		if recErr != nil {
			slog.Error("error creating status record", "service", svc, "error", recErr)
			continue
		}
		records = append(records, rec)
	}
	appRec, err := status.New(a.app, verdict, host, ts)
	if err != nil {
		slog.Error("error creating app status record", "app", a.app, "error", err)
		return a.degraded(host, ts, err)
	}
	return Report{
		ServiceStatuses: statuses,
		AppStatus:       verdict,
		ServiceRecords:  records,
		AppRecord:       appRec,
		Timestamp:       ts,
	}
}

func (a *Aggregator) degraded(host, ts string, cause error) Report {
	metrics.SetAppUp(a.app, status.Down)
	appRec, err := status.New(a.app, status.Down, host, ts)
	if err != nil {
		// host/timestamp come from the probe and the app name is normalized
		// at construction, so this path only fires on a broken Prober.
		appRec = status.Record{ServiceName: a.app, ServiceStatus: status.Down, HostName: host, Timestamp: ts}
	}
	return Report{
		ServiceStatuses: map[string]status.Status{},
		AppStatus:       status.Down,
		ServiceRecords:  []status.Record{},
		AppRecord:       appRec,
		Timestamp:       ts,
		Error:           cause.Error(),
	}
}
