package svcmon

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRecordFacade(t *testing.T) {
	rec, err := NewRecord("httpd", StatusUp, "web-01", "2024-05-01T10:00:00Z")
	if err != nil {
		t.Fatalf("new record: %v", err)
	}
	if rec.ServiceName != "httpd" || rec.ServiceStatus != StatusUp {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if _, err := NewRecord("", StatusUp, "web-01", "2024-05-01T10:00:00Z"); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestNewMonitorValidation(t *testing.T) {
	if _, err := NewMonitor("rbcapp1", nil); err == nil {
		t.Fatalf("expected error for empty service set")
	}
	m, err := NewMonitor("rbcapp1", []string{"httpd"})
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}
	if m.App() != "rbcapp1" || len(m.Services()) != 1 {
		t.Fatalf("unexpected monitor: app=%q services=%v", m.App(), m.Services())
	}
}

func TestOpenStoreAndHandler(t *testing.T) {
	st, err := OpenStore(t.Context(), filepath.Join(t.TempDir(), "mon.db"), "")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	server := httptest.NewServer(NewHTTPHandler("", st))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/healthcheck")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestRegisterMetricsFacade(t *testing.T) {
	if err := RegisterMetrics(prometheus.NewRegistry()); err != nil {
		t.Fatalf("register: %v", err)
	}
}
