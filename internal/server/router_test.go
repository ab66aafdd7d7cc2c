package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/loykin/svcmon/internal/status"
	"github.com/loykin/svcmon/internal/store/sqlite"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.EnsureSchema(t.Context()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	server := httptest.NewServer(NewRouter(db, "").Handler())
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func TestAddSuccess(t *testing.T) {
	server := newTestServer(t)
	resp := postJSON(t, server.URL+"/add", map[string]string{
		"service_name":   "httpd",
		"service_status": "UP",
		"host_name":      "web-01",
		"timestamp":      "2024-05-01T10:00:00Z",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var body addResponse
	decode(t, resp, &body)
	if body.ServiceName != "httpd" || body.Message == "" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestAddMissingFieldsListed(t *testing.T) {
	server := newTestServer(t)
	resp := postJSON(t, server.URL+"/add", map[string]string{
		"service_name":   "httpd",
		"service_status": "UP",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var body errorResp
	decode(t, resp, &body)
	if !strings.Contains(body.Message, "host_name") {
		t.Fatalf("error must name the missing field, got %q", body.Message)
	}
	if strings.Contains(body.Message, "service_name") {
		t.Fatalf("error must not list present fields, got %q", body.Message)
	}
}

func TestAddInvalidStatusListsAllowedValues(t *testing.T) {
	server := newTestServer(t)
	resp := postJSON(t, server.URL+"/add", map[string]string{
		"service_name":   "httpd",
		"service_status": "MAYBE",
		"host_name":      "web-01",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var body errorResp
	decode(t, resp, &body)
	if !strings.Contains(body.Message, "UP") || !strings.Contains(body.Message, "DOWN") {
		t.Fatalf("error must list allowed statuses, got %q", body.Message)
	}
}

func TestAddInvalidJSON(t *testing.T) {
	server := newTestServer(t)
	resp, err := http.Post(server.URL+"/add", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAddAssignsTimestampWhenOmitted(t *testing.T) {
	server := newTestServer(t)
	resp := postJSON(t, server.URL+"/add", map[string]string{
		"service_name":   "rabbitmq",
		"service_status": "DOWN",
		"host_name":      "mq-01",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	single, err := http.Get(server.URL + "/healthcheck/rabbitmq")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = single.Body.Close() }()
	var body serviceResponse
	decode(t, single, &body)
	if body.LastUpdated == "" {
		t.Fatalf("server must assign a timestamp when the client omits it")
	}
}

func TestHealthcheckMap(t *testing.T) {
	server := newTestServer(t)
	for _, p := range []map[string]string{
		{"service_name": "httpd", "service_status": "UP", "host_name": "h", "timestamp": "2024-05-01T10:00:00Z"},
		{"service_name": "httpd", "service_status": "DOWN", "host_name": "h", "timestamp": "2024-05-01T11:00:00Z"},
		{"service_name": "postgresql", "service_status": "UP", "host_name": "h", "timestamp": "2024-05-01T10:30:00Z"},
	} {
		if resp := postJSON(t, server.URL+"/add", p); resp.StatusCode != http.StatusCreated {
			t.Fatalf("seed add failed: %d", resp.StatusCode)
		}
	}

	resp, err := http.Get(server.URL + "/healthcheck")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body healthcheckResponse
	decode(t, resp, &body)
	if body.Services["httpd"] != status.Down {
		t.Fatalf("healthcheck must report the newest status, got %v", body.Services)
	}
	if body.Services["postgresql"] != status.Up {
		t.Fatalf("unexpected services map: %v", body.Services)
	}
}

func TestHealthcheckServiceNotFound(t *testing.T) {
	server := newTestServer(t)
	resp, err := http.Get(server.URL + "/healthcheck/ghost")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	var body errorResp
	decode(t, resp, &body)
	if body.Error != "not_found" || !strings.Contains(body.Message, "ghost") {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

func TestAddThenQuery(t *testing.T) {
	server := newTestServer(t)
	if resp := postJSON(t, server.URL+"/add", map[string]string{
		"service_name":   "postgresql",
		"service_status": "UP",
		"host_name":      "db-01",
		"timestamp":      "2024-05-01T10:00:00Z",
	}); resp.StatusCode != http.StatusCreated {
		t.Fatalf("add failed: %d", resp.StatusCode)
	}

	resp, err := http.Get(server.URL + "/healthcheck/postgresql")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	var body serviceResponse
	decode(t, resp, &body)
	if body.ServiceStatus != status.Up || body.HostName != "db-01" || body.LastUpdated != "2024-05-01T10:00:00Z" {
		t.Fatalf("unexpected record: %+v", body)
	}
}

func TestBasePathMount(t *testing.T) {
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.EnsureSchema(t.Context()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	server := httptest.NewServer(NewRouter(db, "/api/v1/").Handler())
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/api/v1/healthcheck")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 under base path, got %d", resp.StatusCode)
	}
}

func TestSanitizeBase(t *testing.T) {
	cases := map[string]string{
		"":        "",
		"/":       "",
		"api":     "/api",
		"/api/":   "/api",
		" /api/ ": "/api",
	}
	for in, want := range cases {
		if got := sanitizeBase(in); got != want {
			t.Errorf("sanitizeBase(%q) = %q, want %q", in, got, want)
		}
	}
}
