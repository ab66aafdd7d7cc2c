package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/svcmon/internal/metrics"
	"github.com/loykin/svcmon/internal/status"
	"github.com/loykin/svcmon/internal/store"
)

// Router provides embeddable HTTP handlers for the status query service.
// Endpoints:
//
//	POST {basePath}/add                 body: status record JSON (timestamp optional)
//	GET  {basePath}/healthcheck         latest status per known service
//	GET  {basePath}/healthcheck/:name   latest full record for one service
//
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	st       store.Store
	basePath string
}

// NewRouter constructs a Router over the given report store.
func NewRouter(st store.Store, basePath string) *Router {
	return &Router{st: st, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.POST("/add", r.handleAdd)
	group.GET("/healthcheck", r.handleHealthcheck)
	group.GET("/healthcheck/:name", r.handleHealthcheckService)
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr, basePath string, st store.Store) (*http.Server, error) {
	r := NewRouter(st, basePath)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server, nil
}

// --- Handlers ---

type errorResp struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func fail(c *gin.Context, code int, kind, msg string) {
	writeJSON(c, code, errorResp{Error: kind, Message: msg, Timestamp: status.FormatTime(time.Now())})
}

type addRequest struct {
	ServiceName   string `json:"service_name"`
	ServiceStatus string `json:"service_status"`
	HostName      string `json:"host_name"`
	Timestamp     string `json:"timestamp"`
}

type addResponse struct {
	Message     string `json:"message"`
	ServiceName string `json:"service_name"`
	Timestamp   string `json:"timestamp"`
}

func (r *Router) handleAdd(c *gin.Context) {
	var req addRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.CountIngest(false)
		fail(c, http.StatusBadRequest, "bad_request", "invalid JSON payload: "+err.Error())
		return
	}

	var missing []string
	if req.ServiceName == "" {
		missing = append(missing, "service_name")
	}
	if req.ServiceStatus == "" {
		missing = append(missing, "service_status")
	}
	if req.HostName == "" {
		missing = append(missing, "host_name")
	}
	if len(missing) > 0 {
		metrics.CountIngest(false)
		fail(c, http.StatusBadRequest, "bad_request", "Missing required fields: "+strings.Join(missing, ", "))
		return
	}

	st, err := status.Parse(req.ServiceStatus)
	if err != nil {
		metrics.CountIngest(false)
		fail(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	// timestamp is server-assigned when the client omits it
	ts := req.Timestamp
	if ts == "" {
		ts = status.FormatTime(time.Now())
	}
	rec, err := status.New(req.ServiceName, st, req.HostName, ts)
	if err != nil {
		metrics.CountIngest(false)
		fail(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	if err := r.st.Index(c.Request.Context(), rec); err != nil {
		metrics.CountIngest(false)
		slog.Error("failed to index status record", "service", rec.ServiceName, "error", err)
		fail(c, http.StatusServiceUnavailable, "service_unavailable", "report store is unavailable")
		return
	}
	metrics.CountIngest(true)
	writeJSON(c, http.StatusCreated, addResponse{
		Message:     "Status data successfully stored",
		ServiceName: rec.ServiceName,
		Timestamp:   status.FormatTime(time.Now()),
	})
}

type healthcheckResponse struct {
	Services  map[string]status.Status `json:"services"`
	Timestamp string                   `json:"timestamp"`
}

func (r *Router) handleHealthcheck(c *gin.Context) {
	services, err := r.st.LatestAll(c.Request.Context())
	if err != nil {
		slog.Error("failed to query latest statuses", "error", err)
		fail(c, http.StatusServiceUnavailable, "service_unavailable", "report store is unavailable")
		return
	}
	writeJSON(c, http.StatusOK, healthcheckResponse{
		Services:  services,
		Timestamp: status.FormatTime(time.Now()),
	})
}

type serviceResponse struct {
	ServiceName   string        `json:"service_name"`
	ServiceStatus status.Status `json:"service_status"`
	HostName      string        `json:"host_name"`
	LastUpdated   string        `json:"last_updated"`
	Timestamp     string        `json:"timestamp"`
}

func (r *Router) handleHealthcheckService(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		fail(c, http.StatusBadRequest, "bad_request", "Service name cannot be empty")
		return
	}
	rec, err := r.st.Latest(c.Request.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		fail(c, http.StatusNotFound, "not_found", fmt.Sprintf("Service %q not found", name))
		return
	}
	if err != nil {
		slog.Error("failed to query latest status", "service", name, "error", err)
		fail(c, http.StatusServiceUnavailable, "service_unavailable", "report store is unavailable")
		return
	}
	writeJSON(c, http.StatusOK, serviceResponse{
		ServiceName:   rec.ServiceName,
		ServiceStatus: rec.ServiceStatus,
		HostName:      rec.HostName,
		LastUpdated:   rec.Timestamp,
		Timestamp:     status.FormatTime(time.Now()),
	})
}
