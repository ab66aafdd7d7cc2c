// Package probe performs liveness checks against named system services.
//
// A probe never reports its own operational failures to the caller: any
// condition that prevents a definite answer (timeout, missing tool, command
// error) is normalized to DOWN. An unknown state is treated as unhealthy so
// a broken probe can never mask a broken service.
package probe

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/loykin/svcmon/internal/status"
)

// DefaultTimeout bounds one supervisor query.
const DefaultTimeout = 10 * time.Second

// ErrEmptyName is returned when a caller asks to probe an unnamed service.
// It marks a logic error in the caller, not an environment problem.
var ErrEmptyName = errors.New("service name must be a non-empty string")

// Prober answers liveness checks and supplies the reporting context
// (host identity and clock) shared by all records of one pass.
type Prober interface {
	Check(ctx context.Context, name string) (status.Status, error)
	Host() string
	Now() time.Time
}

// Systemd checks services with `systemctl is-active <name>`.
// The service is UP only when the command exits 0 and its trimmed output is
// exactly "active"; every other combination, a timeout, or a missing
// systemctl binary is DOWN.
type Systemd struct {
	// Command is the supervisor binary, overridable for tests.
	Command string
	// Timeout bounds a single query; DefaultTimeout when zero.
	Timeout time.Duration

	host string
}

// NewSystemd builds a probe with the hostname cached at construction.
// When the lookup fails the probe reports the sentinel "unknown-host".
func NewSystemd() *Systemd {
	host, err := os.Hostname()
	if err != nil || host == "" {
		slog.Error("failed to resolve hostname", "error", err)
		host = "unknown-host"
	}
	return &Systemd{Command: "systemctl", Timeout: DefaultTimeout, host: host}
}

// Check queries the supervisor for one service. The only error it can
// return is ErrEmptyName; degraded probes come back as status.Down.
func (s *Systemd) Check(ctx context.Context, name string) (status.Status, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrEmptyName
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// #nosec 204 -- command is the configured supervisor binary, name is data
	out, err := exec.CommandContext(cctx, s.Command, "is-active", name).Output()
	if err != nil {
		slog.Warn("service probe degraded", "service", name, "error", err)
		return status.Down, nil
	}
	if strings.TrimSpace(string(out)) == "active" {
		slog.Debug("service is active", "service", name)
		return status.Up, nil
	}
	slog.Warn("service is not active", "service", name, "output", strings.TrimSpace(string(out)))
	return status.Down, nil
}

// Host returns the hostname cached at construction.
func (s *Systemd) Host() string { return s.host }

// Now returns the current time; records format it as UTC with a Z suffix.
func (s *Systemd) Now() time.Time { return time.Now().UTC() }
