package status

import (
	"fmt"
	"time"
)

// Status is the health verdict for a single service or for the whole
// application. Only Up and Down exist; anything unknown must be mapped to
// Down before it reaches a Record.
type Status string

const (
	Up   Status = "UP"
	Down Status = "DOWN"
)

// Valid reports whether s is one of the two permitted values.
func (s Status) Valid() bool { return s == Up || s == Down }

// Parse converts a wire string into a Status.
func Parse(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("service_status must be one of: %s, %s", Up, Down)
	}
	return st, nil
}

// TimeLayout is the timestamp format written into records: full precision,
// always UTC with a Z suffix.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// FormatTime renders t in the record timestamp format.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// timestampLayouts are the ISO-style date-time shapes a record accepts.
// An offset or Z suffix is allowed but not required.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ValidTimestamp reports whether ts parses as a full date-time.
func ValidTimestamp(ts string) bool {
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, ts); err == nil {
			return true
		}
	}
	return false
}

// Record is one service's (or the application's) health at a point in time.
// Records are immutable value objects: construct them through New so that no
// instance ever exists with an invalid field. Two records with equal fields
// are interchangeable.
type Record struct {
	ServiceName   string `json:"service_name"`
	ServiceStatus Status `json:"service_status"`
	HostName      string `json:"host_name"`
	Timestamp     string `json:"timestamp"`
}

// New builds a validated Record. It fails atomically: on any invalid field
// the zero Record and a descriptive error are returned.
func New(name string, st Status, host, timestamp string) (Record, error) {
	r := Record{ServiceName: name, ServiceStatus: st, HostName: host, Timestamp: timestamp}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Validate checks all four record invariants.
func (r Record) Validate() error {
	if r.ServiceName == "" {
		return fmt.Errorf("service_name must be a non-empty string")
	}
	if !r.ServiceStatus.Valid() {
		return fmt.Errorf("service_status must be one of: %s, %s", Up, Down)
	}
	if r.HostName == "" {
		return fmt.Errorf("host_name must be a non-empty string")
	}
	if r.Timestamp == "" {
		return fmt.Errorf("timestamp must be a non-empty string")
	}
	if !ValidTimestamp(r.Timestamp) {
		return fmt.Errorf("timestamp %q must be an ISO 8601 date-time", r.Timestamp)
	}
	return nil
}
