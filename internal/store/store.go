// Package store defines the report store: a document store that indexes
// status records and answers latest-per-service queries for the HTTP API.
package store

import (
	"context"
	"errors"

	"github.com/loykin/svcmon/internal/status"
)

// ErrNotFound is returned by Latest when no record exists for a service.
var ErrNotFound = errors.New("service status not found")

// Store indexes status records and serves latest-status queries.
// Implementations must be safe for concurrent use.
type Store interface {
	// Index appends one record to the service's history.
	Index(ctx context.Context, rec status.Record) error
	// Latest returns the most recent record for one service, or ErrNotFound.
	Latest(ctx context.Context, name string) (status.Record, error)
	// LatestAll returns the most recent status per known service.
	LatestAll(ctx context.Context) (map[string]status.Status, error)
	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
	Close() error
}
