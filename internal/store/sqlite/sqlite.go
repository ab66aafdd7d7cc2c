package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/loykin/svcmon/internal/status"
	"github.com/loykin/svcmon/internal/store"
)

// DB implements store.Store for SQLite (modernc.org/sqlite driver, CGO-free).
// The DSN is a filesystem path to the database file; use ":memory:" for
// in-memory.

type DB struct {
	db *sql.DB
}

// New opens a SQLite database at path.
func New(path string) (*DB, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty sqlite path")
	}
	d, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	// busy timeout helps with short concurrent locks
	_, _ = d.Exec("PRAGMA busy_timeout=3000;")
	return &DB{db: d}, nil
}

func (s *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS service_status(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			service_name TEXT NOT NULL,
			service_status TEXT NOT NULL,
			host_name TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_service_status_name ON service_status(service_name);`,
		`CREATE INDEX IF NOT EXISTS idx_service_status_ts ON service_status(timestamp);`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *DB) Close() error { return s.db.Close() }

func (s *DB) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *DB) Index(ctx context.Context, rec status.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO service_status(service_name, service_status, host_name, timestamp, created_at)
		VALUES(?, ?, ?, ?, ?);`,
		rec.ServiceName, string(rec.ServiceStatus), rec.HostName, rec.Timestamp, time.Now().UTC())
	return err
}

func (s *DB) Latest(ctx context.Context, name string) (status.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT service_name, service_status, host_name, timestamp
		FROM service_status
		WHERE service_name=?
		ORDER BY timestamp DESC, id DESC
		LIMIT 1;`, name)
	var rec status.Record
	err := row.Scan(&rec.ServiceName, &rec.ServiceStatus, &rec.HostName, &rec.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return status.Record{}, store.ErrNotFound
	}
	if err != nil {
		return status.Record{}, err
	}
	return rec, nil
}

func (s *DB) LatestAll(ctx context.Context) (map[string]status.Status, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ss.service_name, ss.service_status
		FROM service_status ss
		WHERE ss.id = (
			SELECT s2.id FROM service_status s2
			WHERE s2.service_name = ss.service_name
			ORDER BY s2.timestamp DESC, s2.id DESC
			LIMIT 1
		);`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := make(map[string]status.Status)
	for rows.Next() {
		var name, st string
		if err := rows.Scan(&name, &st); err != nil {
			return nil, err
		}
		out[name] = status.Status(st)
	}
	return out, rows.Err()
}
