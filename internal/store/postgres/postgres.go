package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/loykin/svcmon/internal/status"
	"github.com/loykin/svcmon/internal/store"
)

// DB implements store.Store for PostgreSQL via the pgx stdlib driver.

type DB struct {
	db *sql.DB
}

func New(dsn string) (*DB, error) {
	d, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &DB{db: d}, nil
}

func (p *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS service_status(
			id BIGSERIAL PRIMARY KEY,
			service_name TEXT NOT NULL,
			service_status TEXT NOT NULL,
			host_name TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_service_status_name ON service_status(service_name);`,
		`CREATE INDEX IF NOT EXISTS idx_service_status_ts ON service_status(timestamp);`,
	}
	for _, q := range stmts {
		if _, err := p.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (p *DB) Close() error { return p.db.Close() }

func (p *DB) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *DB) Index(ctx context.Context, rec status.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO service_status(service_name, service_status, host_name, timestamp, created_at)
		VALUES($1, $2, $3, $4, $5);`,
		rec.ServiceName, string(rec.ServiceStatus), rec.HostName, rec.Timestamp, time.Now().UTC())
	return err
}

func (p *DB) Latest(ctx context.Context, name string) (status.Record, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT service_name, service_status, host_name, timestamp
		FROM service_status
		WHERE service_name=$1
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

func (p *DB) LatestAll(ctx context.Context) (map[string]status.Status, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT DISTINCT ON (service_name) service_name, service_status
		FROM service_status
		ORDER BY service_name, timestamp DESC, id DESC;`)
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
