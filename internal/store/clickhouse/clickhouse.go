package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/loykin/svcmon/internal/status"
	"github.com/loykin/svcmon/internal/store"
)

// DB implements store.Store on ClickHouse using the official Go client.
// The table is append-only history; latest-status queries use argMax.

type DB struct {
	conn  driver.Conn
	table string
}

// Options configures the connection.
type Options struct {
	Addr     string // host:port
	Database string // default "default"
	Username string // default "default"
	Password string
	Table    string // default "service_status"
}

func New(opts Options) (*DB, error) {
	if opts.Database == "" {
		opts.Database = "default"
	}
	if opts.Username == "" {
		opts.Username = "default"
	}
	if opts.Table == "" {
		opts.Table = "service_status"
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	if err := conn.Ping(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}
	return &DB{conn: conn, table: opts.Table}, nil
}

func (c *DB) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		service_name String,
		service_status String,
		host_name String,
		timestamp String,
		recorded_at DateTime64(6, 'UTC')
	) ENGINE = MergeTree ORDER BY (service_name, recorded_at)`, c.table)
	return c.conn.Exec(ctx, query)
}

func (c *DB) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *DB) Ping(ctx context.Context) error { return c.conn.Ping(ctx) }

func (c *DB) Index(ctx context.Context, rec status.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	query := fmt.Sprintf(`INSERT INTO %s (service_name, service_status, host_name, timestamp, recorded_at) VALUES (?, ?, ?, ?, ?)`, c.table)
	if err := c.conn.Exec(ctx, query,
		rec.ServiceName,
		string(rec.ServiceStatus),
		rec.HostName,
		rec.Timestamp,
		time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("failed to insert status into ClickHouse: %w", err)
	}
	return nil
}

func (c *DB) Latest(ctx context.Context, name string) (status.Record, error) {
	query := fmt.Sprintf(`SELECT service_name, service_status, host_name, timestamp
		FROM %s WHERE service_name = ?
		ORDER BY timestamp DESC, recorded_at DESC LIMIT 1`, c.table)
	row := c.conn.QueryRow(ctx, query, name)
	var rec status.Record
	var st string
	if err := row.Scan(&rec.ServiceName, &st, &rec.HostName, &rec.Timestamp); err != nil {
		// the driver reports an empty result as io.EOF-like scan error
		return status.Record{}, store.ErrNotFound
	}
	rec.ServiceStatus = status.Status(st)
	return rec, nil
}

func (c *DB) LatestAll(ctx context.Context) (map[string]status.Status, error) {
	query := fmt.Sprintf(`SELECT service_name, argMax(service_status, (timestamp, recorded_at))
		FROM %s GROUP BY service_name`, c.table)
	rows, err := c.conn.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
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
