package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/loykin/svcmon/internal/status"
	"github.com/loykin/svcmon/internal/store"
)

// startPostgresContainer starts a PostgreSQL container for tests and returns
// a DSN for the pgx stdlib driver. It skips the test if Docker is unavailable.
func startPostgresContainer(t *testing.T) (dsn string, terminate func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
	)
	if err != nil {
		cancel()
		t.Skipf("Failed to start PostgreSQL container: %v", err)
		return "", nil
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		cancel()
		t.Skipf("Failed to get host info: %v", err)
		return "", nil
	}

	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = container.Terminate(ctx)
		cancel()
		t.Skipf("Failed to get mapped port: %v", err)
		return "", nil
	}

	dsn = fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	terminate = func() {
		_ = container.Terminate(ctx)
		cancel()
	}
	return dsn, terminate
}

func waitForPostgres(t *testing.T, dsn string) {
	t.Helper()
	deadline := time.Now().Add(45 * time.Second)
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		db, err := sql.Open("pgx", dsn)
		if err == nil {
			if err = db.PingContext(ctx); err == nil {
				_ = db.Close()
				cancel()
				return
			}
			_ = db.Close()
		}
		cancel()
		if time.Now().After(deadline) {
			t.Skipf("PostgreSQL not ready in time: %v", err)
			return
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func TestPostgresStore(t *testing.T) {
	dsn, terminate := startPostgresContainer(t)
	defer terminate()
	waitForPostgres(t, dsn)

	db, err := New(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := db.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	mk := func(name string, st status.Status, ts string) status.Record {
		r, err := status.New(name, st, "web-01", ts)
		if err != nil {
			t.Fatalf("record: %v", err)
		}
		return r
	}

	for _, r := range []status.Record{
		mk("httpd", status.Up, "2024-05-01T10:00:00Z"),
		mk("httpd", status.Down, "2024-05-01T11:00:00Z"),
		mk("rabbitmq", status.Up, "2024-05-01T10:30:00Z"),
	} {
		if err := db.Index(ctx, r); err != nil {
			t.Fatalf("index %s: %v", r.ServiceName, err)
		}
	}

	got, err := db.Latest(ctx, "httpd")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got.ServiceStatus != status.Down {
		t.Fatalf("expected newest record DOWN, got %+v", got)
	}

	all, err := db.LatestAll(ctx)
	if err != nil {
		t.Fatalf("latest all: %v", err)
	}
	if all["httpd"] != status.Down || all["rabbitmq"] != status.Up {
		t.Fatalf("unexpected latest map: %v", all)
	}

	if _, err := db.Latest(ctx, "ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
