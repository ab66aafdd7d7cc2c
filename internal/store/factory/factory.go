package factory

import (
	"context"
	"errors"
	"strings"

	ch "github.com/loykin/svcmon/internal/store/clickhouse"
	os "github.com/loykin/svcmon/internal/store/opensearch"
	pg "github.com/loykin/svcmon/internal/store/postgres"
	sq "github.com/loykin/svcmon/internal/store/sqlite"

	"github.com/loykin/svcmon/internal/store"
)

// Open selects a report store implementation based on DSN and prepares its
// schema or index. Supported:
//   - postgres:   DSN starting with "postgres://" or "postgresql://"
//   - opensearch: DSN starting with "http://" or "https://" (index applies)
//   - clickhouse: "clickhouse://host:port"
//   - sqlite:     "sqlite://<path>" or a bare filepath (the default)
func Open(ctx context.Context, dsn, index string) (store.Store, error) {
	d := strings.TrimSpace(dsn)
	ld := strings.ToLower(d)
	if ld == "" {
		return nil, errors.New("empty DSN")
	}
	switch {
	case strings.HasPrefix(ld, "postgres://") || strings.HasPrefix(ld, "postgresql://"):
		db, err := pg.New(d)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	case strings.HasPrefix(ld, "http://") || strings.HasPrefix(ld, "https://"):
		c := os.New(d, index)
		if err := c.EnsureIndex(ctx); err != nil {
			return nil, err
		}
		return c, nil
	case strings.HasPrefix(ld, "clickhouse://"):
		db, err := ch.New(ch.Options{Addr: strings.TrimPrefix(d, "clickhouse://")})
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	case strings.HasPrefix(ld, "sqlite://"):
		d = strings.TrimPrefix(d, "sqlite://")
		fallthrough
	default:
		db, err := sq.New(d)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}
}
