package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/sqlchart/sqlchart/internal/query"
)

const driverName = "pgx"

const listTablesSQL = `SELECT table_name AS name
FROM information_schema.tables
WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
ORDER BY table_name`

const describeTableSQL = `SELECT c.ordinal_position - 1 AS cid,
       c.column_name AS name,
       c.data_type AS type,
       c.is_nullable = 'NO' AS notnull,
       c.column_default AS dflt_value,
       COALESCE(k.ordinal_position, 0) AS pk
FROM information_schema.columns c
LEFT JOIN (
    SELECT kcu.column_name, kcu.ordinal_position
    FROM information_schema.table_constraints tc
    JOIN information_schema.key_column_usage kcu
      ON kcu.constraint_name = tc.constraint_name
     AND kcu.table_schema = tc.table_schema
     AND kcu.table_name = tc.table_name
    WHERE tc.constraint_type = 'PRIMARY KEY'
      AND tc.table_schema = current_schema()
      AND tc.table_name = $1
) k ON k.column_name = c.column_name
WHERE c.table_schema = current_schema() AND c.table_name = $1
ORDER BY c.ordinal_position`

type Dialect struct {
	DSN         string
	PingTimeout time.Duration
}

func New(dsn string) *Dialect {
	return &Dialect{DSN: dsn, PingTimeout: 5 * time.Second}
}

// Name omits credentials carried in the DSN.
func (d *Dialect) Name() string {
	parsed, err := url.Parse(d.DSN)
	if err != nil || parsed.Host == "" {
		return "postgres"
	}
	return "postgres://" + parsed.Host + parsed.Path
}

func (d *Dialect) ListTablesSQL() string {
	return listTablesSQL
}

func (d *Dialect) DescribeTableSQL(table string) (string, []any) {
	return describeTableSQL, []any{table}
}

func (d *Dialect) Open(ctx context.Context) (*sql.DB, error) {
	dsn, err := ReadOnlyDSN(d.DSN)
	if err != nil {
		return nil, &query.StoreUnavailableError{Store: d.Name(), Err: err}
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, &query.StoreUnavailableError{Store: d.Name(), Err: err}
	}
	db.SetMaxOpenConns(1)

	pingCtx := ctx
	if d.PingTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, d.PingTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, &query.StoreUnavailableError{Store: d.Name(), Err: err}
	}
	return db, nil
}

// ReadOnlyDSN makes every transaction on the session read-only, so the server
// rejects writes regardless of what the gate admitted.
func ReadOnlyDSN(dsn string) (string, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "", fmt.Errorf("postgres dsn is required")
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		parsed, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse postgres dsn: %w", err)
		}
		params := parsed.Query()
		params.Set("default_transaction_read_only", "on")
		parsed.RawQuery = params.Encode()
		return parsed.String(), nil
	}
	return dsn + " default_transaction_read_only=on", nil
}
