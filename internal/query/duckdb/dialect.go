package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/sqlchart/sqlchart/internal/query"
)

const driverName = "duckdb"

const listTablesSQL = `SELECT table_name AS name FROM information_schema.tables WHERE table_type = 'BASE TABLE' ORDER BY table_name`

// Unknown tables yield no rows here, where pragma_table_info raises a
// catalog error.
const describeTableSQL = `SELECT c.ordinal_position - 1 AS cid,
       c.column_name AS name,
       c.data_type AS type,
       c.is_nullable = 'NO' AS "notnull",
       c.column_default AS dflt_value,
       CASE WHEN EXISTS (
           SELECT 1 FROM duckdb_constraints() k
           WHERE k.constraint_type = 'PRIMARY KEY'
             AND k.database_name = c.table_catalog
             AND k.schema_name = c.table_schema
             AND k.table_name = c.table_name
             AND list_contains(k.constraint_column_names, c.column_name)
       ) THEN 1 ELSE 0 END AS pk
FROM information_schema.columns c
WHERE c.table_catalog = current_database()
  AND c.table_schema = current_schema()
  AND c.table_name = ?
ORDER BY c.ordinal_position`

type Dialect struct {
	Path        string
	PingTimeout time.Duration
}

func New(path string) *Dialect {
	return &Dialect{Path: path, PingTimeout: 5 * time.Second}
}

func (d *Dialect) Name() string {
	return "duckdb:" + d.Path
}

func (d *Dialect) ListTablesSQL() string {
	return listTablesSQL
}

func (d *Dialect) DescribeTableSQL(table string) (string, []any) {
	return describeTableSQL, []any{table}
}

func (d *Dialect) Open(ctx context.Context) (*sql.DB, error) {
	if strings.TrimSpace(d.Path) == "" {
		return nil, &query.StoreUnavailableError{Store: d.Name(), Err: fmt.Errorf("database path is required")}
	}
	if _, err := os.Stat(d.Path); err != nil {
		return nil, &query.StoreUnavailableError{Store: d.Name(), Err: err}
	}

	db, err := sql.Open(driverName, ReadOnlyDSN(d.Path))
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

// ReadOnlyDSN opens the file with access_mode=READ_ONLY so DuckDB itself
// rejects writes and never creates a missing database.
func ReadOnlyDSN(path string) string {
	params := url.Values{}
	params.Set("access_mode", "READ_ONLY")
	return path + "?" + params.Encode()
}
