// Package sqlite opens SQLite database files read-only through the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sqlchart/sqlchart/internal/query"
)

const driverName = "sqlite"

const listTablesSQL = `SELECT name FROM sqlite_master WHERE type = 'table'`

// The pragma is used in its table-valued form so the table name is bound as a
// parameter instead of being spliced into the statement.
const describeTableSQL = `SELECT cid, name, type, "notnull", dflt_value, pk FROM pragma_table_info(?) ORDER BY cid`

type Dialect struct {
	Path        string
	PingTimeout time.Duration
}

func New(path string) *Dialect {
	return &Dialect{Path: path, PingTimeout: 5 * time.Second}
}

func (d *Dialect) Name() string {
	return "sqlite:" + d.Path
}

func (d *Dialect) ListTablesSQL() string {
	return listTablesSQL
}

func (d *Dialect) DescribeTableSQL(table string) (string, []any) {
	return describeTableSQL, []any{table}
}

// Open never creates the file: a missing or unreadable path is reported as
// an unavailable store before the driver is touched.
func (d *Dialect) Open(ctx context.Context) (*sql.DB, error) {
	if strings.TrimSpace(d.Path) == "" {
		return nil, &query.StoreUnavailableError{Store: d.Name(), Err: fmt.Errorf("database path is required")}
	}
	info, err := os.Stat(d.Path)
	if err != nil {
		return nil, &query.StoreUnavailableError{Store: d.Name(), Err: err}
	}
	if info.IsDir() {
		return nil, &query.StoreUnavailableError{Store: d.Name(), Err: fmt.Errorf("%s is a directory", d.Path)}
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

// ReadOnlyDSN builds a URI filename opened with mode=ro, so SQLite refuses
// writes, plus query_only as a second engine-level guard.
func ReadOnlyDSN(path string) string {
	return "file:" + escapeURIPath(path) + "?mode=ro&_pragma=query_only(1)"
}

func escapeURIPath(path string) string {
	replacer := strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")
	return replacer.Replace(path)
}
