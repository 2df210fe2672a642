package query

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

type Request struct {
	SQL string
	// SkipGate is reserved for fixed introspection statements built in this
	// package; caller-supplied SQL always goes through the gate.
	SkipGate bool
}

type Result struct {
	Columns  []string
	Rows     []Row
	Duration time.Duration
}

// Values returns the rows as positional slices, the shape charts consume.
func (r Result) Values() [][]any {
	out := make([][]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		out = append(out, row.Values)
	}
	return out
}

// Row keeps values in the column order of the statement that produced it.
type Row struct {
	Columns []string
	Values  []any
}

func (r Row) Get(column string) (any, bool) {
	for i, name := range r.Columns {
		if name == column {
			return r.Values[i], true
		}
	}
	return nil, false
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(r.Values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ColumnDescriptor mirrors one row of SQLite's table_info output.
type ColumnDescriptor struct {
	CID        int    `json:"cid"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"notnull"`
	Default    any    `json:"dflt_value"`
	PrimaryKey int    `json:"pk"`
}

// Dialect adapts the executor to one storage engine. Open must return a handle
// the engine itself refuses to write through.
type Dialect interface {
	Name() string
	Open(ctx context.Context) (*sql.DB, error)
	ListTablesSQL() string
	DescribeTableSQL(table string) (string, []any)
}

type Engine interface {
	Execute(ctx context.Context, request Request) (Result, error)
	ListTables(ctx context.Context) (Result, error)
	DescribeTable(ctx context.Context, table string) ([]ColumnDescriptor, error)
}
