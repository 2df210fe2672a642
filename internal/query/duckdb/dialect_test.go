package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/sqlchart/sqlchart/internal/query"
)

func TestReadOnlyDSN(t *testing.T) {
	if got := ReadOnlyDSN("/data/sensors.duckdb"); got != "/data/sensors.duckdb?access_mode=READ_ONLY" {
		t.Fatalf("ReadOnlyDSN() = %q", got)
	}
}

func TestDescribeTableSQLBindsName(t *testing.T) {
	name := `read'ings"; DROP TABLE x; --`
	statement, args := New("x.duckdb").DescribeTableSQL(name)
	if statement != describeTableSQL {
		t.Fatalf("statement = %s", statement)
	}
	if len(args) != 1 || args[0] != name {
		t.Fatalf("args = %#v", args)
	}
}

func TestOpenMissingFileIsUnavailable(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "absent.duckdb")).Open(context.Background())
	if !errors.Is(err, query.ErrStoreUnavailable) {
		t.Fatalf("Open() error = %v", err)
	}
}

func TestListTablesSQLReturnsNameColumn(t *testing.T) {
	if got := New("x").ListTablesSQL(); got != listTablesSQL {
		t.Fatalf("ListTablesSQL() = %q", got)
	}
	if New("x").Name() != "duckdb:x" {
		t.Fatalf("Name() = %q", New("x").Name())
	}
}

func TestDescribeTableReturnsColumnDescriptors(t *testing.T) {
	executor := query.NewExecutor(New(seedReadings(t)))

	columns, err := executor.DescribeTable(context.Background(), "readings")
	if err != nil {
		t.Fatalf("DescribeTable() error = %v", err)
	}
	if len(columns) != 3 {
		t.Fatalf("columns = %#v", columns)
	}
	wantNames := []string{"id", "created_at", "value"}
	wantTypes := []string{"INTEGER", "VARCHAR", "DOUBLE"}
	for i, column := range columns {
		if column.CID != i || column.Name != wantNames[i] || column.Type != wantTypes[i] {
			t.Fatalf("column[%d] = %#v", i, column)
		}
	}
	if columns[0].PrimaryKey != 1 || columns[1].PrimaryKey != 0 {
		t.Fatalf("pk flags = %d, %d", columns[0].PrimaryKey, columns[1].PrimaryKey)
	}
	if !columns[1].NotNull || columns[2].NotNull {
		t.Fatalf("notnull flags = %v, %v", columns[1].NotNull, columns[2].NotNull)
	}
}

func TestDescribeTableUnknownTableIsEmpty(t *testing.T) {
	executor := query.NewExecutor(New(seedReadings(t)))

	for _, name := range []string{"missing", `readings"; DROP TABLE readings; --`, "readings'"} {
		columns, err := executor.DescribeTable(context.Background(), name)
		if err != nil {
			t.Fatalf("DescribeTable(%q) error = %v", name, err)
		}
		if columns == nil || len(columns) != 0 {
			t.Fatalf("DescribeTable(%q) = %#v, want empty", name, columns)
		}
	}

	tables, err := executor.ListTables(context.Background())
	if err != nil {
		t.Fatalf("ListTables() error = %v", err)
	}
	if len(tables.Rows) != 1 {
		t.Fatalf("tables = %#v", tables.Rows)
	}
}

func seedReadings(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sensor_readings.duckdb")
	db, err := sql.Open(driverName, path)
	if err != nil {
		t.Fatalf("open seed db: %v", err)
	}
	defer func() { _ = db.Close() }()

	for _, statement := range []string{
		`CREATE TABLE readings (id INTEGER PRIMARY KEY, created_at VARCHAR NOT NULL DEFAULT '1970-01-01', value DOUBLE)`,
		`INSERT INTO readings VALUES (1, '2024-01-01', 10.5), (2, '2024-01-02', 20.0)`,
	} {
		if _, err := db.Exec(statement); err != nil {
			t.Fatalf("seed %q: %v", statement, err)
		}
	}
	return path
}
