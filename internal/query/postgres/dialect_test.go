package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sqlchart/sqlchart/internal/query"
)

func TestReadOnlyDSNForURL(t *testing.T) {
	got, err := ReadOnlyDSN("postgres://reader:secret@db:5432/sensors?sslmode=disable")
	if err != nil {
		t.Fatalf("ReadOnlyDSN() error = %v", err)
	}
	if got != "postgres://reader:secret@db:5432/sensors?default_transaction_read_only=on&sslmode=disable" {
		t.Fatalf("ReadOnlyDSN() = %q", got)
	}
}

func TestReadOnlyDSNForKeywordValue(t *testing.T) {
	got, err := ReadOnlyDSN("host=db user=reader dbname=sensors")
	if err != nil {
		t.Fatalf("ReadOnlyDSN() error = %v", err)
	}
	if !strings.HasSuffix(got, " default_transaction_read_only=on") {
		t.Fatalf("ReadOnlyDSN() = %q", got)
	}
}

func TestReadOnlyDSNRequiresValue(t *testing.T) {
	if _, err := ReadOnlyDSN("  "); err == nil {
		t.Fatal("expected error for empty dsn")
	}
}

func TestNameHidesCredentials(t *testing.T) {
	name := New("postgres://reader:secret@db:5432/sensors").Name()
	if strings.Contains(name, "secret") {
		t.Fatalf("Name() leaked credentials: %q", name)
	}
	if name != "postgres://db:5432/sensors" {
		t.Fatalf("Name() = %q", name)
	}
}

func TestDescribeTableSQLBindsName(t *testing.T) {
	statement, args := New("postgres://db/x").DescribeTableSQL("readings'; DROP TABLE x")
	if strings.Contains(statement, "readings") {
		t.Fatalf("table name leaked into statement: %s", statement)
	}
	if len(args) != 1 || args[0] != "readings'; DROP TABLE x" {
		t.Fatalf("args = %#v", args)
	}
}

func TestOpenEmptyDSNIsUnavailable(t *testing.T) {
	_, err := New("").Open(context.Background())
	if !errors.Is(err, query.ErrStoreUnavailable) {
		t.Fatalf("Open() error = %v", err)
	}
}
