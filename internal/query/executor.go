package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sqlchart/sqlchart/internal/gate"
	"github.com/sqlchart/sqlchart/internal/observability"
)

// Opener yields a fresh read-only handle for a single operation.
type Opener func(ctx context.Context) (*sql.DB, error)

type ExecutorOption func(*Executor)

func WithGate(g *gate.Gate) ExecutorOption {
	return func(e *Executor) {
		if g != nil {
			e.gate = g
		}
	}
}

// WithOpener replaces the dialect's opener, mostly so tests can observe
// when handles are acquired.
func WithOpener(open Opener) ExecutorOption {
	return func(e *Executor) {
		if open != nil {
			e.open = open
		}
	}
}

func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Executor runs gate-approved statements. It holds no connection between
// calls: each operation opens its own handle and closes it before returning.
type Executor struct {
	dialect Dialect
	gate    *gate.Gate
	open    Opener
	logger  *slog.Logger
}

func NewExecutor(dialect Dialect, opts ...ExecutorOption) *Executor {
	e := &Executor{
		dialect: dialect,
		gate:    gate.New(),
		logger:  slog.New(slog.DiscardHandler),
	}
	if dialect != nil {
		e.open = dialect.Open
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) Execute(ctx context.Context, request Request) (Result, error) {
	if !request.SkipGate {
		if verdict := e.gate.Check(request.SQL); !verdict.Allowed {
			observability.IncrementGateRejection(verdict.Reason)
			e.logger.InfoContext(ctx, "query_rejected",
				slog.String("trace_id", observability.TraceIDFromContext(ctx)),
				slog.String("reason", verdict.Reason),
				slog.String("keyword", verdict.Keyword),
			)
			return Result{}, &RejectedQueryError{Verdict: verdict}
		}
	}
	return e.run(ctx, "query", request.SQL)
}

func (e *Executor) ListTables(ctx context.Context) (Result, error) {
	if e.dialect == nil {
		return Result{}, fmt.Errorf("dialect is required")
	}
	return e.run(ctx, "list_tables", e.dialect.ListTablesSQL())
}

// DescribeTable returns no descriptors, and no error, for unknown tables.
func (e *Executor) DescribeTable(ctx context.Context, table string) ([]ColumnDescriptor, error) {
	if e.dialect == nil {
		return nil, fmt.Errorf("dialect is required")
	}
	statement, args := e.dialect.DescribeTableSQL(table)
	result, err := e.run(ctx, "describe_table", statement, args...)
	if err != nil {
		return nil, err
	}
	columns := make([]ColumnDescriptor, 0, len(result.Rows))
	for _, row := range result.Rows {
		columns = append(columns, descriptorFromRow(row))
	}
	return columns, nil
}

// Ping opens and closes a handle without running a statement.
func (e *Executor) Ping(ctx context.Context) error {
	db, err := e.openStore(ctx)
	if err != nil {
		return err
	}
	return db.Close()
}

func (e *Executor) run(ctx context.Context, operation, statement string, args ...any) (Result, error) {
	start := time.Now()
	result, err := e.runOnce(ctx, statement, args...)
	elapsed := time.Since(start)
	observability.ObserveQuery(operation, outcomeOf(err), elapsed)
	if err != nil {
		e.logger.WarnContext(ctx, "query_failed",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.String("operation", operation),
			slog.String("duration", elapsed.String()),
			slog.Any("error", err),
		)
		return Result{}, err
	}
	result.Duration = elapsed
	e.logger.DebugContext(ctx, "query_executed",
		slog.String("trace_id", observability.TraceIDFromContext(ctx)),
		slog.String("operation", operation),
		slog.Int("rows", len(result.Rows)),
		slog.String("duration", elapsed.String()),
	)
	return result, nil
}

func (e *Executor) runOnce(ctx context.Context, statement string, args ...any) (Result, error) {
	db, err := e.openStore(ctx)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, statement, args...)
	if err != nil {
		return Result{}, &ExecutionError{Err: err}
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, &ExecutionError{Err: fmt.Errorf("query columns: %w", err)}
	}

	resultRows := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return Result{}, &ExecutionError{Err: fmt.Errorf("scan row: %w", err)}
		}
		resultRows = append(resultRows, Row{Columns: columns, Values: values})
	}
	if err := rows.Err(); err != nil {
		return Result{}, &ExecutionError{Err: err}
	}

	return Result{Columns: columns, Rows: resultRows}, nil
}

func (e *Executor) openStore(ctx context.Context) (*sql.DB, error) {
	if e.open == nil {
		return nil, fmt.Errorf("store opener is required")
	}
	db, err := e.open(ctx)
	if err != nil {
		var unavailable *StoreUnavailableError
		if errors.As(err, &unavailable) {
			return nil, err
		}
		name := ""
		if e.dialect != nil {
			name = e.dialect.Name()
		}
		return nil, &StoreUnavailableError{Store: name, Err: err}
	}
	return db, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ErrExecution):
		return "execution_error"
	default:
		return "error"
	}
}
