package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sqlchart/sqlchart/internal/chart"
	"github.com/sqlchart/sqlchart/internal/query"
)

const ServerName = "Sensor Data Server"

type ChartRenderer interface {
	Render(ctx context.Context, request chart.Request) (chart.Chart, error)
}

// Handlers backs the MCP tools with the query engine and chart renderer.
type Handlers struct {
	engine query.Engine
	charts ChartRenderer
	logger *slog.Logger
}

func NewHandlers(engine query.Engine, charts ChartRenderer, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{engine: engine, charts: charts, logger: logger}
}

// NewServer registers every tool on a fresh MCP server.
func NewServer(version string, handlers *Handlers) *server.MCPServer {
	s := server.NewMCPServer(ServerName, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.AddTool(ListTablesSpec(), handlers.ListTables)
	s.AddTool(DescribeTableSpec(), handlers.DescribeTable)
	s.AddTool(QuerySpec(), handlers.Query)
	s.AddTool(CreateChartSpec(), handlers.CreateChart)
	return s
}

func ListTablesSpec() mcp.Tool {
	return mcp.NewTool("list_tables",
		mcp.WithDescription("List all tables in the sensor database."),
		mcp.WithTitleAnnotation("List tables"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

func DescribeTableSpec() mcp.Tool {
	return mcp.NewTool("describe_table",
		mcp.WithDescription("Describe the columns of a table: position, name, declared type, nullability, default and primary key."),
		mcp.WithString("table_name",
			mcp.Required(),
			mcp.Description("Name of the table to describe"),
		),
		mcp.WithTitleAnnotation("Describe table"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

func QuerySpec() mcp.Tool {
	return mcp.NewTool("query",
		mcp.WithDescription("Execute a read-only SELECT query against the sensor database. Statements that modify data or touch database internals are rejected."),
		mcp.WithString("sql_query",
			mcp.Required(),
			mcp.Description("SQL SELECT statement to run"),
		),
		mcp.WithTitleAnnotation("Query"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

func CreateChartSpec() mcp.Tool {
	return mcp.NewTool("create_chart",
		mcp.WithDescription("Render a line, bar or scatter chart from query results and return it as a PNG image."),
		mcp.WithArray("columns",
			mcp.Required(),
			mcp.Description("Column names of the result set"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithArray("rows",
			mcp.Required(),
			mcp.Description("Rows of the result set, each an array of values in column order"),
			mcp.Items(map[string]any{"type": "array"}),
		),
		mcp.WithString("chart_type",
			mcp.Description("Chart type"),
			mcp.Enum(chart.Kinds()...),
			mcp.DefaultString(string(chart.KindLine)),
		),
		mcp.WithString("x", mcp.Required(), mcp.Description("Column plotted on the x axis")),
		mcp.WithString("y", mcp.Required(), mcp.Description("Column plotted on the y axis")),
		mcp.WithString("hue", mcp.Description("Optional column that splits the data into series")),
		mcp.WithString("title", mcp.Description("Optional chart title")),
		mcp.WithTitleAnnotation("Create chart"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

func (h *Handlers) ListTables(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.engine.ListTables(ctx)
	if err != nil {
		return h.toolError(ctx, "list_tables", err), nil
	}
	return jsonResult(result.Rows)
}

func (h *Handlers) DescribeTable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	table, err := request.RequireString("table_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	columns, err := h.engine.DescribeTable(ctx, table)
	if err != nil {
		return h.toolError(ctx, "describe_table", err), nil
	}
	return jsonResult(columns)
}

func (h *Handlers) Query(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	statement, err := request.RequireString("sql_query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := h.engine.Execute(ctx, query.Request{SQL: statement})
	if err != nil {
		return h.toolError(ctx, "query", err), nil
	}
	return jsonResult(result.Rows)
}

func (h *Handlers) CreateChart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.charts == nil {
		return mcp.NewToolResultError("chart rendering is not configured"), nil
	}
	args := request.GetArguments()
	if args == nil {
		args = map[string]any{}
	}
	chartRequest, statement, err := chart.ParseArguments(args)
	if err != nil {
		return h.toolError(ctx, "create_chart", err), nil
	}
	if statement != "" {
		return mcp.NewToolResultError("create_chart takes columns and rows; run the query tool first"), nil
	}

	rendered, err := h.charts.Render(ctx, chartRequest)
	if err != nil {
		return h.toolError(ctx, "create_chart", err), nil
	}
	summary := fmt.Sprintf("Chart saved to %s", rendered.Location)
	return mcp.NewToolResultImage(summary, base64.StdEncoding.EncodeToString(rendered.Image), rendered.ContentType), nil
}

func (h *Handlers) toolError(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	h.logger.InfoContext(ctx, "tool_failed", slog.String("tool", tool), slog.Any("error", err))
	return mcp.NewToolResultError(ErrorMessage(err))
}

// ErrorMessage turns an engine or renderer error into the text a tool caller
// sees. Rejections carry the gate's reason so the caller can fix the query.
func ErrorMessage(err error) string {
	var rejected *query.RejectedQueryError
	switch {
	case errors.As(err, &rejected):
		return "Query rejected: " + rejected.Verdict.Message()
	case errors.Is(err, query.ErrStoreUnavailable):
		return "Database unavailable: " + unwrapMessage(err)
	case errors.Is(err, query.ErrExecution):
		return "Query failed: " + unwrapMessage(err)
	case errors.Is(err, chart.ErrInvalidArguments),
		errors.Is(err, chart.ErrUnsupportedKind),
		errors.Is(err, chart.ErrUnknownColumn),
		errors.Is(err, chart.ErrInvalidRows),
		errors.Is(err, chart.ErrNonNumeric),
		errors.Is(err, chart.ErrNoData):
		return "Invalid chart request: " + err.Error()
	default:
		return "Error: " + err.Error()
	}
}

func unwrapMessage(err error) string {
	if inner := errors.Unwrap(err); inner != nil {
		return inner.Error()
	}
	return err.Error()
}

func jsonResult(value any) (*mcp.CallToolResult, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(encoded)), nil
}
