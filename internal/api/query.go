package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sqlchart/sqlchart/internal/query"
)

const maxQueryBodyBytes = 1 << 20

type queryRequest struct {
	SQL string `json:"sql"`
}

type queryResponse struct {
	Columns []string       `json:"columns"`
	Rows    []query.Row    `json:"rows"`
	Stats   map[string]any `json:"stats"`
}

func handleQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.QueryEngine == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "QUERY_NOT_CONFIGURED", "query engine is not configured", false, nil)
		return
	}

	var request queryRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid query request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.SQL) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_REQUIRED", "sql is required", false, nil)
		return
	}

	result, err := deps.QueryEngine.Execute(r.Context(), query.Request{SQL: request.SQL})
	if err != nil {
		writeQueryError(w, r, err)
		return
	}

	rows := result.Rows
	if rows == nil {
		rows = []query.Row{}
	}
	writeJSON(w, http.StatusOK, queryResponse{
		Columns: result.Columns,
		Rows:    rows,
		Stats: map[string]any{
			"duration_ms": result.Duration.Milliseconds(),
			"row_count":   len(rows),
		},
	})
}

// writeQueryError maps the executor's error taxonomy onto the HTTP envelope.
func writeQueryError(w http.ResponseWriter, r *http.Request, err error) {
	var rejected *query.RejectedQueryError
	switch {
	case errors.As(err, &rejected):
		extra := map[string]any{"reason": rejected.Verdict.Reason}
		if rejected.Verdict.Keyword != "" {
			extra["keyword"] = rejected.Verdict.Keyword
		}
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_NOT_ALLOWED", rejected.Verdict.Message(), false, extra)
	case errors.Is(err, query.ErrStoreUnavailable):
		writeError(r.Context(), w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "database is unavailable", true, map[string]any{"details": err.Error()})
	case errors.Is(err, query.ErrExecution):
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_EXECUTION_FAILED", "query execution failed", false, map[string]any{"details": err.Error()})
	default:
		writeError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "query failed", true, map[string]any{"details": err.Error()})
	}
}
