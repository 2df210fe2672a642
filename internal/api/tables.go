package api

import (
	"net/http"
	"strings"

	"github.com/sqlchart/sqlchart/internal/query"
)

func handleListTables(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.QueryEngine == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "QUERY_NOT_CONFIGURED", "query engine is not configured", false, nil)
		return
	}
	result, err := deps.QueryEngine.ListTables(r.Context())
	if err != nil {
		writeQueryError(w, r, err)
		return
	}
	tables := result.Rows
	if tables == nil {
		tables = []query.Row{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

// handleDescribeTable answers an unknown table with an empty column list, the
// same answer the store's own introspection gives.
func handleDescribeTable(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.QueryEngine == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "QUERY_NOT_CONFIGURED", "query engine is not configured", false, nil)
		return
	}
	tableName := strings.TrimSpace(r.PathValue("table"))
	if tableName == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "TABLE_REQUIRED", "table path parameter is required", false, nil)
		return
	}
	columns, err := deps.QueryEngine.DescribeTable(r.Context(), tableName)
	if err != nil {
		writeQueryError(w, r, err)
		return
	}
	if columns == nil {
		columns = []query.ColumnDescriptor{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"table": tableName, "columns": columns})
}
