package api

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strconv"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/sqlchart/sqlchart/internal/chart"
	"github.com/sqlchart/sqlchart/internal/query"
	"github.com/sqlchart/sqlchart/internal/storage"
)

const maxChartBodyBytes = 8 << 20

type chartResponse struct {
	Key         string `json:"key"`
	Location    string `json:"location"`
	ContentType string `json:"content_type"`
	SizeBytes   int    `json:"size_bytes"`
	URL         string `json:"url"`
}

func handleCreateChart(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Charts == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "CHARTS_NOT_CONFIGURED", "chart rendering is not configured", false, nil)
		return
	}

	raw, err := jsonschema.UnmarshalJSON(http.MaxBytesReader(w, r.Body, maxChartBodyBytes))
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid chart request body", false, map[string]any{"details": err.Error()})
		return
	}
	request, statement, err := chart.ParseArguments(raw)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "CHART_INVALID", "invalid chart request", false, map[string]any{"details": err.Error()})
		return
	}

	if statement != "" {
		if deps.QueryEngine == nil {
			writeError(r.Context(), w, http.StatusNotImplemented, "QUERY_NOT_CONFIGURED", "query engine is not configured", false, nil)
			return
		}
		result, err := deps.QueryEngine.Execute(r.Context(), query.Request{SQL: statement})
		if err != nil {
			writeQueryError(w, r, err)
			return
		}
		request.Columns = result.Columns
		request.Rows = result.Values()
	}

	rendered, err := deps.Charts.Render(r.Context(), request)
	if err != nil {
		if isChartInputError(err) {
			writeError(r.Context(), w, http.StatusBadRequest, "CHART_INVALID", "invalid chart request", false, map[string]any{"details": err.Error()})
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "CHART_RENDER_FAILED", "chart rendering failed", true, map[string]any{"details": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, chartResponse{
		Key:         rendered.Key,
		Location:    rendered.Location,
		ContentType: rendered.ContentType,
		SizeBytes:   len(rendered.Image),
		URL:         "/v1/charts/" + path.Base(rendered.Key),
	})
}

func handleGetChart(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.ChartStore == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "CHARTS_NOT_CONFIGURED", "chart store is not configured", false, nil)
		return
	}
	key := "charts/" + r.PathValue("name")
	if !storage.IsChartKey(key) {
		writeError(r.Context(), w, http.StatusNotFound, "CHART_NOT_FOUND", "chart was not found", false, nil)
		return
	}

	info, err := deps.ChartStore.Stat(r.Context(), key)
	if err != nil {
		writeChartStoreError(w, r, err)
		return
	}
	body, err := deps.ChartStore.Get(r.Context(), key)
	if err != nil {
		writeChartStoreError(w, r, err)
		return
	}
	defer func() { _ = body.Close() }()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, body)
}

func writeChartStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrObjectNotFound) {
		writeError(r.Context(), w, http.StatusNotFound, "CHART_NOT_FOUND", "chart was not found", false, nil)
		return
	}
	writeError(r.Context(), w, http.StatusBadGateway, "CHART_STORE_ERROR", "failed to read chart", true, map[string]any{"details": err.Error()})
}

func isChartInputError(err error) bool {
	for _, target := range []error{
		chart.ErrUnsupportedKind,
		chart.ErrUnknownColumn,
		chart.ErrInvalidRows,
		chart.ErrNonNumeric,
		chart.ErrNoData,
		chart.ErrInvalidArguments,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
