package chart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sqlchart/sqlchart/internal/observability"
	"github.com/sqlchart/sqlchart/internal/storage"
)

var (
	ErrUnsupportedKind = errors.New("unsupported chart type")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrInvalidRows     = errors.New("invalid rows")
	ErrNonNumeric      = errors.New("non-numeric value")
	ErrNoData          = errors.New("no plottable rows")
)

type Kind string

const (
	KindLine    Kind = "line"
	KindBar     Kind = "bar"
	KindScatter Kind = "scatter"
)

const (
	DefaultWidthInches  = 10.0
	DefaultHeightInches = 6.0

	contentTypePNG = "image/png"
)

// Kinds lists the accepted chart types, default first.
func Kinds() []string {
	return []string{string(KindLine), string(KindBar), string(KindScatter)}
}

// ParseKind is case-insensitive and treats an empty value as a line chart.
func ParseKind(raw string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case "", KindLine:
		return KindLine, nil
	case KindBar:
		return KindBar, nil
	case KindScatter:
		return KindScatter, nil
	default:
		return "", fmt.Errorf("%w: %q (expected one of %s)", ErrUnsupportedKind, raw, strings.Join(Kinds(), ", "))
	}
}

// Request is a tabular result set plus the columns to plot. Rows are
// positional and must match Columns in width.
type Request struct {
	Columns []string
	Rows    [][]any
	Kind    string
	X       string
	Y       string
	Hue     string
	Title   string
}

type Chart struct {
	Key         string
	Location    string
	ContentType string
	Image       []byte
}

// Renderer draws charts and hands the encoded image to Store. Every call
// builds its own plot, so one Renderer is safe for concurrent use.
type Renderer struct {
	Store  storage.ObjectStore
	Width  float64
	Height float64
	Now    func() time.Time
	NewID  func() string
	Logger *slog.Logger
}

func NewRenderer(store storage.ObjectStore, width, height float64) *Renderer {
	return &Renderer{Store: store, Width: width, Height: height}
}

func (r *Renderer) Render(ctx context.Context, request Request) (Chart, error) {
	start := time.Now()
	kind, err := ParseKind(request.Kind)
	if err != nil {
		observability.ObserveChartRender("invalid", "rejected", time.Since(start))
		return Chart{}, err
	}

	chart, err := r.render(ctx, kind, request)
	elapsed := time.Since(start)
	observability.ObserveChartRender(string(kind), renderOutcome(err), elapsed)

	logger := r.logger()
	if err != nil {
		logger.WarnContext(ctx, "chart_render_failed",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.String("kind", string(kind)),
			slog.Any("error", err),
		)
		return Chart{}, err
	}
	logger.InfoContext(ctx, "chart_rendered",
		slog.String("trace_id", observability.TraceIDFromContext(ctx)),
		slog.String("kind", string(kind)),
		slog.String("key", chart.Key),
		slog.Int("bytes", len(chart.Image)),
		slog.String("duration", elapsed.String()),
	)
	return chart, nil
}

func (r *Renderer) render(ctx context.Context, kind Kind, request Request) (Chart, error) {
	if r.Store == nil {
		return Chart{}, fmt.Errorf("chart store is required")
	}
	data, err := prepare(request, kind == KindBar)
	if err != nil {
		return Chart{}, err
	}

	width, height := r.size()
	p, err := buildPlot(kind, request, data, width)
	if err != nil {
		return Chart{}, err
	}
	image, err := encodePNG(p, width, height)
	if err != nil {
		return Chart{}, err
	}

	key, err := storage.BuildChartKey(r.now(), r.newID(), "png")
	if err != nil {
		return Chart{}, err
	}
	info, err := r.Store.Put(ctx, key, bytes.NewReader(image), int64(len(image)), storage.PutOptions{ContentType: contentTypePNG})
	if err != nil {
		return Chart{}, fmt.Errorf("store chart: %w", err)
	}
	return Chart{
		Key:         key,
		Location:    info.Location,
		ContentType: contentTypePNG,
		Image:       image,
	}, nil
}

func (r *Renderer) size() (float64, float64) {
	width, height := r.Width, r.Height
	if width <= 0 {
		width = DefaultWidthInches
	}
	if height <= 0 {
		height = DefaultHeightInches
	}
	return width, height
}

func (r *Renderer) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Renderer) newID() string {
	if r.NewID != nil {
		return r.NewID()
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func (r *Renderer) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func renderOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnknownColumn), errors.Is(err, ErrInvalidRows),
		errors.Is(err, ErrNonNumeric), errors.Is(err, ErrNoData):
		return "rejected"
	default:
		return "error"
	}
}
