package chart

import (
	"bytes"
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	maxBarGroupPoints = 36.0
	scatterRadius     = 3
)

func buildPlot(kind Kind, request Request, data dataset, widthInches float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = request.Title
	p.X.Label.Text = request.X
	p.Y.Label.Text = request.Y
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.YAlign = text.YCenter
	p.Legend.Top = true

	var err error
	switch kind {
	case KindBar:
		err = addBars(p, data, widthInches)
	case KindScatter:
		err = addScatters(p, data)
	default:
		err = addLines(p, data)
	}
	if err != nil {
		return nil, err
	}

	switch data.axis {
	case axisTime:
		p.X.Tick.Marker = plot.TimeTicks{Format: data.timeFormat}
	case axisCategory:
		p.NominalX(data.categories...)
	}
	return p, nil
}

// series splits points by hue in first-seen order. Without a hue column there
// is a single unnamed series.
func series(data dataset) ([]string, map[string]plotter.XYs) {
	names := data.hues
	if len(names) == 0 {
		names = []string{""}
	}
	grouped := make(map[string]plotter.XYs, len(names))
	for _, pt := range data.points {
		grouped[pt.hue] = append(grouped[pt.hue], plotter.XY{X: pt.x, Y: pt.y})
	}
	return names, grouped
}

func addLines(p *plot.Plot, data dataset) error {
	names, grouped := series(data)
	for i, name := range names {
		line, err := plotter.NewLine(grouped[name])
		if err != nil {
			return fmt.Errorf("build line series %q: %w", name, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		p.Add(line)
		if name != "" {
			p.Legend.Add(name, line)
		}
	}
	return nil
}

func addScatters(p *plot.Plot, data dataset) error {
	names, grouped := series(data)
	for i, name := range names {
		scatter, err := plotter.NewScatter(grouped[name])
		if err != nil {
			return fmt.Errorf("build scatter series %q: %w", name, err)
		}
		scatter.GlyphStyle.Color = plotutil.Color(i)
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		scatter.GlyphStyle.Radius = vg.Points(scatterRadius)
		p.Add(scatter)
		if name != "" {
			p.Legend.Add(name, scatter)
		}
	}
	return nil
}

// addBars pivots points into one bar set per hue, side by side within each X
// category. A category a hue never reports gets a zero-height bar; a repeated
// (category, hue) pair keeps its last value.
func addBars(p *plot.Plot, data dataset, widthInches float64) error {
	names := data.hues
	if len(names) == 0 {
		names = []string{""}
	}
	values := make(map[string]plotter.Values, len(names))
	for _, name := range names {
		values[name] = make(plotter.Values, len(data.categories))
	}
	for _, pt := range data.points {
		values[pt.hue][pt.category] = pt.y
	}

	groupWidth := barGroupWidth(widthInches, len(data.categories))
	barWidth := groupWidth / vg.Length(len(names))
	for i, name := range names {
		bars, err := plotter.NewBarChart(values[name], barWidth)
		if err != nil {
			return fmt.Errorf("build bar series %q: %w", name, err)
		}
		bars.Color = plotutil.Color(i)
		bars.LineStyle.Width = 0
		bars.Offset = vg.Length(float64(i)-float64(len(names)-1)/2) * barWidth
		p.Add(bars)
		if name != "" {
			p.Legend.Add(name, bars)
		}
	}
	return nil
}

func barGroupWidth(widthInches float64, categories int) vg.Length {
	if categories < 1 {
		categories = 1
	}
	available := widthInches * 72 * 0.7 / float64(categories)
	return vg.Points(math.Min(maxBarGroupPoints, available))
}

func encodePNG(p *plot.Plot, widthInches, heightInches float64) ([]byte, error) {
	writer, err := p.WriterTo(vg.Length(widthInches)*vg.Inch, vg.Length(heightInches)*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("create png writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
