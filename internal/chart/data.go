package chart

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

type axisKind int

const (
	axisNumeric axisKind = iota
	axisTime
	axisCategory
)

type point struct {
	x        float64
	category int
	y        float64
	hue      string
}

type dataset struct {
	axis       axisKind
	timeFormat string
	points     []point
	categories []string
	hues       []string
}

// prepare resolves the plotted columns and converts rows into points. With
// categorical set, X is always treated as labels, as bar charts need.
func prepare(request Request, categorical bool) (dataset, error) {
	xIndex, err := columnIndex(request.Columns, request.X, "x")
	if err != nil {
		return dataset{}, err
	}
	yIndex, err := columnIndex(request.Columns, request.Y, "y")
	if err != nil {
		return dataset{}, err
	}
	hueIndex := -1
	if strings.TrimSpace(request.Hue) != "" {
		if hueIndex, err = columnIndex(request.Columns, request.Hue, "hue"); err != nil {
			return dataset{}, err
		}
	}
	for i, row := range request.Rows {
		if len(row) != len(request.Columns) {
			return dataset{}, fmt.Errorf("%w: row %d has %d values for %d columns", ErrInvalidRows, i, len(row), len(request.Columns))
		}
	}

	rows := request.Rows
	xs := make([]any, len(rows))
	for i, row := range rows {
		xs[i] = row[xIndex]
	}

	data := dataset{axis: axisNumeric}
	times, isTime := parseTimes(request.X, xs)
	if isTime {
		order := make([]int, len(rows))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return times[order[a]].Before(times[order[b]])
		})
		sortedRows := make([][]any, len(rows))
		sortedTimes := make([]time.Time, len(rows))
		for i, idx := range order {
			sortedRows[i] = rows[idx]
			sortedTimes[i] = times[idx]
		}
		rows, times = sortedRows, sortedTimes
		data.axis = axisTime
		data.timeFormat = timeLayout(times)
	} else if !allNumeric(xs) {
		data.axis = axisCategory
	}
	if categorical {
		data.axis = axisCategory
	}

	categoryIndex := map[string]int{}
	hueSeen := map[string]bool{}
	for i, row := range rows {
		yValue := row[yIndex]
		if yValue == nil || row[xIndex] == nil {
			continue
		}
		y, ok := toFloat(yValue)
		if !ok {
			return dataset{}, fmt.Errorf("%w: column %q has %v", ErrNonNumeric, request.Y, yValue)
		}
		if math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}

		pt := point{y: y}
		switch {
		case data.axis == axisCategory:
			label := labelOf(row[xIndex])
			if isTime {
				label = times[i].Format(data.timeFormat)
			}
			idx, seen := categoryIndex[label]
			if !seen {
				idx = len(data.categories)
				categoryIndex[label] = idx
				data.categories = append(data.categories, label)
			}
			pt.category = idx
			pt.x = float64(idx)
		case data.axis == axisTime:
			pt.x = float64(times[i].UnixNano()) / 1e9
		default:
			x, _ := toFloat(row[xIndex])
			if math.IsNaN(x) || math.IsInf(x, 0) {
				continue
			}
			pt.x = x
		}

		if hueIndex >= 0 {
			pt.hue = labelOf(row[hueIndex])
			if !hueSeen[pt.hue] {
				hueSeen[pt.hue] = true
				data.hues = append(data.hues, pt.hue)
			}
		}
		data.points = append(data.points, pt)
	}

	if len(data.points) == 0 {
		return dataset{}, ErrNoData
	}
	return data, nil
}

func columnIndex(columns []string, name, role string) (int, error) {
	if strings.TrimSpace(name) == "" {
		return -1, fmt.Errorf("%w: %s column is required", ErrUnknownColumn, role)
	}
	for i, column := range columns {
		if column == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s column %q not in %v", ErrUnknownColumn, role, name, columns)
}

// parseTimes converts X to timestamps when the column looks like dates: its
// name mentions "date" or it holds text. A single failure keeps the column as is.
func parseTimes(name string, values []any) ([]time.Time, bool) {
	if !strings.Contains(strings.ToLower(name), "date") && !anyText(values) {
		return nil, false
	}
	times := make([]time.Time, len(values))
	parsed := 0
	for i, value := range values {
		switch typed := value.(type) {
		case nil:
			continue
		case time.Time:
			times[i] = typed.UTC()
		case string:
			t, err := dateparse.ParseIn(strings.TrimSpace(typed), time.UTC)
			if err != nil {
				return nil, false
			}
			times[i] = t.UTC()
		case []byte:
			t, err := dateparse.ParseIn(strings.TrimSpace(string(typed)), time.UTC)
			if err != nil {
				return nil, false
			}
			times[i] = t.UTC()
		default:
			return nil, false
		}
		parsed++
	}
	return times, parsed > 0
}

func timeLayout(times []time.Time) string {
	for _, t := range times {
		if t.IsZero() {
			continue
		}
		if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 {
			return "2006-01-02 15:04"
		}
	}
	return "2006-01-02"
}

func anyText(values []any) bool {
	for _, value := range values {
		switch value.(type) {
		case string, []byte:
			return true
		}
	}
	return false
}

func allNumeric(values []any) bool {
	for _, value := range values {
		if value == nil {
			continue
		}
		switch value.(type) {
		case string, []byte, bool:
			return false
		}
		if _, ok := toFloat(value); !ok {
			return false
		}
	}
	return true
}

func toFloat(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int8:
		return float64(typed), true
	case int16:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case uint:
		return float64(typed), true
	case uint8:
		return float64(typed), true
	case uint16:
		return float64(typed), true
	case uint32:
		return float64(typed), true
	case uint64:
		return float64(typed), true
	case bool:
		if typed {
			return 1, true
		}
		return 0, true
	case json.Number:
		f, err := typed.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(typed)), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func labelOf(value any) string {
	switch typed := value.(type) {
	case nil:
		return "null"
	case string:
		return typed
	case []byte:
		return string(typed)
	case time.Time:
		return typed.UTC().Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(typed, 'g', -1, 64)
	default:
		return fmt.Sprint(typed)
	}
}
