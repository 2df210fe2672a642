package storage

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

const chartPrefix = "charts"

// BuildChartKey names a rendered chart. The random suffix keeps renders that
// land in the same second from overwriting each other.
func BuildChartKey(renderedAt time.Time, id, extension string) (string, error) {
	extension = strings.TrimPrefix(extension, ".")
	if err := validatePathComponent(id, "chart id"); err != nil {
		return "", err
	}
	if err := validatePathComponent(extension, "extension"); err != nil {
		return "", err
	}
	ts := renderedAt.UTC()
	return path.Join(
		chartPrefix,
		fmt.Sprintf("chart_%s_%s.%s", ts.Format("20060102_150405"), id, extension),
	), nil
}

// IsChartKey reports whether key could have been produced by BuildChartKey.
func IsChartKey(key string) bool {
	dir, file := path.Split(key)
	if dir != chartPrefix+"/" {
		return false
	}
	return strings.HasPrefix(file, "chart_") && pathComponentPattern.MatchString(file)
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
