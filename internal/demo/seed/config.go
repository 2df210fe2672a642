package seed

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Config struct {
	Path     string
	Sensors  int
	Readings int
	Interval time.Duration
	Start    time.Time
	Seed     int64
	Reset    bool
}

func DefaultConfig() Config {
	return Config{
		Path:     "./data/sensor_readings.db",
		Sensors:  4,
		Readings: 96,
		Interval: 15 * time.Minute,
		Start:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Seed:     42,
		Reset:    false,
	}
}

func LoadConfigFromEnv(lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	cfg := DefaultConfig()
	if raw, ok := lookup("SQLCHART_SEED_PATH"); ok {
		cfg.Path = strings.TrimSpace(raw)
	}
	if err := applyInt(lookup, "SQLCHART_SEED_SENSORS", &cfg.Sensors); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "SQLCHART_SEED_READINGS", &cfg.Readings); err != nil {
		return Config{}, err
	}
	if raw, ok := lookup("SQLCHART_SEED_INTERVAL"); ok {
		value, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return Config{}, fmt.Errorf("invalid SQLCHART_SEED_INTERVAL: %w", err)
		}
		cfg.Interval = value
	}
	if raw, ok := lookup("SQLCHART_SEED_START"); ok {
		value, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
		if err != nil {
			return Config{}, fmt.Errorf("invalid SQLCHART_SEED_START: %w", err)
		}
		cfg.Start = value.UTC()
	}
	if raw, ok := lookup("SQLCHART_SEED_RANDOM_SEED"); ok {
		value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SQLCHART_SEED_RANDOM_SEED: %w", err)
		}
		cfg.Seed = value
	}
	if raw, ok := lookup("SQLCHART_SEED_RESET"); ok {
		value, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return Config{}, fmt.Errorf("invalid SQLCHART_SEED_RESET: %w", err)
		}
		cfg.Reset = value
	}

	if cfg.Path == "" {
		return Config{}, fmt.Errorf("SQLCHART_SEED_PATH is required")
	}
	if cfg.Sensors <= 0 || cfg.Sensors > len(sensorCatalog) {
		return Config{}, fmt.Errorf("SQLCHART_SEED_SENSORS must be between 1 and %d", len(sensorCatalog))
	}
	if cfg.Readings <= 0 {
		return Config{}, fmt.Errorf("SQLCHART_SEED_READINGS must be > 0")
	}
	if cfg.Interval <= 0 {
		return Config{}, fmt.Errorf("SQLCHART_SEED_INTERVAL must be > 0")
	}
	return cfg, nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}
