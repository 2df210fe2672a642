package seed

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/sqlchart/sqlchart/internal/query"
	"github.com/sqlchart/sqlchart/internal/query/sqlite"
)

func TestGeneratorDeterministicForSeed(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g1 := NewGenerator(7, 3, start, time.Minute)
	g2 := NewGenerator(7, 3, start, time.Minute)

	for i := 0; i < 10; i++ {
		r1 := g1.NextReading()
		r2 := g2.NextReading()
		if !reflect.DeepEqual(r1, r2) {
			t.Fatalf("reading %d differs: %#v vs %#v", i, r1, r2)
		}
	}
}

func TestGeneratorCyclesSensorsPerTick(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := NewGenerator(1, 2, start, 15*time.Minute)

	readings := []Reading{g.NextReading(), g.NextReading(), g.NextReading()}
	if readings[0].Sensor != "temp-lab" || readings[1].Sensor != "temp-roof" || readings[2].Sensor != "temp-lab" {
		t.Fatalf("sensor order = %s,%s,%s", readings[0].Sensor, readings[1].Sensor, readings[2].Sensor)
	}
	if !readings[1].CreatedAt.Equal(start) || !readings[2].CreatedAt.Equal(start.Add(15*time.Minute)) {
		t.Fatalf("timestamps = %v, %v", readings[1].CreatedAt, readings[2].CreatedAt)
	}
	if readings[2].ID != 3 {
		t.Fatalf("id = %d", readings[2].ID)
	}
}

func TestRunWritesQueryableStore(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "nested", "sensor_readings.db")
	cfg.Sensors = 2
	cfg.Readings = 10

	summary, err := Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Readings != 10 || summary.Sensors != 2 {
		t.Fatalf("summary = %#v", summary)
	}

	executor := query.NewExecutor(sqlite.New(cfg.Path))
	result, err := executor.Execute(context.Background(), query.Request{SQL: "SELECT COUNT(*) AS c, MAX(id) AS last_id FROM readings"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if c, _ := result.Rows[0].Get("c"); c != int64(10) {
		t.Fatalf("count = %#v", c)
	}

	if _, err := Run(context.Background(), cfg, nil); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	result, err = executor.Execute(context.Background(), query.Request{SQL: "SELECT COUNT(*) AS c FROM readings"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if c, _ := result.Rows[0].Get("c"); c != int64(20) {
		t.Fatalf("appended count = %#v", c)
	}

	cfg.Reset = true
	if _, err := Run(context.Background(), cfg, nil); err != nil {
		t.Fatalf("reset Run() error = %v", err)
	}
	result, err = executor.Execute(context.Background(), query.Request{SQL: "SELECT COUNT(*) AS c FROM readings"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if c, _ := result.Rows[0].Get("c"); c != int64(10) {
		t.Fatalf("reset count = %#v", c)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	env := map[string]string{
		"SQLCHART_SEED_PATH":        "/tmp/x.db",
		"SQLCHART_SEED_SENSORS":     "3",
		"SQLCHART_SEED_READINGS":    "12",
		"SQLCHART_SEED_INTERVAL":    "1h",
		"SQLCHART_SEED_START":       "2024-03-01T00:00:00Z",
		"SQLCHART_SEED_RANDOM_SEED": "9",
		"SQLCHART_SEED_RESET":       "true",
	}
	cfg, err := LoadConfigFromEnv(func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	})
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}
	if cfg.Path != "/tmp/x.db" || cfg.Sensors != 3 || cfg.Readings != 12 || cfg.Interval != time.Hour || cfg.Seed != 9 || !cfg.Reset {
		t.Fatalf("cfg = %#v", cfg)
	}
	if !cfg.Start.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", cfg.Start)
	}

	for key, value := range map[string]string{
		"SQLCHART_SEED_SENSORS":  "99",
		"SQLCHART_SEED_READINGS": "0",
		"SQLCHART_SEED_INTERVAL": "soon",
	} {
		_, err := LoadConfigFromEnv(func(k string) (string, bool) {
			if k == key {
				return value, true
			}
			return "", false
		})
		if err == nil {
			t.Fatalf("expected error for %s=%s", key, value)
		}
	}
}
