// Package seed writes a synthetic sensor database for local runs and demos.
// It is the only writer in the module; the server opens stores read-only.
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var createTables = []string{
	`CREATE TABLE IF NOT EXISTS sensors (
		name TEXT PRIMARY KEY,
		location TEXT NOT NULL,
		unit TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS readings (
		id INTEGER PRIMARY KEY,
		created_at TEXT NOT NULL,
		sensor TEXT NOT NULL REFERENCES sensors(name),
		value REAL
	)`,
}

var dropTables = []string{
	`DROP TABLE IF EXISTS readings`,
	`DROP TABLE IF EXISTS sensors`,
}

type Summary struct {
	Path     string
	Sensors  int
	Readings int
}

func Run(ctx context.Context, cfg Config, logger *slog.Logger) (Summary, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return Summary{}, fmt.Errorf("create seed directory: %w", err)
	}
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return Summary{}, fmt.Errorf("open seed database: %w", err)
	}
	defer func() { _ = db.Close() }()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if cfg.Reset {
		for _, statement := range dropTables {
			if _, err := tx.ExecContext(ctx, statement); err != nil {
				return Summary{}, fmt.Errorf("reset tables: %w", err)
			}
		}
	}
	for _, statement := range createTables {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			return Summary{}, fmt.Errorf("create tables: %w", err)
		}
	}

	var offset int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM readings`).Scan(&offset); err != nil {
		return Summary{}, fmt.Errorf("read last reading id: %w", err)
	}

	generator := NewGenerator(cfg.Seed, cfg.Sensors, cfg.Start, cfg.Interval)
	for _, sensor := range generator.Sensors() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sensors (name, location, unit) VALUES (?, ?, ?) ON CONFLICT(name) DO NOTHING`,
			sensor.Name, sensor.Location, sensor.Unit,
		); err != nil {
			return Summary{}, fmt.Errorf("insert sensor %s: %w", sensor.Name, err)
		}
	}

	insert, err := tx.PrepareContext(ctx, `INSERT INTO readings (id, created_at, sensor, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return Summary{}, fmt.Errorf("prepare reading insert: %w", err)
	}
	defer func() { _ = insert.Close() }()

	for i := 0; i < cfg.Readings; i++ {
		reading := generator.NextReading()
		if _, err := insert.ExecContext(ctx,
			offset+reading.ID,
			reading.CreatedAt.Format(time.DateTime),
			reading.Sensor,
			reading.Value,
		); err != nil {
			return Summary{}, fmt.Errorf("insert reading %d: %w", reading.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Summary{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	summary := Summary{Path: cfg.Path, Sensors: len(generator.Sensors()), Readings: cfg.Readings}
	logger.InfoContext(ctx, "seed_completed",
		slog.String("path", summary.Path),
		slog.Int("sensors", summary.Sensors),
		slog.Int("readings", summary.Readings),
	)
	return summary, nil
}
