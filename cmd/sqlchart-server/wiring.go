package main

import (
	"context"
	"fmt"

	"github.com/sqlchart/sqlchart/internal/config"
	"github.com/sqlchart/sqlchart/internal/query"
	"github.com/sqlchart/sqlchart/internal/query/duckdb"
	"github.com/sqlchart/sqlchart/internal/query/postgres"
	"github.com/sqlchart/sqlchart/internal/query/sqlite"
	"github.com/sqlchart/sqlchart/internal/storage"
	"github.com/sqlchart/sqlchart/internal/storage/local"
	s3store "github.com/sqlchart/sqlchart/internal/storage/s3"
)

func newDialect(cfg config.StoreConfig) (query.Dialect, error) {
	switch cfg.Driver {
	case config.StoreDriverSQLite:
		return sqlite.New(cfg.Path), nil
	case config.StoreDriverDuckDB:
		return duckdb.New(cfg.Path), nil
	case config.StoreDriverPostgres:
		return postgres.New(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

func newChartStore(ctx context.Context, cfg config.Config) (storage.ObjectStore, error) {
	switch cfg.Chart.Backend {
	case config.ChartBackendLocal:
		return local.New(cfg.Chart.OutputDir)
	case config.ChartBackendS3:
		return s3store.New(ctx, s3store.Config{
			Endpoint:         cfg.ObjectStore.Endpoint,
			Region:           cfg.ObjectStore.Region,
			Bucket:           cfg.ObjectStore.Bucket,
			AccessKeyID:      cfg.ObjectStore.AccessKeyID,
			SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
			UseSSL:           cfg.ObjectStore.UseSSL,
			Prefix:           cfg.ObjectStore.Prefix,
			AutoCreateBucket: cfg.ObjectStore.AutoCreateBucket,
		})
	default:
		return nil, fmt.Errorf("unsupported chart backend %q", cfg.Chart.Backend)
	}
}
