package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

const (
	StoreDriverSQLite   = "sqlite"
	StoreDriverDuckDB   = "duckdb"
	StoreDriverPostgres = "postgres"

	ChartBackendLocal = "local"
	ChartBackendS3    = "s3"

	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Store         StoreConfig
	Gate          GateConfig
	Chart         ChartConfig
	ObjectStore   ObjectStoreConfig
	MCP           MCPConfig
	Observability ObservabilityConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// StoreConfig selects the database the tools read from. Path is used by the
// file-backed drivers, DSN by postgres.
type StoreConfig struct {
	Driver string
	Path   string
	DSN    string
}

type GateConfig struct {
	SingleStatement bool
}

type ChartConfig struct {
	Backend      string
	OutputDir    string
	WidthInches  float64
	HeightInches float64
}

type ObjectStoreConfig struct {
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

type MCPConfig struct {
	Transport string
	Path      string
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("SQLCHART_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid SQLCHART_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	if err := applyString(lookup, "SQLCHART_SERVICE_NAME", &cfg.Service.Name); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SQLCHART_HTTP_ADDR", &cfg.HTTP.Address); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "SQLCHART_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "SQLCHART_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "SQLCHART_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout); err != nil {
		return Config{}, err
	}
	if err := applyLower(lookup, "SQLCHART_STORE_DRIVER", &cfg.Store.Driver); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SQLCHART_STORE_PATH", &cfg.Store.Path); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SQLCHART_STORE_DSN", &cfg.Store.DSN); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "SQLCHART_GATE_SINGLE_STATEMENT", &cfg.Gate.SingleStatement); err != nil {
		return Config{}, err
	}
	if err := applyLower(lookup, "SQLCHART_CHART_BACKEND", &cfg.Chart.Backend); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SQLCHART_CHART_OUTPUT_DIR", &cfg.Chart.OutputDir); err != nil {
		return Config{}, err
	}
	if err := applyFloat(lookup, "SQLCHART_CHART_WIDTH_INCHES", &cfg.Chart.WidthInches); err != nil {
		return Config{}, err
	}
	if err := applyFloat(lookup, "SQLCHART_CHART_HEIGHT_INCHES", &cfg.Chart.HeightInches); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SQLCHART_OBJECTSTORE_ENDPOINT", &cfg.ObjectStore.Endpoint); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SQLCHART_OBJECTSTORE_REGION", &cfg.ObjectStore.Region); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SQLCHART_OBJECTSTORE_BUCKET", &cfg.ObjectStore.Bucket); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SQLCHART_OBJECTSTORE_ACCESS_KEY", &cfg.ObjectStore.AccessKeyID); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SQLCHART_OBJECTSTORE_SECRET_KEY", &cfg.ObjectStore.SecretAccessKey); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "SQLCHART_OBJECTSTORE_USE_SSL", &cfg.ObjectStore.UseSSL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SQLCHART_OBJECTSTORE_PREFIX", &cfg.ObjectStore.Prefix); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "SQLCHART_OBJECTSTORE_AUTO_CREATE_BUCKET", &cfg.ObjectStore.AutoCreateBucket); err != nil {
		return Config{}, err
	}
	if err := applyLower(lookup, "SQLCHART_MCP_TRANSPORT", &cfg.MCP.Transport); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SQLCHART_MCP_PATH", &cfg.MCP.Path); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "SQLCHART_LOG_JSON", &cfg.Observability.LogJSON); err != nil {
		return Config{}, err
	}
	if err := applyLogLevel(lookup, "SQLCHART_LOG_LEVEL", &cfg.Observability.LogLevel); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Service.Name == "" {
		return fmt.Errorf("service name is required")
	}
	if c.HTTP.Address == "" {
		return fmt.Errorf("http address is required")
	}
	switch c.Store.Driver {
	case StoreDriverSQLite, StoreDriverDuckDB:
		if c.Store.Path == "" {
			return fmt.Errorf("store path is required for driver %q", c.Store.Driver)
		}
	case StoreDriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store dsn is required for driver %q", c.Store.Driver)
		}
	default:
		return fmt.Errorf("invalid SQLCHART_STORE_DRIVER: %q", c.Store.Driver)
	}
	switch c.Chart.Backend {
	case ChartBackendLocal:
		if c.Chart.OutputDir == "" {
			return fmt.Errorf("chart output dir is required")
		}
	case ChartBackendS3:
		if c.ObjectStore.Endpoint == "" || c.ObjectStore.Bucket == "" {
			return fmt.Errorf("object store endpoint and bucket are required for s3 chart backend")
		}
	default:
		return fmt.Errorf("invalid SQLCHART_CHART_BACKEND: %q", c.Chart.Backend)
	}
	if c.Chart.WidthInches <= 0 || c.Chart.HeightInches <= 0 {
		return fmt.Errorf("chart dimensions must be positive")
	}
	switch c.MCP.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("invalid SQLCHART_MCP_TRANSPORT: %q", c.MCP.Transport)
	}
	if !strings.HasPrefix(c.MCP.Path, "/") {
		return fmt.Errorf("mcp path must start with '/': %q", c.MCP.Path)
	}
	return nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "sqlchart-server"},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Store: StoreConfig{
			Driver: StoreDriverSQLite,
			Path:   "./data/sensor_readings.db",
		},
		Gate: GateConfig{
			SingleStatement: true,
		},
		Chart: ChartConfig{
			Backend:      ChartBackendLocal,
			OutputDir:    "./output",
			WidthInches:  10,
			HeightInches: 6,
		},
		ObjectStore: ObjectStoreConfig{
			Endpoint:         "localhost:9000",
			Region:           "us-east-1",
			Bucket:           "sqlchart",
			AccessKeyID:      "minio",
			SecretAccessKey:  "miniostorage",
			UseSSL:           false,
			Prefix:           "",
			AutoCreateBucket: true,
		},
		MCP: MCPConfig{
			Transport: TransportStdio,
			Path:      "/mcp",
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18080"
		cfg.Observability.LogLevel = slog.LevelWarn
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.ObjectStore.UseSSL = true
		cfg.ObjectStore.AutoCreateBucket = false
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyLower(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.ToLower(strings.TrimSpace(raw))
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
