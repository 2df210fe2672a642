package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/sqlchart/sqlchart/internal/api"
	"github.com/sqlchart/sqlchart/internal/chart"
	"github.com/sqlchart/sqlchart/internal/config"
	"github.com/sqlchart/sqlchart/internal/gate"
	"github.com/sqlchart/sqlchart/internal/observability"
	"github.com/sqlchart/sqlchart/internal/query"
	"github.com/sqlchart/sqlchart/internal/tools"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.LoadFromEnv("sqlchart-server")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	// stdout carries the MCP stream in stdio mode.
	var logOutput io.Writer = os.Stdout
	if cfg.MCP.Transport == config.TransportStdio {
		logOutput = os.Stderr
	}
	logger := observability.NewLogger(cfg, logOutput)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialect, err := newDialect(cfg.Store)
	if err != nil {
		logger.Error("failed to select store dialect", slog.Any("error", err))
		os.Exit(1)
	}
	executor := query.NewExecutor(dialect,
		query.WithGate(gate.New(gate.WithSingleStatement(cfg.Gate.SingleStatement))),
		query.WithLogger(observability.Component(logger, "query")),
	)

	chartStore, err := newChartStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize chart store", slog.Any("error", err))
		os.Exit(1)
	}
	renderer := chart.NewRenderer(chartStore, cfg.Chart.WidthInches, cfg.Chart.HeightInches)
	renderer.Logger = observability.Component(logger, "chart")

	mcpServer := tools.NewServer(version, tools.NewHandlers(executor, renderer, observability.Component(logger, "tools")))

	switch cfg.MCP.Transport {
	case config.TransportStdio:
		err = serveStdio(ctx, logger, mcpServer)
	default:
		err = serveHTTP(ctx, stop, cfg, logger, api.Dependencies{
			Logger:      logger,
			QueryEngine: executor,
			Charts:      renderer,
			ChartStore:  chartStore,
			MCP:         server.NewStreamableHTTPServer(mcpServer),
			Readiness: api.CombineReadinessChecks(
				api.CheckStore(executor),
				api.CheckChartStoreConfig(cfg),
			),
			DependencyTimeout: time.Second,
		})
	}
	if err != nil {
		os.Exit(1)
	}
}

func serveStdio(ctx context.Context, logger *slog.Logger, mcpServer *server.MCPServer) error {
	stdio := server.NewStdioServer(mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))

	logger.Info("starting mcp stdio server", slog.String("version", version))
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("mcp stdio server failed", slog.Any("error", err))
		return err
	}
	logger.Info("mcp stdio server stopped")
	return nil
}

func serveHTTP(ctx context.Context, stop context.CancelFunc, cfg config.Config, logger *slog.Logger, deps api.Dependencies) error {
	httpServer := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      api.NewHandler(cfg, deps),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("mcp_path", cfg.MCP.Path),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = httpServer.Close()
		return err
	}
	return nil
}
