// Mepd is the MEP coordination daemon: spatial routing, collision
// resolution, hanger placement, and connection semantics for building
// services models.
//
// The daemon serves the coordination HTTP API plus a Prometheus /metrics
// endpoint. The mcp subcommand serves the same engines over the Model
// Context Protocol on stdio for agent tooling.
//
// Configuration is loaded from ~/.config/mepd/config.yaml with MEPD_*
// environment overrides. See internal/config for details.
//
// Usage:
//
//	# Start the daemon with defaults
//	mepd
//
//	# Configure via environment
//	MEPD_SERVER_HTTP_PORT=9091 MEPD_STORE_DRIVER=sqlite MEPD_STORE_PATH=model.db mepd
//
//	# Serve the coordination tools over MCP stdio
//	mepd mcp
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mepd/internal/collision"
	"github.com/fyrsmithlabs/mepd/internal/config"
	"github.com/fyrsmithlabs/mepd/internal/conflict"
	"github.com/fyrsmithlabs/mepd/internal/constraint"
	"github.com/fyrsmithlabs/mepd/internal/events"
	"github.com/fyrsmithlabs/mepd/internal/hanger"
	httpapi "github.com/fyrsmithlabs/mepd/internal/http"
	"github.com/fyrsmithlabs/mepd/internal/logging"
	"github.com/fyrsmithlabs/mepd/internal/mcp"
	"github.com/fyrsmithlabs/mepd/internal/modelstore"
	"github.com/fyrsmithlabs/mepd/internal/routing"
	"github.com/fyrsmithlabs/mepd/internal/semantics"
	"github.com/fyrsmithlabs/mepd/internal/services"
	"github.com/fyrsmithlabs/mepd/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "config file (default ~/.config/mepd/config.yaml)")
	flag.Parse()
	args := flag.Args()

	// Handle subcommands
	mcpMode := false
	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		case "mcp":
			mcpMode = true
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  mepd           Start the coordination daemon\n")
			fmt.Fprintf(os.Stderr, "  mepd mcp       Serve the coordination tools over MCP stdio\n")
			fmt.Fprintf(os.Stderr, "  mepd version   Show version information\n")
			os.Exit(1)
		}
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath, mcpMode); err != nil {
		log.Fatalf("Daemon error: %v", err)
	}

	log.Println("Shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("mepd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the daemon and blocks until the context is cancelled.
//
// This function initializes all dependencies and services:
//  1. Loads and validates configuration
//  2. Initializes logger and telemetry
//  3. Opens the model store and connects to NATS (when events are enabled)
//  4. Builds the engines and the service registry
//  5. Serves the HTTP API, or the MCP stdio transport in mcp mode
//  6. Performs graceful shutdown on context cancellation
func run(ctx context.Context, configPath string, mcpMode bool) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// The MCP stdio transport owns stdout, so logs move to stderr.
	logger, err := initLogger(cfg, mcpMode)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zlog := logger.Underlying()

	zlog.Info("Starting mepd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("store", cfg.Store.Driver),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout))

	// Telemetry before the engines so their instruments bind to the real
	// meter provider.
	tel, err := initTelemetry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			zlog.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	deps, err := initDependencies(cfg, zlog)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close()

	svc, err := initEngines(ctx, cfg, deps, zlog)
	if err != nil {
		return fmt.Errorf("failed to initialize engines: %w", err)
	}

	if mcpMode {
		return runMCP(ctx, svc, zlog)
	}
	return runHTTP(ctx, cfg, svc, zlog)
}

// runHTTP serves the coordination API until the context is cancelled.
func runHTTP(ctx context.Context, cfg *config.Config, svc services.Registry, logger *zap.Logger) error {
	srv, err := httpapi.NewServer(svc, logger, &httpapi.Config{
		Host:              "0.0.0.0",
		Port:              cfg.Server.Port,
		CoordinationRPS:   cfg.Server.CoordinationRPS,
		CoordinationBurst: cfg.Server.CoordinationBurst,
		Version:           version,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	logger.Info("Server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port)),
		zap.String("status_endpoint", "/api/v1/status"),
		zap.String("metrics_endpoint", "/metrics"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// runMCP serves the coordination tools over stdio until the client
// disconnects or the context is cancelled.
func runMCP(ctx context.Context, svc services.Registry, logger *zap.Logger) error {
	srv, err := mcp.NewServer(&mcp.Config{
		Name:    "mepd",
		Version: version,
		Logger:  logger,
	}, svc)
	if err != nil {
		return fmt.Errorf("failed to create mcp server: %w", err)
	}
	return srv.Run(ctx)
}

// dependencies holds all infrastructure dependencies.
type dependencies struct {
	store    modelstore.Store
	sqlite   *modelstore.SQLite // non-nil when the sqlite driver is active
	natsConn *nats.Conn
}

// Close releases all infrastructure resources.
func (d *dependencies) Close() {
	if d.natsConn != nil {
		d.natsConn.Close()
	}
	if d.sqlite != nil {
		_ = d.sqlite.Close()
	}
}

// initLogger initializes the structured logger from daemon config.
func initLogger(cfg *config.Config, toStderr bool) (*logging.Logger, error) {
	level, err := logging.LevelFromString(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	lcfg := logging.NewDefaultConfig()
	lcfg.Level = level
	lcfg.Format = cfg.Logging.Format
	if toStderr {
		lcfg.Output.Stdout = false
		lcfg.Output.Stderr = true
	}

	return logging.NewLogger(lcfg, nil)
}

// initTelemetry builds the OTEL stack. Metrics always serve through the
// pull-based Prometheus bridge behind /metrics; traces push over OTLP only
// when telemetry is enabled.
func initTelemetry(ctx context.Context, cfg *config.Config) (*telemetry.Telemetry, error) {
	tcfg := telemetry.NewDefaultConfig()
	tcfg.Enabled = cfg.Telemetry.Enabled
	tcfg.Endpoint = cfg.Telemetry.Endpoint
	tcfg.ServiceName = cfg.Telemetry.ServiceName
	tcfg.ServiceVersion = version
	tcfg.Insecure = cfg.Telemetry.Insecure
	tcfg.Metrics.Exporter = "prometheus"

	return telemetry.New(ctx, tcfg)
}

// initDependencies opens the model store and connects to NATS when event
// publishing is enabled.
func initDependencies(cfg *config.Config, logger *zap.Logger) (*dependencies, error) {
	deps := &dependencies{}

	switch cfg.Store.Driver {
	case "sqlite":
		db, err := modelstore.OpenSQLite(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open model store at %s: %w", cfg.Store.Path, err)
		}
		deps.sqlite = db
		deps.store = db
		logger.Info("Model store opened",
			zap.String("driver", "sqlite"),
			zap.String("path", cfg.Store.Path))
	default:
		deps.store = modelstore.NewMemory()
		logger.Info("Model store opened", zap.String("driver", "memory"))
	}

	if cfg.Events.Enabled {
		nc, err := nats.Connect(cfg.Events.URL,
			nats.RetryOnFailedConnect(true),
			nats.MaxReconnects(5),
			nats.ReconnectWait(1*time.Second),
		)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.Events.URL, err)
		}
		deps.natsConn = nc
		logger.Info("Connected to NATS",
			zap.String("url", cfg.Events.URL),
			zap.String("subject_prefix", cfg.Events.SubjectPrefix))
	}

	return deps, nil
}

// initEngines builds the rule catalogs, the engines, and the service
// registry over them.
func initEngines(ctx context.Context, cfg *config.Config, deps *dependencies, logger *zap.Logger) (services.Registry, error) {
	catalog := constraint.NewCatalog(constraint.WithLogger(logger.Named("constraint")))
	if cfg.Rules.Path != "" {
		if err := catalog.LoadFile(cfg.Rules.Path); err != nil {
			return nil, fmt.Errorf("failed to load rule catalog %s: %w", cfg.Rules.Path, err)
		}
		logger.Info("Rule catalog loaded", zap.String("path", cfg.Rules.Path))

		if cfg.Rules.Watch {
			go func() {
				if err := catalog.Watch(ctx, cfg.Rules.Path); err != nil {
					logger.Warn("rule catalog watch stopped", zap.Error(err))
				}
			}()
		}
	}

	standards := hanger.NewStandards()
	if cfg.Standards.Path != "" {
		if err := standards.LoadFile(cfg.Standards.Path); err != nil {
			return nil, fmt.Errorf("failed to load hanger standards %s: %w", cfg.Standards.Path, err)
		}
		logger.Info("Hanger standards loaded", zap.String("path", cfg.Standards.Path))
	}

	grade, err := hanger.ParseGrade(cfg.Standards.SeismicGrade)
	if err != nil {
		return nil, fmt.Errorf("invalid seismic grade: %w", err)
	}
	hcfg := hanger.DefaultConfig()
	hcfg.SeismicGrade = grade

	placer := hanger.NewPlacer(deps.store,
		hanger.WithStandards(standards),
		hanger.WithConfig(hcfg),
		hanger.WithLogger(logger.Named("hanger")),
	)

	var publisher *events.Publisher
	if deps.natsConn != nil {
		publisher = events.NewPublisher(deps.natsConn, cfg.Events.SubjectPrefix)
	}

	return services.NewRegistry(services.Options{
		Store:   deps.store,
		Planner: routing.NewPlanner(catalog, routing.WithLogger(logger.Named("routing"))),
		Detector: collision.NewDetector(deps.store,
			collision.WithLogger(logger.Named("collision"))),
		Resolver: conflict.NewResolver(deps.store,
			conflict.WithLogger(logger.Named("conflict")),
			conflict.WithHangerRegenerator(placer)),
		Hangers:   placer,
		Semantics: semantics.NewValidator(semantics.WithLogger(logger.Named("semantics"))),
		Catalog:   catalog,
		Events:    publisher,
	}), nil
}
