package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scalemesh/coordinator/api"
	"github.com/scalemesh/coordinator/internal/applier"
	"github.com/scalemesh/coordinator/internal/coordinator"
	"github.com/scalemesh/coordinator/internal/dependency"
	"github.com/scalemesh/coordinator/internal/effectiveness"
	"github.com/scalemesh/coordinator/internal/eventlog"
	"github.com/scalemesh/coordinator/internal/events"
	"github.com/scalemesh/coordinator/internal/logger"
	"github.com/scalemesh/coordinator/internal/metrics"
	"github.com/scalemesh/coordinator/internal/pattern"
	"github.com/scalemesh/coordinator/internal/prediction"
	"github.com/scalemesh/coordinator/pkg/config"
	"github.com/scalemesh/coordinator/pkg/database"
	"github.com/scalemesh/coordinator/pkg/database/queries"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	migrate := flag.Bool("migrate", false, "run database migrations")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Setup(cfg.App.LogLevel, cfg.App.Mode)
	logger.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Mode)

	var db *database.DB
	if cfg.Database.Enabled {
		db, err = database.New(cfg.Database.ToDBConfig())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		logger.Info("Database connection established")
	} else {
		logger.Info("Database disabled, running with in-memory state only")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if *migrate {
		if db == nil {
			return fmt.Errorf("cannot migrate with database disabled")
		}
		logger.Info("Running database migrations")
		migrator := database.NewMigrator(db)
		if err := migrator.Run(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("Migrations completed successfully")
		return nil
	}

	// Stores, restored from the database when one is configured.
	var (
		patternRepo pattern.Repository
		depRepo     dependency.Repository
		eventRepo   eventlog.Repository
	)
	if db != nil {
		patternRepo = queries.NewPatternRepository(db.DB)
		depRepo = queries.NewDependencyRepository(db.DB)
		eventRepo = queries.NewScalingEventRepository(db.DB)
	}

	patterns := pattern.NewStore(patternRepo)
	edges := dependency.NewStore(depRepo)
	eventLog := eventlog.NewLog(cfg.Events.MaxPerService, eventRepo)

	if db != nil {
		if err := patterns.Restore(ctx); err != nil {
			return fmt.Errorf("failed to restore patterns: %w", err)
		}
		if err := edges.Restore(ctx); err != nil {
			return fmt.Errorf("failed to restore dependencies: %w", err)
		}
		if err := eventLog.Restore(ctx); err != nil {
			return fmt.Errorf("failed to restore event log: %w", err)
		}
	}

	app, err := buildApplier(cfg.Applier)
	if err != nil {
		return fmt.Errorf("failed to build applier: %w", err)
	}
	defer app.Close()

	engine := prediction.New(prediction.Config{
		DefaultLoad:          cfg.Prediction.DefaultLoad,
		LeadTime:             cfg.Prediction.LeadTime,
		MinConfidenceSamples: cfg.Prediction.MinConfidenceSamples,
	}, patterns, app, eventLog)

	analyzer := effectiveness.New(effectiveness.Config{
		EffectiveThreshold: cfg.Effectiveness.EffectiveThreshold,
		MinSamples:         cfg.Effectiveness.MinSamples,
	}, eventLog)

	bus := events.NewEventBus(cfg.Events.BufferSize)
	defer bus.Close()
	publisher := events.NewPublisher(bus)

	m := metrics.Get()

	loop := coordinator.New(coordinator.Config{
		TickInterval: cfg.Coordinator.TickInterval,
		ApplyTimeout: cfg.Coordinator.ApplyTimeout,
	}, patterns, edges, eventLog, engine, app, publisher, m)

	if err := loop.Start(); err != nil {
		return fmt.Errorf("failed to start coordinator: %w", err)
	}

	server := api.NewServer(cfg.API, cfg.WebSocket, api.Deps{
		DB:       db,
		Patterns: patterns,
		Edges:    edges,
		EventLog: eventLog,
		Analyzer: analyzer,
		Engine:   engine,
		Loop:     loop,
		Bus:      bus,
		Metrics:  m,
	})

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Infof("API server listening on port %d", cfg.API.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		loop.Stop()
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdownChan:
		logger.Infof("Received signal %v, shutting down", sig)
	}

	// Let any in-flight tick finish before tearing down the API.
	loop.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	logger.Info("Coordinator stopped gracefully")
	return nil
}

func buildApplier(cfg config.ApplierConfig) (applier.ReplicaApplier, error) {
	var (
		inner applier.ReplicaApplier
		err   error
	)

	switch cfg.Type {
	case "kubernetes":
		inner, err = applier.NewKubernetesApplier(applier.KubernetesConfig{
			Kubeconfig:         cfg.Kubeconfig,
			Namespace:          cfg.Namespace,
			UtilizationTargets: cfg.UtilizationTargets,
			DefaultUtilization: cfg.DefaultUtilization,
		})
		if err != nil {
			return nil, err
		}
	default:
		sim := applier.NewSimulatorApplier(applier.SimulatorConfig{})
		for service, target := range cfg.UtilizationTargets {
			sim.InitializeService(service, 1, target)
		}
		inner = sim
	}

	return applier.NewResilientApplier(inner, applier.ResilientConfig{
		MaxFailures: cfg.BreakerMaxFailures,
		OpenTimeout: cfg.BreakerOpenTimeout,
	}), nil
}
