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

	"github.com/openfleet/autoscaler/api"
	"github.com/openfleet/autoscaler/internal/cost"
	"github.com/openfleet/autoscaler/internal/decision"
	"github.com/openfleet/autoscaler/internal/engine"
	"github.com/openfleet/autoscaler/internal/events"
	"github.com/openfleet/autoscaler/internal/forecast"
	"github.com/openfleet/autoscaler/internal/logger"
	"github.com/openfleet/autoscaler/internal/metrics"
	"github.com/openfleet/autoscaler/internal/provider"
	"github.com/openfleet/autoscaler/internal/scaler"
	"github.com/openfleet/autoscaler/pkg/config"
	"github.com/openfleet/autoscaler/pkg/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	migrate := flag.Bool("migrate", false, "run database migrations and exit")
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
		db, err = database.New(database.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			Name:            cfg.Database.Name,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			MaxConnections:  cfg.Database.MaxConnections,
			SSLMode:         cfg.Database.SSLMode,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			PingTimeout:     cfg.Database.PingTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		logger.Info("Database connection established")
	}

	if *migrate {
		if db == nil {
			return fmt.Errorf("migrations require database.enabled")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		logger.Info("Running database migrations")
		if err := database.NewMigrator(db).Run(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("Migrations completed successfully")
		return nil
	}

	bus := events.NewEventBus(cfg.Events.BufferSize)
	defer bus.Close()
	publisher := events.NewPublisher(bus)

	var collector *metrics.Collector
	if cfg.Prometheus.Enabled {
		collector = metrics.NewCollector()
	}

	metricsProvider, err := buildProvider(cfg.Provider)
	if err != nil {
		return err
	}
	defer metricsProvider.Close()

	resourceScaler := scaler.NewSimulator(scaler.SimulatorConfig{
		ApplyDelay: cfg.Scaler.ApplyDelay,
	})
	defer resourceScaler.Close()

	estimator := cost.NewEstimator(cfg.Cost.Prices, cfg.Cost.DefaultPrice)

	eng := engine.New(engine.Config{
		MonitorInterval: cfg.Engine.MonitorInterval,
		PredictInterval: cfg.Engine.PredictInterval,
		CostInterval:    cfg.Engine.CostInterval,
		FetchTimeout:    cfg.Engine.FetchTimeout,
		ApplyTimeout:    cfg.Engine.ApplyTimeout,
		HistoryCapacity: cfg.Engine.HistoryCapacity,
		Decision: decision.Config{
			CooldownPeriod:     cfg.Engine.CooldownPeriod,
			CostCooldownPeriod: cfg.Engine.CostCooldownPeriod,
			IdleWindow:         cfg.Engine.IdleWindow,
			IdleAvgThreshold:   cfg.Engine.IdleAvgThreshold,
			IdlePeakThreshold:  cfg.Engine.IdlePeakThreshold,
			MinMonthlySavings:  cfg.Engine.MinMonthlySavings,
		},
		Forecast: forecast.Config{
			Lookback:     cfg.Forecast.Lookback,
			SamplePeriod: cfg.Forecast.SamplePeriod,
			Horizon:      cfg.Forecast.Horizon,
			Step:         cfg.Forecast.Step,
		},
	}, engine.Deps{
		Provider:  metricsProvider,
		Scaler:    resourceScaler,
		Costs:     estimator,
		Publisher: publisher,
		Metrics:   collector,
	})

	var archiver *database.Archiver
	if db != nil {
		archiver = database.NewArchiver(db)
		archiver.Start(bus)
		defer archiver.Stop()
		logger.Info("Scaling action archiver started")
	}

	eng.Start()
	defer eng.Stop()

	var metricsHandler http.Handler
	if collector != nil {
		metricsHandler = collector.Handler()
	}

	server := api.NewServer(api.Options{
		Config:  *cfg,
		Engine:  eng,
		Bus:     bus,
		DB:      db,
		Metrics: metricsHandler,
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
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdownChan:
		logger.Infof("Received signal %v, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func buildProvider(cfg config.ProviderConfig) (provider.MetricsProvider, error) {
	var base provider.MetricsProvider

	switch cfg.Type {
	case "http":
		base = provider.NewHTTPProvider(provider.HTTPProviderConfig{
			Endpoint: cfg.Endpoint,
			Timeout:  cfg.Timeout,
		})
	case "mock":
		base = provider.NewMockProvider(provider.MockProviderConfig{})
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Type)
	}

	return provider.NewResilientProvider(provider.ResilientProviderConfig{
		Provider:      base,
		MaxFailures:   cfg.CircuitBreaker.MaxFailures,
		Timeout:       cfg.CircuitBreaker.Timeout,
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    cfg.RetryDelay,
	}), nil
}
