package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"sheafa-accounting-agent/internal/allocation"
	"sheafa-accounting-agent/internal/config"
	"sheafa-accounting-agent/internal/dashboard"
	"sheafa-accounting-agent/internal/ledger"
	"sheafa-accounting-agent/internal/limits"
	"sheafa-accounting-agent/internal/metrics"
	"sheafa-accounting-agent/internal/protection"
	"sheafa-accounting-agent/internal/token"
)

type Agent struct {
	cfgMu sync.RWMutex
	cfg   config.Config

	logger     *slog.Logger
	client     ledger.Client
	aggregator *dashboard.Aggregator
	generator  *token.Generator
	protection *protection.Engine
	scheduler  *Scheduler
	health     *HealthStatus
	metrics    *Instrumentation
}

func New(cfg config.Config, logger *slog.Logger) (*Agent, error) {
	tlsCfg, err := cfg.TLSConfig()
	if err != nil {
		return nil, fmt.Errorf("tls config: %w", err)
	}

	client, err := ledger.NewClientFromConfig(cfg, tlsCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("ledger client: %w", err)
	}

	a := &Agent{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		health:  NewHealthStatus(),
		metrics: NewInstrumentation(),
	}

	metricsAgg := metrics.NewAggregator(client, logger)
	allocResolver := allocation.NewResolver(client, logger)
	protectionEngine := protection.NewEngine(client, logger)
	tokenLedger := token.NewLedger(client, a.demurrageRate, logger)
	enforcer := limits.NewEnforcer(a.thresholds)

	a.protection = protectionEngine
	a.generator = token.NewGenerator(client, metricsAgg, allocResolver, a.generatorSettings, logger)
	a.aggregator = dashboard.NewAggregator(
		cfg.OperatorID,
		cfg.ResourceID,
		metricsAgg,
		allocResolver,
		protectionEngine,
		tokenLedger,
		enforcer,
		logger,
	)
	a.scheduler = NewScheduler(a, logger)
	return a, nil
}

func (a *Agent) Run(ctx context.Context) error {
	cfg := a.Config()
	a.logger.Info("starting sheafa-accounting-agent",
		"operator_id", cfg.OperatorID,
		"resource_id", cfg.ResourceID,
		"ledger_mode", cfg.LedgerMode,
	)
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- a.run(runCtx)
	}()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case runErr = <-runErrCh:
		// Agent terminated by itself (startup error/runtime error/parent ctx canceled).
	case sig := <-sigCh:
		a.logger.Info("shutdown signal received, starting graceful shutdown", "signal", sig.String(), "timeout", cfg.ShutdownTimeout)
		cancelRun()

		graceTimer := time.NewTimer(cfg.ShutdownTimeout)
		defer graceTimer.Stop()

		select {
		case runErr = <-runErrCh:
			// graceful stop completed in time
		case sig2 := <-sigCh:
			a.logger.Warn("second signal received, forcing immediate shutdown", "signal", sig2.String())
			runErr = context.Canceled
		case <-graceTimer.C:
			a.logger.Warn("graceful shutdown timeout reached, forcing shutdown", "timeout", cfg.ShutdownTimeout)
			runErr = context.DeadlineExceeded
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()
	a.shutdown(shutdownCtx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return runErr
	}
	a.logger.Info("sheafa-accounting-agent stopped")
	return nil
}

// Dashboard exposes the aggregator for consumers that pull the latest
// state or subscribe to refreshes.
func (a *Agent) Dashboard() *dashboard.Aggregator {
	return a.aggregator
}

func (a *Agent) Health() *HealthStatus {
	return a.health
}

// Config returns a copy of the current configuration.
func (a *Agent) Config() config.Config {
	a.cfgMu.RLock()
	defer a.cfgMu.RUnlock()
	return a.cfg
}

// ApplyConfigUpdate merges a partial update over the current
// configuration. Rates, thresholds, and strategy take effect on the next
// tick; interval changes take effect when their loop ticks over.
func (a *Agent) ApplyConfigUpdate(u config.Update) config.Config {
	a.cfgMu.Lock()
	defer a.cfgMu.Unlock()
	a.cfg = a.cfg.Merged(u)
	a.logger.Info("configuration update applied")
	return a.cfg
}

func (a *Agent) demurrageRate() float64 {
	return a.Config().DemurrageMonthlyRate
}

func (a *Agent) generatorSettings() token.GeneratorSettings {
	cfg := a.Config()
	return token.GeneratorSettings{
		CPURatePerCoreHour:   cfg.CPURatePerCoreHour,
		StorageRatePerGBHour: cfg.StorageRatePerGBHour,
		BandwidthRatePerHour: cfg.BandwidthRatePerHour,
		Strategy:             cfg.Strategy,
		Interval:             cfg.EventInterval,
	}
}

func (a *Agent) thresholds() limits.Thresholds {
	cfg := a.Config()
	return limits.Thresholds{
		FloorMinCores:           cfg.FloorMinCores,
		FloorMinMemoryGB:        cfg.FloorMinMemoryGB,
		FloorMinStorageGB:       cfg.FloorMinStorageGB,
		FloorMinBandwidthMbps:   cfg.FloorMinBandwidthMbps,
		CeilingMaxCores:         cfg.CeilingMaxCores,
		CeilingMaxMemoryGB:      cfg.CeilingMaxMemoryGB,
		CeilingMaxStorageGB:     cfg.CeilingMaxStorageGB,
		CeilingMaxBandwidthMbps: cfg.CeilingMaxBandwidthMbps,
		TokenCeiling:            cfg.TokenCeiling,
	}
}

func BuildLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	hOpts := &slog.HandlerOptions{Level: level}
	if cfg.LogJSON {
		return slog.New(slog.NewJSONHandler(os.Stdout, hOpts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, hOpts))
}
