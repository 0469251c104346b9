package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/terraincognita07/endotrack/internal/api"
	"github.com/terraincognita07/endotrack/internal/i18n"
	"github.com/terraincognita07/endotrack/internal/models"
	"github.com/terraincognita07/endotrack/internal/telemetry"
	"go.uber.org/zap"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Load the log collection from the configured backend and serve the
JSON API, exports and Prometheus metrics until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sigCtx, stopSignals := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stopSignals()
			return runServe(sigCtx)
		},
	}
}

func newMetricsRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

func runServe(ctx context.Context) error {
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	registry := newMetricsRegistry()
	metrics := telemetry.NewMetrics(registry)

	entries, err := rt.store.Load(ctx)
	metrics.ObserveLoad(err)
	if err != nil {
		rt.logger.Warn("initial load failed, starting with an empty collection", zap.Error(err))
	}
	metrics.SetEntries(len(entries))
	rt.store.Watch(func(logs []models.LogEntry) {
		metrics.SetEntries(len(logs))
	})

	go func() {
		subscribed, err := rt.store.Sync(ctx)
		if err != nil {
			rt.logger.Warn("live sync unavailable", zap.Error(err))
			return
		}
		if subscribed {
			rt.logger.Info("live sync started", zap.String("backend", rt.storage.Name))
		}
	}()

	i18nManager, err := i18n.NewEmbeddedManager(rt.cfg.App.Language)
	if err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	handler, err := api.NewHandler(api.Dependencies{
		Store:    rt.store,
		Clock:    rt.clock,
		I18n:     i18nManager,
		Profile:  rt.profile(),
		Metrics:  metrics,
		Gatherer: registry,
		Logger:   rt.logger,
	})
	if err != nil {
		return fmt.Errorf("init handler: %w", err)
	}
	app := api.NewApp(handler)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			rt.logger.Error("server shutdown failed", zap.Error(err))
		}
	}()

	rt.logger.Info("endotrack listening",
		zap.Int("port", rt.cfg.Server.Port),
		zap.String("backend", rt.storage.Name),
		zap.String("timezone", rt.clock.Location().String()),
		zap.Int("entries", len(entries)),
	)
	if err := app.Listen(fmt.Sprintf(":%d", rt.cfg.Server.Port)); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	return nil
}
