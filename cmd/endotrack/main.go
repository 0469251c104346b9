// Package main is the endotrack binary: the HTTP server plus one-shot
// commands that work against the same configured store.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/endotrack/internal/config"
	"github.com/terraincognita07/endotrack/internal/logging"
	"github.com/terraincognita07/endotrack/internal/services"
	"github.com/terraincognita07/endotrack/internal/storage"
	"go.uber.org/zap"
)

var (
	configPath string
	version    = "dev"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "endotrack",
		Short:        "Daily symptom log and treatment metrics",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("ENDOTRACK_CONFIG"), "path to a YAML config file")

	root.AddCommand(newServeCommand())
	root.AddCommand(newSubmitCommand())
	root.AddCommand(newSummaryCommand())
	root.AddCommand(newTokenCommand())
	return root
}

// runtime is what every command that touches the log collection needs.
type runtime struct {
	cfg     *config.Config
	logger  *zap.Logger
	storage *storage.Handle
	clock   *services.SystemClock
	store   *services.LogStore
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

func openRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	handle, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	clock := services.NewSystemClock(cfg.Location())
	return &runtime{
		cfg:     cfg,
		logger:  logger,
		storage: handle,
		clock:   clock,
		store:   services.NewLogStore(handle.Backend, clock, nil),
	}, nil
}

func (rt *runtime) Close() {
	if err := rt.storage.Close(); err != nil {
		rt.logger.Warn("close storage", zap.Error(err))
	}
	_ = rt.logger.Sync()
}

func (rt *runtime) profile() services.ExportProfile {
	return services.ExportProfile{
		PatientName:    rt.cfg.Profile.PatientName,
		TreatmentLabel: rt.cfg.Profile.TreatmentLabel,
	}
}
