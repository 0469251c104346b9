// Package storage opens the persistence backend selected in configuration.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/terraincognita07/endotrack/internal/config"
	"github.com/terraincognita07/endotrack/internal/db"
	"github.com/terraincognita07/endotrack/internal/filestore"
	"github.com/terraincognita07/endotrack/internal/identity"
	"github.com/terraincognita07/endotrack/internal/natsstore"
	"github.com/terraincognita07/endotrack/internal/services"
	"go.uber.org/zap"
)

type Handle struct {
	Name    string
	Backend services.Backend
	close   func() error
}

func (handle *Handle) Close() error {
	if handle == nil || handle.close == nil {
		return nil
	}
	return handle.close()
}

func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Handle, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		database, err := db.OpenSQLite(cfg.Storage.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("storage opened", zap.String("backend", config.BackendSQLite), zap.String("path", cfg.Storage.SQLitePath))
		return &Handle{
			Name:    config.BackendSQLite,
			Backend: db.NewRepositories(database).LogEntries,
			close: func() error {
				return db.CloseSQLite(database)
			},
		}, nil

	case config.BackendFile:
		store, err := filestore.New(cfg.Storage.FileDir, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("storage opened", zap.String("backend", config.BackendFile), zap.String("path", store.Path()))
		return &Handle{Name: config.BackendFile, Backend: store}, nil

	case config.BackendNATS:
		return openNATS(ctx, cfg, logger)

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func openNATS(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Handle, error) {
	userID, err := identity.ResolveUserID(
		[]byte(cfg.Identity.Secret),
		cfg.Identity.Token,
		cfg.Identity.AnonymousUserID,
		time.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("resolve user id: %w", err)
	}

	nc, err := nats.Connect(cfg.Storage.NATSURL,
		nats.Name(cfg.App.ID),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.Storage.NATSURL, err)
	}

	store, err := natsstore.Open(ctx, nc, natsstore.Options{
		Bucket: cfg.Storage.NATSBucket,
		AppID:  cfg.App.ID,
		UserID: userID,
	}, logger)
	if err != nil {
		nc.Close()
		return nil, err
	}

	logger.Info("storage opened",
		zap.String("backend", config.BackendNATS),
		zap.String("url", cfg.Storage.NATSURL),
		zap.String("user_id", userID),
	)
	return &Handle{
		Name:    config.BackendNATS,
		Backend: store,
		close:   nc.Drain,
	}, nil
}
