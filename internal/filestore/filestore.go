// Package filestore keeps the whole log collection in one JSON file and
// reports external rewrites of that file through fsnotify.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/terraincognita07/endotrack/internal/models"
	"go.uber.org/zap"
)

// CollectionName is the fixed file key for the log collection.
const CollectionName = "endo_logs"

var ErrCorruptFile = errors.New("corrupt log file")

type Store struct {
	dir    string
	path   string
	logger *zap.Logger

	mu sync.Mutex
}

func New(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{
		dir:    dir,
		path:   filepath.Join(dir, CollectionName+".json"),
		logger: logger.Named("filestore"),
	}, nil
}

func (store *Store) Path() string {
	return store.path
}

func (store *Store) Load(ctx context.Context) ([]models.LogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	return store.readLocked()
}

// Save rewrites the full collection. The file is replaced by rename so a
// reader never observes a partial document.
func (store *Store) Save(ctx context.Context, _ models.LogEntry, collection []models.LogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if collection == nil {
		collection = []models.LogEntry{}
	}

	data, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal log collection: %w", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	tmpPath := store.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, store.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Subscribe watches the data directory and reloads the collection whenever the
// log file is written or replaced. It returns once the watch is registered.
func (store *Store) Subscribe(ctx context.Context, onChange func([]models.LogEntry)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(store.dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", store.dir, err)
	}

	go store.processEvents(ctx, watcher, onChange)
	return nil
}

func (store *Store) processEvents(ctx context.Context, watcher *fsnotify.Watcher, onChange func([]models.LogEntry)) {
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != store.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			entries, err := store.Load(ctx)
			if err != nil {
				store.logger.Warn("reload after file change failed", zap.String("path", store.path), zap.Error(err))
				continue
			}
			onChange(entries)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			store.logger.Warn("file watcher error", zap.Error(err))
		}
	}
}

func (store *Store) readLocked() ([]models.LogEntry, error) {
	data, err := os.ReadFile(store.path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.LogEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", store.path, err)
	}
	if len(data) == 0 {
		return []models.LogEntry{}, nil
	}

	entries := make([]models.LogEntry, 0)
	if err := json.Unmarshal(data, &entries); err != nil {
		backupPath := store.path + ".corrupt"
		_ = os.Rename(store.path, backupPath)
		store.logger.Error("log file is corrupt", zap.String("path", store.path), zap.String("backup", backupPath), zap.Error(err))
		return nil, fmt.Errorf("%w: %s (backed up to %s): %v", ErrCorruptFile, store.path, backupPath, err)
	}
	for index := range entries {
		if entries[index].Symptoms == nil {
			entries[index].Symptoms = []string{}
		}
	}
	return entries, nil
}
