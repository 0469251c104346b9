// Package natsstore keeps one document per logged day in a JetStream
// key-value bucket scoped to an application and a user.
package natsstore

import (
	"context"
	"encoding/base32"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/terraincognita07/endotrack/internal/models"
	"go.uber.org/zap"
)

const DefaultBucket = "endo_logs"

const encodedTokenPrefix = "b32-"

var ErrInvalidScope = errors.New("invalid nats key scope")

var keyTokenEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

type Options struct {
	Bucket string
	AppID  string
	UserID string
}

type Store struct {
	kv     jetstream.KeyValue
	prefix string
	logger *zap.Logger
}

// Open binds the store to the bucket, creating it when it does not exist yet.
func Open(ctx context.Context, nc *nats.Conn, opts Options, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	appToken := encodeKeyToken(opts.AppID)
	userToken := encodeKeyToken(opts.UserID)
	if appToken == "" || userToken == "" {
		return nil, fmt.Errorf("%w: app=%q user=%q", ErrInvalidScope, opts.AppID, opts.UserID)
	}

	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		bucket = DefaultBucket
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "EndoTrack daily log entries",
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("bind key-value bucket %s: %w", bucket, err)
	}

	return &Store{
		kv:     kv,
		prefix: appToken + "." + userToken + ".",
		logger: logger.Named("natsstore").With(zap.String("bucket", bucket), zap.String("scope", appToken+"."+userToken)),
	}, nil
}

func (store *Store) Key(dateISO string) string {
	return store.prefix + encodeKeyToken(dateISO)
}

func (store *Store) Load(ctx context.Context) ([]models.LogEntry, error) {
	watcher, err := store.kv.Watch(ctx, store.prefix+"*", jetstream.IgnoreDeletes())
	if err != nil {
		return nil, fmt.Errorf("watch %s*: %w", store.prefix, err)
	}
	defer func() {
		_ = watcher.Stop()
	}()

	entries := make(map[string]models.LogEntry)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case update, ok := <-watcher.Updates():
			if !ok {
				return nil, errors.New("key watcher closed before initial values")
			}
			if update == nil {
				return sortedEntries(entries), nil
			}
			if err := store.apply(entries, update); err != nil {
				return nil, err
			}
		}
	}
}

// Save writes the entry under its date key. A put on an existing key is the
// replacement; the collection argument is not needed.
func (store *Store) Save(ctx context.Context, entry models.LogEntry, _ []models.LogEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal log entry: %w", err)
	}
	if _, err := store.kv.Put(ctx, store.Key(entry.DateISO), payload); err != nil {
		return fmt.Errorf("put %s: %w", store.Key(entry.DateISO), err)
	}
	return nil
}

// Subscribe delivers the complete collection once the initial values are
// replayed and again after every later change, until ctx is done.
func (store *Store) Subscribe(ctx context.Context, onChange func([]models.LogEntry)) error {
	watcher, err := store.kv.Watch(ctx, store.prefix+"*")
	if err != nil {
		return fmt.Errorf("watch %s*: %w", store.prefix, err)
	}

	go func() {
		defer func() {
			_ = watcher.Stop()
		}()

		entries := make(map[string]models.LogEntry)
		replayed := false
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-watcher.Updates():
				if !ok {
					return
				}
				if update == nil {
					replayed = true
					onChange(sortedEntries(entries))
					continue
				}
				if err := store.apply(entries, update); err != nil {
					store.logger.Warn("skip undecodable log entry", zap.String("key", update.Key()), zap.Error(err))
					continue
				}
				if replayed {
					onChange(sortedEntries(entries))
				}
			}
		}
	}()
	return nil
}

func (store *Store) apply(entries map[string]models.LogEntry, update jetstream.KeyValueEntry) error {
	switch update.Operation() {
	case jetstream.KeyValueDelete, jetstream.KeyValuePurge:
		delete(entries, update.Key())
		return nil
	}

	entry := models.LogEntry{}
	if err := json.Unmarshal(update.Value(), &entry); err != nil {
		return fmt.Errorf("decode %s: %w", update.Key(), err)
	}
	if entry.Symptoms == nil {
		entry.Symptoms = []string{}
	}
	entries[update.Key()] = entry
	return nil
}

func sortedEntries(entries map[string]models.LogEntry) []models.LogEntry {
	result := make([]models.LogEntry, 0, len(entries))
	for _, entry := range entries {
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DateISO > result[j].DateISO
	})
	return result
}

// encodeKeyToken keeps a value that is already a safe single key token and
// base32-encodes anything else behind a prefix, so distinct values never
// share a token.
func encodeKeyToken(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if isSafeKeyToken(trimmed) && !strings.HasPrefix(trimmed, encodedTokenPrefix) {
		return trimmed
	}
	return encodedTokenPrefix + keyTokenEncoding.EncodeToString([]byte(trimmed))
}

func isSafeKeyToken(value string) bool {
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
