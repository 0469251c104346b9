package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/terraincognita07/endotrack/internal/models"
)

var (
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
	ErrPersistenceWriteFailed = errors.New("persistence write failed")
	ErrStoreBusy              = errors.New("log store busy")
)

// Backend persists the collection. Save receives both the submitted entry and
// the full collection it produced so an implementation can either replace a
// single key or rewrite everything.
type Backend interface {
	Load(ctx context.Context) ([]models.LogEntry, error)
	Save(ctx context.Context, entry models.LogEntry, collection []models.LogEntry) error
}

// Subscriber is implemented by backends that can push collection refreshes.
// Subscribe returns once the feed is running; onChange keeps being called with
// the complete collection until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, onChange func([]models.LogEntry)) error
}

type StoreStatus string

const (
	StoreStatusIdle   StoreStatus = "idle"
	StoreStatusSaving StoreStatus = "saving"
)

type LogStore struct {
	backend Backend
	clock   Clock
	newID   func() string

	entries atomic.Pointer[[]models.LogEntry]
	saving  atomic.Bool

	// swapMu orders collection swaps. unechoed is the last submitted entry
	// that no backend refresh has included yet.
	swapMu   sync.Mutex
	unechoed *models.LogEntry

	observersMu sync.RWMutex
	observers   []func([]models.LogEntry)
}

func NewLogStore(backend Backend, clock Clock, newID func() string) *LogStore {
	if newID == nil {
		newID = uuid.NewString
	}
	store := &LogStore{
		backend: backend,
		clock:   clock,
		newID:   newID,
	}
	empty := make([]models.LogEntry, 0)
	store.entries.Store(&empty)
	return store
}

func (store *LogStore) Load(ctx context.Context) ([]models.LogEntry, error) {
	loaded, err := store.backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
	}
	store.Replace(loaded)
	return store.Logs(), nil
}

func (store *LogStore) Submit(ctx context.Context, draft DraftEntry) (models.LogEntry, error) {
	if !store.saving.CompareAndSwap(false, true) {
		return models.LogEntry{}, ErrStoreBusy
	}
	defer store.saving.Store(false)

	normalized, err := NormalizeDraft(draft)
	if err != nil {
		return models.LogEntry{}, err
	}

	now := store.clock.Now()
	entry := models.LogEntry{
		ID:              store.newID(),
		DateISO:         FormatDateISO(now, now.Location()),
		PainLevel:       DerivePainLevel(normalized.Symptoms, normalized.Feeling),
		Bleeding:        DeriveBleeding(normalized.Symptoms),
		MedicationTaken: normalized.MedicationTaken,
		Feeling:         normalized.Feeling,
		Symptoms:        normalized.Symptoms,
		SOSMedication:   normalized.SOSMedication,
		CreatedAt:       now.Truncate(time.Second),
	}

	// Held across Save so a feed cannot deliver this write before it is
	// swapped in.
	store.swapMu.Lock()
	defer store.swapMu.Unlock()

	next := UpsertLogEntry(store.snapshot(), entry)
	if err := store.backend.Save(ctx, entry, cloneLogEntries(next)); err != nil {
		return models.LogEntry{}, fmt.Errorf("%w: %v", ErrPersistenceWriteFailed, err)
	}

	committed := cloneLogEntry(entry)
	store.unechoed = &committed
	store.swapLocked(next)
	return entry, nil
}

func (store *LogStore) FindByDate(dateISO string) (models.LogEntry, bool) {
	for _, entry := range store.snapshot() {
		if entry.DateISO == dateISO {
			return cloneLogEntry(entry), true
		}
	}
	return models.LogEntry{}, false
}

func (store *LogStore) Logs() []models.LogEntry {
	return cloneLogEntries(store.snapshot())
}

// Replace swaps in a collection delivered by the backend, e.g. from a live
// subscription. A refresh that does not yet include the last submitted entry
// is stale and dropped; a refresh equal to the current collection is a no-op,
// so a backend echoing our own write does not notify observers again.
func (store *LogStore) Replace(entries []models.LogEntry) {
	next := SortLogEntries(DedupeLogEntriesByDate(cloneLogEntries(entries)))

	store.swapMu.Lock()
	defer store.swapMu.Unlock()

	if store.unechoed != nil {
		if !includesCommitted(next, *store.unechoed) {
			return
		}
		store.unechoed = nil
	}
	if sameLogEntries(store.snapshot(), next) {
		return
	}
	store.swapLocked(next)
}

// Sync starts the backend subscription when the backend supports one. The
// boolean reports whether a feed is available at all.
func (store *LogStore) Sync(ctx context.Context) (bool, error) {
	subscriber, ok := store.backend.(Subscriber)
	if !ok {
		return false, nil
	}
	if err := subscriber.Subscribe(ctx, store.Replace); err != nil {
		return true, fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
	}
	return true, nil
}

func (store *LogStore) Status() StoreStatus {
	if store.saving.Load() {
		return StoreStatusSaving
	}
	return StoreStatusIdle
}

func (store *LogStore) Watch(observer func([]models.LogEntry)) {
	if observer == nil {
		return
	}
	store.observersMu.Lock()
	defer store.observersMu.Unlock()
	store.observers = append(store.observers, observer)
}

func (store *LogStore) snapshot() []models.LogEntry {
	current := store.entries.Load()
	if current == nil {
		return nil
	}
	return *current
}

// swapLocked publishes next and notifies observers in swap order. Observers
// must not call Replace or Submit.
func (store *LogStore) swapLocked(next []models.LogEntry) {
	store.entries.Store(&next)

	store.observersMu.RLock()
	observers := make([]func([]models.LogEntry), len(store.observers))
	copy(observers, store.observers)
	store.observersMu.RUnlock()

	for _, observer := range observers {
		observer(cloneLogEntries(next))
	}
}

// UpsertLogEntry returns a new sorted collection where entry replaces any
// entry sharing its DateISO. The input slice is not modified.
func UpsertLogEntry(entries []models.LogEntry, entry models.LogEntry) []models.LogEntry {
	next := make([]models.LogEntry, 0, len(entries)+1)
	for _, existing := range entries {
		if existing.DateISO == entry.DateISO {
			continue
		}
		next = append(next, existing)
	}
	next = append(next, entry)
	return SortLogEntries(next)
}

func DedupeLogEntriesByDate(entries []models.LogEntry) []models.LogEntry {
	latestByDate := make(map[string]models.LogEntry, len(entries))
	for _, entry := range entries {
		existing, exists := latestByDate[entry.DateISO]
		if !exists || isNewerLogEntry(entry, existing) {
			latestByDate[entry.DateISO] = entry
		}
	}

	result := make([]models.LogEntry, 0, len(latestByDate))
	for _, entry := range latestByDate {
		result = append(result, entry)
	}
	return result
}

// SortLogEntries orders entries most recent first, in place.
func SortLogEntries(entries []models.LogEntry) []models.LogEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		return isNewerLogEntry(entries[i], entries[j])
	})
	return entries
}

// includesCommitted reports whether refreshed carries committed, or a newer
// entry for the same day written elsewhere.
func includesCommitted(refreshed []models.LogEntry, committed models.LogEntry) bool {
	for _, entry := range refreshed {
		if entry.ID == committed.ID {
			return true
		}
		if entry.DateISO == committed.DateISO && entry.CreatedAt.After(committed.CreatedAt) {
			return true
		}
	}
	return false
}

func sameLogEntries(left []models.LogEntry, right []models.LogEntry) bool {
	if len(left) != len(right) {
		return false
	}
	for index := range left {
		if left[index].ID != right[index].ID ||
			left[index].DateISO != right[index].DateISO ||
			!left[index].CreatedAt.Equal(right[index].CreatedAt) {
			return false
		}
	}
	return true
}

func isNewerLogEntry(left models.LogEntry, right models.LogEntry) bool {
	if !left.CreatedAt.Equal(right.CreatedAt) {
		return left.CreatedAt.After(right.CreatedAt)
	}
	if left.DateISO != right.DateISO {
		return left.DateISO > right.DateISO
	}
	return left.ID > right.ID
}

func cloneLogEntries(entries []models.LogEntry) []models.LogEntry {
	result := make([]models.LogEntry, len(entries))
	for index, entry := range entries {
		result[index] = cloneLogEntry(entry)
	}
	return result
}

func cloneLogEntry(entry models.LogEntry) models.LogEntry {
	symptoms := make([]string, len(entry.Symptoms))
	copy(symptoms, entry.Symptoms)
	entry.Symptoms = symptoms
	return entry
}
