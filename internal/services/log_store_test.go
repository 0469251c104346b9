package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/terraincognita07/endotrack/internal/models"
)

type fixedClock struct {
	now time.Time
}

func (clock *fixedClock) Now() time.Time {
	return clock.now
}

func (clock *fixedClock) Today() string {
	return FormatDateISO(clock.now, clock.now.Location())
}

// midnightClock reports the day before midnight from Today but the first
// second of the next day from Now, like a submit that straddles midnight.
type midnightClock struct {
	now time.Time
}

func (clock midnightClock) Now() time.Time {
	return clock.now
}

func (clock midnightClock) Today() string {
	return clock.now.Add(-time.Second).Format(models.DateISOLayout)
}

type logBackendStub struct {
	mu          sync.Mutex
	stored      []models.LogEntry
	loadErr     error
	saveErr     error
	saveCalls   int
	lastEntry   models.LogEntry
	saveStarted chan struct{}
	releaseSave chan struct{}
}

func newLogBackendStub(entries ...models.LogEntry) *logBackendStub {
	return &logBackendStub{stored: entries}
}

func (stub *logBackendStub) Load(context.Context) ([]models.LogEntry, error) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	if stub.loadErr != nil {
		return nil, stub.loadErr
	}
	result := make([]models.LogEntry, len(stub.stored))
	copy(result, stub.stored)
	return result, nil
}

func (stub *logBackendStub) Save(_ context.Context, entry models.LogEntry, collection []models.LogEntry) error {
	if stub.saveStarted != nil {
		close(stub.saveStarted)
		<-stub.releaseSave
	}

	stub.mu.Lock()
	defer stub.mu.Unlock()
	stub.saveCalls++
	stub.lastEntry = entry
	if stub.saveErr != nil {
		return stub.saveErr
	}
	stub.stored = collection
	return nil
}

type subscribingBackendStub struct {
	*logBackendStub
	onChange     func([]models.LogEntry)
	subscribeErr error
}

func (stub *subscribingBackendStub) Subscribe(_ context.Context, onChange func([]models.LogEntry)) error {
	if stub.subscribeErr != nil {
		return stub.subscribeErr
	}
	stub.onChange = onChange
	return nil
}

func sequentialIDs() func() string {
	next := 0
	return func() string {
		next++
		return fmt.Sprintf("log-%03d", next)
	}
}

func newTestStore(backend Backend) (*LogStore, *fixedClock) {
	clock := &fixedClock{now: time.Date(2024, 3, 1, 9, 30, 15, 500, time.UTC)}
	return NewLogStore(backend, clock, sequentialIDs()), clock
}

func TestSubmitDerivesPainAndStampsToday(t *testing.T) {
	backend := newLogBackendStub()
	store, _ := newTestStore(backend)

	entry, err := store.Submit(context.Background(), DraftEntry{
		Symptoms:        []string{models.SymptomSevereCramps},
		MedicationTaken: true,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if entry.DateISO != "2024-03-01" {
		t.Fatalf("expected dateISO 2024-03-01, got %q", entry.DateISO)
	}
	if entry.PainLevel != 8 {
		t.Fatalf("expected pain 8, got %d", entry.PainLevel)
	}
	if entry.Bleeding != models.BleedingNone {
		t.Fatalf("expected no bleeding, got %q", entry.Bleeding)
	}
	if !entry.MedicationTaken {
		t.Fatal("expected medication taken")
	}
	if entry.ID != "log-001" {
		t.Fatalf("expected generated id log-001, got %q", entry.ID)
	}
	if entry.CreatedAt.Nanosecond() != 0 {
		t.Fatalf("expected createdAt truncated to seconds, got %s", entry.CreatedAt)
	}
	if backend.saveCalls != 1 || len(backend.stored) != 1 {
		t.Fatalf("expected one persisted entry, got calls=%d stored=%d", backend.saveCalls, len(backend.stored))
	}
}

func TestSubmitSameDayReplacesEntry(t *testing.T) {
	backend := newLogBackendStub()
	store, clock := newTestStore(backend)

	if _, err := store.Submit(context.Background(), DraftEntry{
		Symptoms:        []string{models.SymptomSevereCramps},
		MedicationTaken: true,
	}); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	clock.now = clock.now.Add(2 * time.Hour)
	second, err := store.Submit(context.Background(), DraftEntry{
		Symptoms: []string{models.SymptomSpotting},
	})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}

	logs := store.Logs()
	if len(logs) != 1 {
		t.Fatalf("expected exactly one entry for the day, got %d", len(logs))
	}
	if logs[0].ID != second.ID {
		t.Fatalf("expected second submit to win, got id %q", logs[0].ID)
	}
	if logs[0].PainLevel != 0 || logs[0].Bleeding != models.BleedingSpotting {
		t.Fatalf("expected pain 0 and spotting, got pain=%d bleeding=%q", logs[0].PainLevel, logs[0].Bleeding)
	}
	if len(backend.stored) != 1 {
		t.Fatalf("expected backend collection of one entry, got %d", len(backend.stored))
	}
}

func TestSubmitKeepsOneEntryPerDateAcrossManyDays(t *testing.T) {
	backend := newLogBackendStub()
	store, clock := newTestStore(backend)
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	offsets := []time.Duration{0, 24 * time.Hour, 26 * time.Hour, 48 * time.Hour, 50 * time.Hour}
	for index, offset := range offsets {
		clock.now = base.Add(offset)
		if _, err := store.Submit(context.Background(), DraftEntry{}); err != nil {
			t.Fatalf("submit %d: %v", index, err)
		}
	}

	logs := store.Logs()
	if len(logs) != 3 {
		t.Fatalf("expected 3 distinct days, got %d", len(logs))
	}
	seen := map[string]bool{}
	for _, entry := range logs {
		if seen[entry.DateISO] {
			t.Fatalf("duplicate entry for %s", entry.DateISO)
		}
		seen[entry.DateISO] = true
	}
	if logs[0].DateISO != "2024-03-03" || !logs[0].CreatedAt.Equal(base.Add(50*time.Hour)) {
		t.Fatalf("expected latest resubmit of 2024-03-03 first, got %s at %s", logs[0].DateISO, logs[0].CreatedAt)
	}
	for index := 1; index < len(logs); index++ {
		if logs[index].CreatedAt.After(logs[index-1].CreatedAt) {
			t.Fatalf("expected createdAt descending order, got %#v", logs)
		}
	}
}

func TestSubmitStampsDateAndCreatedAtFromOneInstant(t *testing.T) {
	backend := newLogBackendStub()
	store := NewLogStore(backend, midnightClock{now: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)}, sequentialIDs())

	entry, err := store.Submit(context.Background(), DraftEntry{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if entry.DateISO != "2024-03-02" {
		t.Fatalf("expected dateISO of the submit instant 2024-03-02, got %q", entry.DateISO)
	}
	if entry.CreatedAt.Format(models.DateISOLayout) != entry.DateISO {
		t.Fatalf("expected createdAt on %s, got %s", entry.DateISO, entry.CreatedAt)
	}
}

func TestSubmitWriteFailureLeavesCollectionUnchanged(t *testing.T) {
	existing := models.LogEntry{
		ID:        "existing",
		DateISO:   "2024-03-01",
		PainLevel: 4,
		Bleeding:  models.BleedingNone,
		Symptoms:  []string{models.SymptomMildCramps},
		CreatedAt: time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC),
	}
	backend := newLogBackendStub(existing)
	store, _ := newTestStore(backend)
	if _, err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	backend.saveErr = errors.New("disk full")
	_, err := store.Submit(context.Background(), DraftEntry{Symptoms: []string{models.SymptomHeavyFlow}})
	if !errors.Is(err, ErrPersistenceWriteFailed) {
		t.Fatalf("expected ErrPersistenceWriteFailed, got %v", err)
	}

	entry, found := store.FindByDate("2024-03-01")
	if !found {
		t.Fatal("expected pre-submit entry to remain")
	}
	if entry.ID != "existing" || entry.PainLevel != 4 || entry.Bleeding != models.BleedingNone {
		t.Fatalf("expected unchanged entry, got %#v", entry)
	}
	if store.Status() != StoreStatusIdle {
		t.Fatalf("expected idle status after failure, got %q", store.Status())
	}
}

func TestSubmitWriteFailureOnEmptyStoreLeavesDateAbsent(t *testing.T) {
	backend := newLogBackendStub()
	backend.saveErr = errors.New("offline")
	store, _ := newTestStore(backend)

	if _, err := store.Submit(context.Background(), DraftEntry{}); !errors.Is(err, ErrPersistenceWriteFailed) {
		t.Fatalf("expected ErrPersistenceWriteFailed, got %v", err)
	}
	if _, found := store.FindByDate("2024-03-01"); found {
		t.Fatal("expected no entry after failed write")
	}
	if len(store.Logs()) != 0 {
		t.Fatalf("expected empty collection, got %d", len(store.Logs()))
	}
}

func TestSubmitRejectsInvalidDraftWithoutWriting(t *testing.T) {
	backend := newLogBackendStub()
	store, _ := newTestStore(backend)

	_, err := store.Submit(context.Background(), DraftEntry{Feeling: models.Feeling("ecstatic")})
	if !errors.Is(err, ErrInvalidDraft) {
		t.Fatalf("expected ErrInvalidDraft, got %v", err)
	}
	if backend.saveCalls != 0 {
		t.Fatalf("expected no backend write, got %d", backend.saveCalls)
	}
}

func TestSubmitRejectsConcurrentSubmitWhileSaving(t *testing.T) {
	backend := newLogBackendStub()
	backend.saveStarted = make(chan struct{})
	backend.releaseSave = make(chan struct{})
	store, _ := newTestStore(backend)

	done := make(chan error, 1)
	go func() {
		_, err := store.Submit(context.Background(), DraftEntry{})
		done <- err
	}()

	<-backend.saveStarted
	if store.Status() != StoreStatusSaving {
		t.Fatalf("expected saving status, got %q", store.Status())
	}
	if _, err := store.Submit(context.Background(), DraftEntry{}); !errors.Is(err, ErrStoreBusy) {
		t.Fatalf("expected ErrStoreBusy, got %v", err)
	}

	close(backend.releaseSave)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if store.Status() != StoreStatusIdle {
		t.Fatalf("expected idle status, got %q", store.Status())
	}
}

func TestLoadFailureReturnsPersistenceUnavailable(t *testing.T) {
	backend := newLogBackendStub()
	backend.loadErr = errors.New("connection refused")
	store, _ := newTestStore(backend)

	logs, err := store.Load(context.Background())
	if !errors.Is(err, ErrPersistenceUnavailable) {
		t.Fatalf("expected ErrPersistenceUnavailable, got %v", err)
	}
	if logs != nil {
		t.Fatalf("expected nil logs on failure, got %#v", logs)
	}
	if len(store.Logs()) != 0 {
		t.Fatalf("expected store to stay empty, got %d", len(store.Logs()))
	}
}

func TestLoadSortsAndDedupesBackendEntries(t *testing.T) {
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	backend := newLogBackendStub(
		models.LogEntry{ID: "a", DateISO: "2024-03-01", CreatedAt: base},
		models.LogEntry{ID: "b", DateISO: "2024-03-02", CreatedAt: base.Add(24 * time.Hour)},
		models.LogEntry{ID: "c", DateISO: "2024-03-01", CreatedAt: base.Add(time.Hour)},
	)
	store, _ := newTestStore(backend)

	logs, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 entries after dedupe, got %d", len(logs))
	}
	if logs[0].ID != "b" || logs[1].ID != "c" {
		t.Fatalf("expected order [b c], got [%s %s]", logs[0].ID, logs[1].ID)
	}
}

func TestFindByDateReturnsCopy(t *testing.T) {
	backend := newLogBackendStub()
	store, _ := newTestStore(backend)
	if _, err := store.Submit(context.Background(), DraftEntry{Symptoms: []string{models.SymptomBloating}}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	entry, found := store.FindByDate("2024-03-01")
	if !found {
		t.Fatal("expected entry")
	}
	entry.Symptoms[0] = "mutated"

	again, _ := store.FindByDate("2024-03-01")
	if again.Symptoms[0] != models.SymptomBloating {
		t.Fatalf("expected stored symptoms untouched, got %#v", again.Symptoms)
	}
	if _, found := store.FindByDate("2024-02-29"); found {
		t.Fatal("expected absent date to be missing")
	}
}

func TestWatchReceivesOneNotificationPerSubmit(t *testing.T) {
	backend := newLogBackendStub()
	store, _ := newTestStore(backend)

	notifications := 0
	var lastSize int
	store.Watch(func(entries []models.LogEntry) {
		notifications++
		lastSize = len(entries)
	})

	if _, err := store.Submit(context.Background(), DraftEntry{}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if notifications != 1 || lastSize != 1 {
		t.Fatalf("expected one notification with one entry, got %d/%d", notifications, lastSize)
	}

	backend.saveErr = errors.New("boom")
	_, _ = store.Submit(context.Background(), DraftEntry{})
	if notifications != 1 {
		t.Fatalf("expected no notification after failed write, got %d", notifications)
	}
}

func TestSyncSubscribesAndReplacesCollection(t *testing.T) {
	backend := &subscribingBackendStub{logBackendStub: newLogBackendStub()}
	store, _ := newTestStore(backend)

	available, err := store.Sync(context.Background())
	if err != nil || !available {
		t.Fatalf("expected subscription to start, got available=%v err=%v", available, err)
	}

	base := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	backend.onChange([]models.LogEntry{
		{ID: "x", DateISO: "2024-03-04", CreatedAt: base.Add(-24 * time.Hour)},
		{ID: "y", DateISO: "2024-03-05", CreatedAt: base},
	})

	logs := store.Logs()
	if len(logs) != 2 || logs[0].ID != "y" {
		t.Fatalf("expected refreshed sorted collection, got %#v", logs)
	}
}

func TestSyncWithoutSubscriberIsNoop(t *testing.T) {
	store, _ := newTestStore(newLogBackendStub())
	available, err := store.Sync(context.Background())
	if err != nil || available {
		t.Fatalf("expected no feed, got available=%v err=%v", available, err)
	}
}

func TestSyncSubscribeFailure(t *testing.T) {
	backend := &subscribingBackendStub{logBackendStub: newLogBackendStub(), subscribeErr: errors.New("no route")}
	store, _ := newTestStore(backend)

	available, err := store.Sync(context.Background())
	if !available || !errors.Is(err, ErrPersistenceUnavailable) {
		t.Fatalf("expected ErrPersistenceUnavailable, got available=%v err=%v", available, err)
	}
}

func TestReplaceIgnoresEchoOfOwnWrite(t *testing.T) {
	backend := &subscribingBackendStub{logBackendStub: newLogBackendStub()}
	store, _ := newTestStore(backend)
	if _, err := store.Sync(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	notifications := 0
	store.Watch(func([]models.LogEntry) { notifications++ })

	if _, err := store.Submit(context.Background(), DraftEntry{}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	backend.onChange(store.Logs())

	if notifications != 1 {
		t.Fatalf("expected one notification for one submit, got %d", notifications)
	}
}

func TestReplaceDropsRefreshOlderThanLastSubmit(t *testing.T) {
	backend := &subscribingBackendStub{logBackendStub: newLogBackendStub()}
	store, clock := newTestStore(backend)
	if _, err := store.Sync(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	notifications := 0
	store.Watch(func([]models.LogEntry) { notifications++ })

	first, err := store.Submit(context.Background(), DraftEntry{})
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	clock.now = clock.now.Add(24 * time.Hour)
	second, err := store.Submit(context.Background(), DraftEntry{Symptoms: []string{models.SymptomMigraine}})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}

	// The feed reports the first write only after the second was committed.
	backend.onChange([]models.LogEntry{first})
	logs := store.Logs()
	if len(logs) != 2 || logs[0].ID != second.ID {
		t.Fatalf("expected stale refresh to be dropped, got %#v", logs)
	}
	if notifications != 2 {
		t.Fatalf("expected notifications only from the two submits, got %d", notifications)
	}

	backend.onChange([]models.LogEntry{first, second})
	if notifications != 2 {
		t.Fatalf("expected echo of both writes to be silent, got %d notifications", notifications)
	}

	external := models.LogEntry{ID: "remote", DateISO: "2024-02-28", CreatedAt: clock.now.Add(time.Minute)}
	backend.onChange([]models.LogEntry{first, second, external})
	if notifications != 3 || len(store.Logs()) != 3 {
		t.Fatalf("expected external change to be applied, got %d notifications and %d logs", notifications, len(store.Logs()))
	}
}

func TestReplaceAcceptsNewerEntryForSubmittedDay(t *testing.T) {
	backend := &subscribingBackendStub{logBackendStub: newLogBackendStub()}
	store, clock := newTestStore(backend)
	if _, err := store.Sync(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	submitted, err := store.Submit(context.Background(), DraftEntry{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	elsewhere := models.LogEntry{ID: "other-device", DateISO: submitted.DateISO, PainLevel: 8, CreatedAt: clock.now.Add(time.Minute)}
	backend.onChange([]models.LogEntry{elsewhere})

	entry, found := store.FindByDate(submitted.DateISO)
	if !found || entry.ID != "other-device" {
		t.Fatalf("expected newer entry from another writer, got %#v", entry)
	}
}
