package filestore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terraincognita07/endotrack/internal/models"
)

func sampleEntry(dateISO string, painLevel int) models.LogEntry {
	return models.LogEntry{
		ID:              "id-" + dateISO,
		DateISO:         dateISO,
		PainLevel:       painLevel,
		Bleeding:        models.BleedingNone,
		MedicationTaken: true,
		Symptoms:        []string{models.SymptomMildCramps},
		CreatedAt:       time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestLoadMissingFileReturnsEmptyCollection(t *testing.T) {
	store, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	entries, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, nil)
	require.NoError(t, err)

	entry := sampleEntry("2024-03-10", 4)
	entry.Feeling = models.FeelingCramps
	entry.SOSMedication = "Paracetamol"
	collection := []models.LogEntry{entry, sampleEntry("2024-03-09", 0)}

	require.NoError(t, store.Save(context.Background(), entry, collection))
	assert.Equal(t, filepath.Join(dir, "endo_logs.json"), store.Path())
	assert.NoFileExists(t, store.Path()+".tmp")

	reopened, err := New(dir, nil)
	require.NoError(t, err)
	loaded, err := reopened.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, entry.DateISO, loaded[0].DateISO)
	assert.Equal(t, entry.Feeling, loaded[0].Feeling)
	assert.Equal(t, entry.SOSMedication, loaded[0].SOSMedication)
	assert.Equal(t, entry.Symptoms, loaded[0].Symptoms)
	assert.True(t, entry.CreatedAt.Equal(loaded[0].CreatedAt))
}

func TestSaveNilCollectionWritesEmptyArray(t *testing.T) {
	store, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), models.LogEntry{}, nil))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestLoadCorruptFileBacksItUp(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o600))

	_, err = store.Load(context.Background())
	require.ErrorIs(t, err, ErrCorruptFile)
	assert.FileExists(t, store.Path()+".corrupt")
	assert.NoFileExists(t, store.Path())

	entries, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadHonorsCanceledContext(t *testing.T) {
	store, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSubscribeReportsExternalRewrite(t *testing.T) {
	dir := t.TempDir()
	watched, err := New(dir, nil)
	require.NoError(t, err)
	writer, err := New(dir, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu       sync.Mutex
		received [][]models.LogEntry
	)
	require.NoError(t, watched.Subscribe(ctx, func(entries []models.LogEntry) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, entries)
	}))

	entry := sampleEntry("2024-03-11", 8)
	require.NoError(t, writer.Save(context.Background(), entry, []models.LogEntry{entry}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, entries := range received {
			if len(entries) == 1 && entries[0].DateISO == "2024-03-11" {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)
}

func TestSubscribeIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 8)
	require.NoError(t, store.Subscribe(ctx, func([]models.LogEntry) {
		calls <- struct{}{}
	}))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o600))

	select {
	case <-calls:
		t.Fatal("unexpected change notification for unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}
