package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/terraincognita07/endotrack/internal/models"
	"github.com/terraincognita07/endotrack/internal/services"
	"github.com/terraincognita07/endotrack/internal/telemetry"
)

type apiTestClock struct {
	now time.Time
}

func (clock apiTestClock) Now() time.Time {
	return clock.now
}

func (clock apiTestClock) Today() string {
	return clock.now.Format(models.DateISOLayout)
}

func (clock apiTestClock) Location() *time.Location {
	return time.UTC
}

type apiBackendStub struct {
	mu          sync.Mutex
	saveErr     error
	saved       []models.LogEntry
	saveStarted chan struct{}
	releaseSave chan struct{}
}

func (stub *apiBackendStub) Load(context.Context) ([]models.LogEntry, error) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	return append([]models.LogEntry(nil), stub.saved...), nil
}

func (stub *apiBackendStub) Save(_ context.Context, _ models.LogEntry, collection []models.LogEntry) error {
	if stub.saveStarted != nil {
		close(stub.saveStarted)
		<-stub.releaseSave
	}
	stub.mu.Lock()
	defer stub.mu.Unlock()
	if stub.saveErr != nil {
		return stub.saveErr
	}
	stub.saved = collection
	return nil
}

type apiTestEnv struct {
	app      *fiber.App
	store    *services.LogStore
	backend  *apiBackendStub
	registry *prometheus.Registry
}

var apiTestNow = time.Date(2024, time.March, 10, 21, 30, 0, 0, time.UTC)

func newAPITestEnv(t *testing.T) *apiTestEnv {
	t.Helper()

	backend := &apiBackendStub{}
	idCounter := 0
	store := services.NewLogStore(backend, apiTestClock{now: apiTestNow}, func() string {
		idCounter++
		return fmt.Sprintf("entry-%d", idCounter)
	})
	registry := prometheus.NewRegistry()

	handler, err := NewHandler(Dependencies{
		Store:    store,
		Clock:    apiTestClock{now: apiTestNow},
		Profile:  services.ExportProfile{PatientName: "Ana", TreatmentLabel: "Dienogest 2mg"},
		Metrics:  telemetry.NewMetrics(registry),
		Gatherer: registry,
	})
	if err != nil {
		t.Fatalf("NewHandler() unexpected error: %v", err)
	}

	return &apiTestEnv{
		app:      NewApp(handler),
		store:    store,
		backend:  backend,
		registry: registry,
	}
}

func (env *apiTestEnv) seed(t *testing.T, entries ...models.LogEntry) {
	t.Helper()
	env.store.Replace(entries)
}

func doRequest(t *testing.T, app *fiber.App, method string, target string, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	request := httptest.NewRequest(method, target, reader)
	if body != "" {
		request.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	}

	response, err := app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, target, err)
	}
	t.Cleanup(func() {
		_ = response.Body.Close()
	})
	return response
}

func decodeJSON(t *testing.T, body io.Reader, target any) {
	t.Helper()
	if err := json.NewDecoder(body).Decode(target); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

func readAPIError(t *testing.T, body io.Reader) string {
	t.Helper()

	payload := map[string]string{}
	decodeJSON(t, body, &payload)
	return payload["error"]
}

func readBody(t *testing.T, body io.Reader) string {
	t.Helper()
	content, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return string(content)
}

func seededEntry(dateISO string, painLevel int, bleeding models.Bleeding, createdAt time.Time) models.LogEntry {
	return models.LogEntry{
		ID:              "seed-" + dateISO,
		DateISO:         dateISO,
		PainLevel:       painLevel,
		Bleeding:        bleeding,
		MedicationTaken: true,
		Symptoms:        []string{},
		CreatedAt:       createdAt,
	}
}
