package api

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/terraincognita07/endotrack/internal/i18n"
	"github.com/terraincognita07/endotrack/internal/models"
	"github.com/terraincognita07/endotrack/internal/services"
	"github.com/terraincognita07/endotrack/internal/telemetry"
	"go.uber.org/zap"
)

const (
	contextLanguageKey = "language"
	maxChartPoints     = 366
)

// LogStore is the part of services.LogStore the handlers use.
type LogStore interface {
	Submit(ctx context.Context, draft services.DraftEntry) (models.LogEntry, error)
	FindByDate(dateISO string) (models.LogEntry, bool)
	Logs() []models.LogEntry
	Status() services.StoreStatus
}

type Dependencies struct {
	Store    LogStore
	Clock    services.Clock
	I18n     *i18n.Manager
	Profile  services.ExportProfile
	Metrics  *telemetry.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

type Handler struct {
	store         LogStore
	clock         services.Clock
	location      *time.Location
	i18n          *i18n.Manager
	exportService *services.ExportService
	metrics       *telemetry.Metrics
	gatherer      prometheus.Gatherer
	logger        *zap.Logger
}

type logDraftPayload struct {
	Feeling         string   `json:"feeling" form:"feeling"`
	Symptoms        []string `json:"symptoms" form:"symptoms"`
	MedicationTaken *bool    `json:"medication_taken" form:"medication_taken"`
	SOSMedication   string   `json:"sos_medication" form:"sos_medication"`
}

type chartResponse struct {
	Points []services.ChartPoint `json:"points"`
}

type shareResponse struct {
	URL string `json:"url"`
}

type catalogSymptom struct {
	Name  string `json:"name"`
	Key   string `json:"key"`
	Label string `json:"label"`
}

type catalogFeeling struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type catalogResponse struct {
	Language  string           `json:"language"`
	Languages []string         `json:"languages"`
	Symptoms  []catalogSymptom `json:"symptoms"`
	Feelings  []catalogFeeling `json:"feelings"`
}
