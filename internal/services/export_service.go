package services

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/terraincognita07/endotrack/internal/models"
)

const (
	ReportRecentDays = 7
	shareBaseURL     = "https://wa.me/?text="
)

var ExportCSVHeaders = []string{
	"Date",
	"Pain",
	"Bleeding",
	"Medication taken",
	"Feeling",
	"Symptoms",
	"SOS medication",
	"Created at",
}

type ExportLogReader interface {
	Logs() []models.LogEntry
}

type ExportTranslator interface {
	Translate(language string, key string) string
}

type ExportProfile struct {
	PatientName    string
	TreatmentLabel string
}

type ExportService struct {
	logs       ExportLogReader
	translator ExportTranslator
	profile    ExportProfile
}

type ExportSummary struct {
	TotalEntries int    `json:"total_entries"`
	HasData      bool   `json:"has_data"`
	DateFrom     string `json:"date_from"`
	DateTo       string `json:"date_to"`
}

type ReportLine struct {
	DateISO       string
	PainLevel     int
	Bleeding      models.Bleeding
	SOSMedication string
}

type ExportReport struct {
	TotalDays          int
	OverallPainAverage float64
	HasPainData        bool
	BleedingDays       int
	Recent             []ReportLine
}

type ExportJSONEntry struct {
	Date            string   `json:"date"`
	PainLevel       int      `json:"pain_level"`
	Bleeding        string   `json:"bleeding"`
	MedicationTaken bool     `json:"medication_taken"`
	Feeling         string   `json:"feeling"`
	Symptoms        []string `json:"symptoms"`
	SOSMedication   string   `json:"sos_medication"`
	CreatedAt       string   `json:"created_at"`
}

type ExportCSVRow struct {
	Date            string
	PainLevel       int
	Bleeding        string
	MedicationTaken bool
	Feeling         string
	Symptoms        []string
	SOSMedication   string
	CreatedAt       string
}

func NewExportService(logs ExportLogReader, translator ExportTranslator, profile ExportProfile) *ExportService {
	return &ExportService{
		logs:       logs,
		translator: translator,
		profile:    profile,
	}
}

func (service *ExportService) BuildSummary() ExportSummary {
	logs := service.logs.Logs()
	if len(logs) == 0 {
		return ExportSummary{}
	}

	first := logs[0].DateISO
	last := logs[0].DateISO
	for _, logEntry := range logs[1:] {
		if logEntry.DateISO < first {
			first = logEntry.DateISO
		}
		if logEntry.DateISO > last {
			last = logEntry.DateISO
		}
	}

	return ExportSummary{
		TotalEntries: len(logs),
		HasData:      true,
		DateFrom:     first,
		DateTo:       last,
	}
}

func (service *ExportService) BuildReport() ExportReport {
	return BuildExportReport(service.logs.Logs())
}

// BuildExportReport expects logs sorted most recent first, as returned by the
// log store.
func BuildExportReport(logs []models.LogEntry) ExportReport {
	average, hasData := OverallPainAverage(logs)

	recentCount := len(logs)
	if recentCount > ReportRecentDays {
		recentCount = ReportRecentDays
	}
	recent := make([]ReportLine, 0, recentCount)
	for _, logEntry := range logs[:recentCount] {
		recent = append(recent, ReportLine{
			DateISO:       logEntry.DateISO,
			PainLevel:     logEntry.PainLevel,
			Bleeding:      logEntry.Bleeding,
			SOSMedication: logEntry.SOSMedication,
		})
	}

	return ExportReport{
		TotalDays:          len(logs),
		OverallPainAverage: average,
		HasPainData:        hasData,
		BleedingDays:       BleedingDayCount(logs),
		Recent:             recent,
	}
}

func (service *ExportService) ReportText(language string) string {
	return service.FormatReportText(service.BuildReport(), language)
}

func (service *ExportService) FormatReportText(report ExportReport, language string) string {
	var builder strings.Builder

	builder.WriteString(service.translate(language, "report.title"))
	builder.WriteString("\n")
	builder.WriteString(service.translatef(language, "report.patient", service.profile.PatientName))
	builder.WriteString("\n")
	builder.WriteString(service.translatef(language, "report.treatment", service.profile.TreatmentLabel))
	builder.WriteString("\n")
	builder.WriteString(service.translatef(language, "report.days_logged", report.TotalDays))
	builder.WriteString("\n\n")

	average := "0"
	if report.HasPainData {
		average = strconv.FormatFloat(report.OverallPainAverage, 'f', 1, 64)
	}
	builder.WriteString(service.translate(language, "report.summary_heading"))
	builder.WriteString("\n")
	builder.WriteString(service.translatef(language, "report.average_pain", average))
	builder.WriteString("\n")
	builder.WriteString(service.translatef(language, "report.bleeding_days", report.BleedingDays))
	builder.WriteString("\n\n")

	builder.WriteString(service.translate(language, "report.recent_heading"))
	builder.WriteString("\n")
	for _, line := range report.Recent {
		sos := line.SOSMedication
		if sos == "" {
			sos = service.translate(language, "report.no_sos")
		}
		builder.WriteString(service.translatef(
			language,
			"report.line",
			service.dateLabel(language, line.DateISO),
			line.PainLevel,
			service.translate(language, bleedingTranslationKey(line.Bleeding)),
			sos,
		))
		builder.WriteString("\n")
	}

	return builder.String()
}

func (service *ExportService) ShareURL(language string) string {
	return BuildShareURL(service.ReportText(language))
}

// uriComponentReplacer turns query escaping into encodeURIComponent output:
// spaces become %20 and the marks !'()* stay literal.
var uriComponentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func BuildShareURL(text string) string {
	return shareBaseURL + uriComponentReplacer.Replace(url.QueryEscape(text))
}

func (service *ExportService) BuildJSONEntries() []ExportJSONEntry {
	logs := exportChronological(service.logs.Logs())
	entries := make([]ExportJSONEntry, 0, len(logs))
	for _, logEntry := range logs {
		entries = append(entries, ExportJSONEntry{
			Date:            logEntry.DateISO,
			PainLevel:       logEntry.PainLevel,
			Bleeding:        normalizeExportBleeding(logEntry.Bleeding),
			MedicationTaken: logEntry.MedicationTaken,
			Feeling:         string(logEntry.Feeling),
			Symptoms:        exportSymptoms(logEntry.Symptoms),
			SOSMedication:   logEntry.SOSMedication,
			CreatedAt:       logEntry.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return entries
}

func (service *ExportService) BuildCSVRows() []ExportCSVRow {
	logs := exportChronological(service.logs.Logs())
	rows := make([]ExportCSVRow, 0, len(logs))
	for _, logEntry := range logs {
		rows = append(rows, ExportCSVRow{
			Date:            logEntry.DateISO,
			PainLevel:       logEntry.PainLevel,
			Bleeding:        csvBleedingLabel(logEntry.Bleeding),
			MedicationTaken: logEntry.MedicationTaken,
			Feeling:         string(logEntry.Feeling),
			Symptoms:        exportSymptoms(logEntry.Symptoms),
			SOSMedication:   logEntry.SOSMedication,
			CreatedAt:       logEntry.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return rows
}

func (row ExportCSVRow) Columns() []string {
	return []string{
		row.Date,
		strconv.Itoa(row.PainLevel),
		row.Bleeding,
		csvYesNo(row.MedicationTaken),
		row.Feeling,
		strings.Join(row.Symptoms, "; "),
		row.SOSMedication,
		row.CreatedAt,
	}
}

func (service *ExportService) dateLabel(language string, dateISO string) string {
	parsed, err := ParseDateISO(dateISO, nil)
	if err != nil {
		return dateISO
	}
	monthKey := fmt.Sprintf("month.short.%02d", int(parsed.Month()))
	return fmt.Sprintf("%02d %s", parsed.Day(), service.translate(language, monthKey))
}

func (service *ExportService) translate(language string, key string) string {
	if service.translator == nil {
		return key
	}
	return service.translator.Translate(language, key)
}

func (service *ExportService) translatef(language string, key string, args ...any) string {
	return fmt.Sprintf(service.translate(language, key), args...)
}

func exportChronological(logs []models.LogEntry) []models.LogEntry {
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].DateISO < logs[j].DateISO
	})
	return logs
}

func exportSymptoms(symptoms []string) []string {
	if symptoms == nil {
		return []string{}
	}
	return symptoms
}

func bleedingTranslationKey(bleeding models.Bleeding) string {
	return "bleeding." + normalizeExportBleeding(bleeding)
}

func normalizeExportBleeding(bleeding models.Bleeding) string {
	switch models.Bleeding(strings.ToLower(strings.TrimSpace(string(bleeding)))) {
	case models.BleedingSpotting:
		return string(models.BleedingSpotting)
	case models.BleedingHeavy:
		return string(models.BleedingHeavy)
	default:
		return string(models.BleedingNone)
	}
}

func csvBleedingLabel(bleeding models.Bleeding) string {
	switch normalizeExportBleeding(bleeding) {
	case string(models.BleedingSpotting):
		return "Spotting"
	case string(models.BleedingHeavy):
		return "Heavy"
	default:
		return "None"
	}
}

func csvYesNo(value bool) string {
	if value {
		return "Yes"
	}
	return "No"
}
