package services

import (
	"math"
	"sort"

	"github.com/terraincognita07/endotrack/internal/models"
)

const (
	RollingPainWindow     = 7
	DefaultChartPoints    = 7
	AdaptationPhaseDays   = 30
	StabilizationPhaseEnd = 90
	TreatmentStripLength  = 5
	PatternInsightMinLogs = 3
)

type TreatmentPhase string

const (
	PhaseAdaptation    TreatmentPhase = "adaptation"
	PhaseStabilization TreatmentPhase = "stabilization"
	PhaseControl       TreatmentPhase = "control"
)

type ChartPoint struct {
	DateISO     string `json:"date_iso,omitempty"`
	PainLevel   int    `json:"pain_level"`
	Placeholder bool   `json:"placeholder"`
}

type SymptomFrequency struct {
	Name      string `json:"name"`
	Count     int    `json:"count"`
	TotalDays int    `json:"total_days"`
}

type TreatmentStripDay struct {
	Day   int    `json:"day"`
	State string `json:"state"`
}

const (
	StripStatePast   = "past"
	StripStateToday  = "today"
	StripStateFuture = "future"
)

type DerivedMetrics struct {
	TotalEntries        int                 `json:"total_entries"`
	TreatmentDay        int                 `json:"treatment_day"`
	TreatmentPhase      TreatmentPhase      `json:"treatment_phase"`
	TreatmentProgress   float64             `json:"treatment_progress"`
	RollingPainAverage  float64             `json:"rolling_pain_average"`
	HasPainData         bool                `json:"has_pain_data"`
	OverallPainAverage  float64             `json:"overall_pain_average"`
	BleedingDayCount    int                 `json:"bleeding_day_count"`
	MedicationAdherence float64             `json:"medication_adherence"`
	HasPatternInsight   bool                `json:"has_pattern_insight"`
	SymptomFrequencies  []SymptomFrequency  `json:"symptom_frequencies"`
	TreatmentStrip      []TreatmentStripDay `json:"treatment_strip"`
}

func BuildDerivedMetrics(logs []models.LogEntry) DerivedMetrics {
	day := TreatmentDay(logs)
	rolling, hasPainData := RollingPainAverage(logs)
	overall, _ := OverallPainAverage(logs)

	return DerivedMetrics{
		TotalEntries:        len(logs),
		TreatmentDay:        day,
		TreatmentPhase:      TreatmentPhaseForDay(day),
		TreatmentProgress:   TreatmentProgress(day),
		RollingPainAverage:  rolling,
		HasPainData:         hasPainData,
		OverallPainAverage:  overall,
		BleedingDayCount:    BleedingDayCount(logs),
		MedicationAdherence: MedicationAdherence(logs),
		HasPatternInsight:   len(logs) > PatternInsightMinLogs,
		SymptomFrequencies:  SymptomFrequencies(logs),
		TreatmentStrip:      TreatmentDayStrip(day),
	}
}

func TreatmentDay(logs []models.LogEntry) int {
	distinct := make(map[string]struct{}, len(logs))
	for _, entry := range logs {
		distinct[entry.DateISO] = struct{}{}
	}
	return len(distinct) + 1
}

func TreatmentPhaseForDay(day int) TreatmentPhase {
	switch {
	case day > StabilizationPhaseEnd:
		return PhaseControl
	case day > AdaptationPhaseDays:
		return PhaseStabilization
	default:
		return PhaseAdaptation
	}
}

// TreatmentProgress is the share of the first 90 days already covered.
func TreatmentProgress(day int) float64 {
	if day <= 0 {
		return 0
	}
	return math.Min(float64(day)/float64(StabilizationPhaseEnd), 1)
}

// RollingPainAverage averages the most recent entries of a collection sorted
// most recent first. ok is false when there is nothing to average.
func RollingPainAverage(logs []models.LogEntry) (float64, bool) {
	window := len(logs)
	if window > RollingPainWindow {
		window = RollingPainWindow
	}
	return painAverage(logs[:window])
}

func OverallPainAverage(logs []models.LogEntry) (float64, bool) {
	return painAverage(logs)
}

func painAverage(logs []models.LogEntry) (float64, bool) {
	if len(logs) == 0 {
		return 0, false
	}
	total := 0
	for _, entry := range logs {
		total += entry.PainLevel
	}
	return float64(total) / float64(len(logs)), true
}

func BleedingDayCount(logs []models.LogEntry) int {
	count := 0
	for _, entry := range logs {
		if entry.HasBleeding() {
			count++
		}
	}
	return count
}

func MedicationAdherence(logs []models.LogEntry) float64 {
	if len(logs) == 0 {
		return 0
	}
	taken := 0
	for _, entry := range logs {
		if entry.MedicationTaken {
			taken++
		}
	}
	return float64(taken) / float64(len(logs))
}

// ChartSeries returns exactly points values, most recent first. Missing days
// are zero-pain placeholders and never touch the collection.
func ChartSeries(logs []models.LogEntry, points int) []ChartPoint {
	if points <= 0 {
		points = DefaultChartPoints
	}

	series := make([]ChartPoint, 0, points)
	for index := 0; index < points; index++ {
		if index < len(logs) {
			series = append(series, ChartPoint{
				DateISO:   logs[index].DateISO,
				PainLevel: logs[index].PainLevel,
			})
			continue
		}
		series = append(series, ChartPoint{Placeholder: true})
	}
	return series
}

func SymptomFrequencies(logs []models.LogEntry) []SymptomFrequency {
	if len(logs) == 0 {
		return []SymptomFrequency{}
	}
	totalDays := len(logs)

	counts := make(map[string]int)
	for _, entry := range logs {
		for _, symptom := range entry.Symptoms {
			counts[symptom]++
		}
	}

	result := make([]SymptomFrequency, 0, len(counts))
	for name, count := range counts {
		result = append(result, SymptomFrequency{
			Name:      name,
			Count:     count,
			TotalDays: totalDays,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Count == result[j].Count {
			return result[i].Name < result[j].Name
		}
		return result[i].Count > result[j].Count
	})
	return result
}

// TreatmentDayStrip is the five-day header of the dashboard: two days back,
// the current day, then upcoming days.
func TreatmentDayStrip(current int) []TreatmentStripDay {
	start := current - 2
	if start < 1 {
		start = 1
	}

	strip := make([]TreatmentStripDay, 0, TreatmentStripLength)
	for offset := 0; offset < TreatmentStripLength; offset++ {
		day := start + offset
		state := StripStateFuture
		switch {
		case day < current:
			state = StripStatePast
		case day == current:
			state = StripStateToday
		}
		strip = append(strip, TreatmentStripDay{Day: day, State: state})
	}
	return strip
}
