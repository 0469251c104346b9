package services

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/terraincognita07/endotrack/internal/models"
)

const (
	MaxSymptomLabelLength  = 80
	MaxSOSMedicationLength = 200
)

var ErrInvalidDraft = errors.New("invalid draft entry")

// DraftEntry holds the raw picks collected by a log form before submit.
type DraftEntry struct {
	Feeling         models.Feeling
	Symptoms        []string
	MedicationTaken bool
	SOSMedication   string
}

func NormalizeDraft(draft DraftEntry) (DraftEntry, error) {
	feeling := models.Feeling(strings.TrimSpace(string(draft.Feeling)))
	if !models.IsKnownFeeling(feeling) {
		return draft, ErrInvalidDraft
	}

	symptoms, err := normalizeSymptomLabels(draft.Symptoms)
	if err != nil {
		return draft, err
	}

	return DraftEntry{
		Feeling:         feeling,
		Symptoms:        symptoms,
		MedicationTaken: draft.MedicationTaken,
		SOSMedication:   trimSOSMedication(draft.SOSMedication),
	}, nil
}

func normalizeSymptomLabels(labels []string) ([]string, error) {
	result := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		trimmed := strings.TrimSpace(label)
		if trimmed == "" || utf8.RuneCountInString(trimmed) > MaxSymptomLabelLength {
			return nil, ErrInvalidDraft
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}

	// "Tudo bem" only means something when nothing else was picked.
	if len(result) > 1 {
		filtered := make([]string, 0, len(result))
		for _, label := range result {
			if label != models.SymptomFine {
				filtered = append(filtered, label)
			}
		}
		result = filtered
	}
	return result, nil
}

func trimSOSMedication(value string) string {
	trimmed := strings.TrimSpace(value)
	if utf8.RuneCountInString(trimmed) <= MaxSOSMedicationLength {
		return trimmed
	}
	runes := []rune(trimmed)
	return strings.TrimSpace(string(runes[:MaxSOSMedicationLength]))
}

func DerivePainLevel(symptoms []string, feeling models.Feeling) int {
	switch {
	case containsLabel(symptoms, models.SymptomSevereCramps):
		return 8
	case containsLabel(symptoms, models.SymptomMildCramps):
		return 4
	case feeling == models.FeelingCramps:
		return 6
	default:
		return 0
	}
}

func DeriveBleeding(symptoms []string) models.Bleeding {
	switch {
	case containsLabel(symptoms, models.SymptomSpotting):
		return models.BleedingSpotting
	case containsLabel(symptoms, models.SymptomHeavyFlow):
		return models.BleedingHeavy
	default:
		return models.BleedingNone
	}
}

func containsLabel(values []string, needle string) bool {
	for _, value := range values {
		if value == needle {
			return true
		}
	}
	return false
}
