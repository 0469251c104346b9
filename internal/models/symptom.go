package models

const (
	SymptomFine          = "Tudo bem"
	SymptomMildCramps    = "Cólicas Leves"
	SymptomSevereCramps  = "Cólicas Fortes"
	SymptomSpotting      = "Escape (Spotting)"
	SymptomHeavyFlow     = "Fluxo Intenso"
	SymptomLowerBackPain = "Dor Lombar"
	SymptomBloating      = "Inchaço"
	SymptomMigraine      = "Enxaqueca"
)

type BuiltinSymptom struct {
	Name string
	Key  string
}

// DefaultBuiltinSymptoms lists the symptom picks offered by the log form, in
// display order. Key is the translation suffix used by the i18n catalogs.
func DefaultBuiltinSymptoms() []BuiltinSymptom {
	return []BuiltinSymptom{
		{Name: SymptomFine, Key: "fine"},
		{Name: SymptomMildCramps, Key: "mild_cramps"},
		{Name: SymptomSevereCramps, Key: "severe_cramps"},
		{Name: SymptomSpotting, Key: "spotting"},
		{Name: SymptomHeavyFlow, Key: "heavy_flow"},
		{Name: SymptomLowerBackPain, Key: "lower_back_pain"},
		{Name: SymptomBloating, Key: "bloating"},
		{Name: SymptomMigraine, Key: "migraine"},
	}
}

func DefaultFeelings() []Feeling {
	return []Feeling{FeelingCramps, FeelingLowEnergy, FeelingIrritable, FeelingComfort}
}

func IsKnownFeeling(feeling Feeling) bool {
	if feeling == FeelingNone {
		return true
	}
	for _, known := range DefaultFeelings() {
		if feeling == known {
			return true
		}
	}
	return false
}
