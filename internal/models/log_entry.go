package models

import "time"

type Bleeding string

const (
	BleedingNone     Bleeding = "none"
	BleedingSpotting Bleeding = "spotting"
	BleedingHeavy    Bleeding = "heavy"
)

type Feeling string

const (
	FeelingNone      Feeling = ""
	FeelingCramps    Feeling = "cramps"
	FeelingLowEnergy Feeling = "low_energy"
	FeelingIrritable Feeling = "irritable"
	FeelingComfort   Feeling = "comfort"
)

const DateISOLayout = "2006-01-02"

// LogEntry is the single record kept for one calendar day.
type LogEntry struct {
	ID              string    `gorm:"primaryKey" json:"id"`
	DateISO         string    `gorm:"column:date_iso;not null;uniqueIndex:uidx_log_entries_date" json:"date_iso"`
	PainLevel       int       `gorm:"not null;default:0" json:"pain_level"`
	Bleeding        Bleeding  `gorm:"not null;default:none" json:"bleeding"`
	MedicationTaken bool      `gorm:"not null;default:false" json:"medication_taken"`
	Feeling         Feeling   `gorm:"not null;default:''" json:"feeling,omitempty"`
	Symptoms        []string  `gorm:"serializer:json" json:"symptoms"`
	SOSMedication   string    `gorm:"column:sos_medication;not null;default:''" json:"sos_medication,omitempty"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
}

func (LogEntry) TableName() string {
	return "log_entries"
}

func (entry LogEntry) HasBleeding() bool {
	return entry.Bleeding != "" && entry.Bleeding != BleedingNone
}
