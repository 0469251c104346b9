package services

import (
	"time"

	"github.com/terraincognita07/endotrack/internal/models"
)

type CalendarDayState struct {
	Blank      bool            `json:"blank"`
	DateString string          `json:"date_iso,omitempty"`
	Day        int             `json:"day,omitempty"`
	IsToday    bool            `json:"is_today"`
	IsSelected bool            `json:"is_selected"`
	HasLog     bool            `json:"has_log"`
	PainLevel  int             `json:"pain_level"`
	Bleeding   models.Bleeding `json:"bleeding,omitempty"`
}

type CalendarMonth struct {
	Month       string             `json:"month"`
	Days        []CalendarDayState `json:"days"`
	SelectedLog *models.LogEntry   `json:"selected_log"`
}

// BuildCalendarMonth lays the month out on a Monday-first grid. Leading cells
// before the first weekday are blank.
func BuildCalendarMonth(month time.Time, logs []models.LogEntry, selectedDateISO string, todayISO string) CalendarMonth {
	monthStart := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)
	startOffset := (int(monthStart.Weekday()) + 6) % 7

	latestLogByDate := make(map[string]models.LogEntry, len(logs))
	for _, logEntry := range logs {
		existing, exists := latestLogByDate[logEntry.DateISO]
		if !exists || isNewerLogEntry(logEntry, existing) {
			latestLogByDate[logEntry.DateISO] = logEntry
		}
	}

	days := make([]CalendarDayState, 0, startOffset+monthEnd.Day())
	for index := 0; index < startOffset; index++ {
		days = append(days, CalendarDayState{Blank: true})
	}

	for day := monthStart; !day.After(monthEnd); day = day.AddDate(0, 0, 1) {
		key := day.Format(models.DateISOLayout)
		entry, hasEntry := latestLogByDate[key]
		state := CalendarDayState{
			DateString: key,
			Day:        day.Day(),
			IsToday:    key == todayISO,
			IsSelected: key == selectedDateISO,
			HasLog:     hasEntry,
		}
		if hasEntry {
			state.PainLevel = entry.PainLevel
			state.Bleeding = entry.Bleeding
		}
		days = append(days, state)
	}

	result := CalendarMonth{
		Month: monthStart.Format("2006-01"),
		Days:  days,
	}
	if entry, ok := latestLogByDate[selectedDateISO]; ok {
		selected := cloneLogEntry(entry)
		result.SelectedLog = &selected
	}
	return result
}
