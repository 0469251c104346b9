package db

import (
	"context"
	"fmt"

	"github.com/terraincognita07/endotrack/internal/models"
	"gorm.io/gorm"
)

type LogEntryRepository struct {
	database *gorm.DB
}

func NewLogEntryRepository(database *gorm.DB) *LogEntryRepository {
	return &LogEntryRepository{database: database}
}

func (repo *LogEntryRepository) Load(ctx context.Context) ([]models.LogEntry, error) {
	entries := make([]models.LogEntry, 0)
	if err := repo.database.WithContext(ctx).
		Order("created_at DESC, date_iso DESC, id DESC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("load log entries: %w", err)
	}
	for index := range entries {
		if entries[index].Symptoms == nil {
			entries[index].Symptoms = []string{}
		}
	}
	return entries, nil
}

// Save replaces the row for entry.DateISO. The collection argument is not
// needed because the table is keyed by date.
func (repo *LogEntryRepository) Save(ctx context.Context, entry models.LogEntry, _ []models.LogEntry) error {
	return repo.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("date_iso = ?", entry.DateISO).Delete(&models.LogEntry{}).Error; err != nil {
			return fmt.Errorf("delete log entry for %s: %w", entry.DateISO, err)
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("insert log entry for %s: %w", entry.DateISO, err)
		}
		return nil
	})
}
