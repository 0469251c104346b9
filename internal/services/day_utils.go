package services

import (
	"errors"
	"strings"
	"time"

	"github.com/terraincognita07/endotrack/internal/models"
)

var ErrInvalidDateISO = errors.New("invalid date")

func DateAtLocation(value time.Time, location *time.Location) time.Time {
	if location == nil {
		location = time.UTC
	}
	localized := value.In(location)
	year, month, day := localized.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, location)
}

func FormatDateISO(value time.Time, location *time.Location) string {
	return DateAtLocation(value, location).Format(models.DateISOLayout)
}

// ParseDateISO accepts only canonical YYYY-MM-DD values so the result can be
// used as a collection key without further normalization.
func ParseDateISO(raw string, location *time.Location) (time.Time, error) {
	if location == nil {
		location = time.UTC
	}
	trimmed := strings.TrimSpace(raw)
	parsed, err := time.ParseInLocation(models.DateISOLayout, trimmed, location)
	if err != nil {
		return time.Time{}, ErrInvalidDateISO
	}
	if parsed.Format(models.DateISOLayout) != trimmed {
		return time.Time{}, ErrInvalidDateISO
	}
	return parsed, nil
}

func IsValidDateISO(raw string) bool {
	_, err := ParseDateISO(raw, time.UTC)
	return err == nil
}
