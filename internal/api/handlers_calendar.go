package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/endotrack/internal/services"
)

const calendarMonthLayout = "2006-01"

func (handler *Handler) GetCalendar(c *fiber.Ctx) error {
	now := handler.clock.Now().In(handler.location)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	if raw := strings.TrimSpace(c.Query("month")); raw != "" {
		parsed, err := time.Parse(calendarMonthLayout, raw)
		if err != nil {
			return apiError(c, fiber.StatusBadRequest, "invalid month")
		}
		month = parsed
	}

	selected := strings.TrimSpace(c.Query("date"))
	if selected != "" && !services.IsValidDateISO(selected) {
		return apiError(c, fiber.StatusBadRequest, "invalid date")
	}

	return c.JSON(services.BuildCalendarMonth(month, handler.store.Logs(), selected, handler.clock.Today()))
}
