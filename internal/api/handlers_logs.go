package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/endotrack/internal/models"
	"github.com/terraincognita07/endotrack/internal/services"
	"go.uber.org/zap"
)

func (handler *Handler) GetLogs(c *fiber.Ctx) error {
	return c.JSON(handler.store.Logs())
}

func (handler *Handler) GetLog(c *fiber.Ctx) error {
	dateISO := strings.TrimSpace(c.Params("date"))
	if !services.IsValidDateISO(dateISO) {
		return apiError(c, fiber.StatusBadRequest, "invalid date")
	}

	entry, ok := handler.store.FindByDate(dateISO)
	if !ok {
		return apiError(c, fiber.StatusNotFound, "log not found")
	}
	return c.JSON(entry)
}

func (handler *Handler) CreateLog(c *fiber.Ctx) error {
	payload := logDraftPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid payload")
	}

	started := time.Now()
	entry, err := handler.store.Submit(c.UserContext(), payload.toDraft())
	if handler.metrics != nil {
		handler.metrics.ObserveSubmit(err, time.Since(started))
	}
	if err != nil {
		status, message := submitErrorStatus(err)
		if status >= fiber.StatusInternalServerError {
			handler.logger.Error("submit log failed", zap.Error(err))
		} else {
			handler.logger.Debug("submit log rejected", zap.Error(err))
		}
		return apiError(c, status, message)
	}

	handler.logger.Info("log saved", zap.String("date_iso", entry.DateISO), zap.Int("pain_level", entry.PainLevel))
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (payload logDraftPayload) toDraft() services.DraftEntry {
	medicationTaken := true
	if payload.MedicationTaken != nil {
		medicationTaken = *payload.MedicationTaken
	}
	return services.DraftEntry{
		Feeling:         models.Feeling(payload.Feeling),
		Symptoms:        payload.Symptoms,
		MedicationTaken: medicationTaken,
		SOSMedication:   payload.SOSMedication,
	}
}

func submitErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidDraft):
		return fiber.StatusBadRequest, "invalid log entry"
	case errors.Is(err, services.ErrStoreBusy):
		return fiber.StatusConflict, "another submission is in progress"
	case errors.Is(err, services.ErrPersistenceWriteFailed):
		return fiber.StatusServiceUnavailable, "failed to save log"
	default:
		return fiber.StatusInternalServerError, "failed to save log"
	}
}
