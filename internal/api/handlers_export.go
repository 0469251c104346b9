package api

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/endotrack/internal/services"
	"go.uber.org/zap"
)

func (handler *Handler) ExportSummary(c *fiber.Ctx) error {
	c.Type("txt", "utf-8")
	return c.SendString(handler.exportService.ReportText(currentLanguage(c)))
}

func (handler *Handler) ExportShare(c *fiber.Ctx) error {
	return c.JSON(shareResponse{URL: handler.exportService.ShareURL(currentLanguage(c))})
}

func (handler *Handler) ExportCSV(c *fiber.Ctx) error {
	var output bytes.Buffer
	writer := csv.NewWriter(&output)
	if err := writer.Write(services.ExportCSVHeaders); err != nil {
		return handler.exportFailed(c, err)
	}
	for _, row := range handler.exportService.BuildCSVRows() {
		if err := writer.Write(row.Columns()); err != nil {
			return handler.exportFailed(c, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return handler.exportFailed(c, err)
	}

	setExportAttachmentHeaders(c, "text/csv", buildExportFilename(handler.clock.Now().In(handler.location), "csv"))
	return c.Send(output.Bytes())
}

func (handler *Handler) ExportJSON(c *fiber.Ctx) error {
	now := handler.clock.Now().In(handler.location)
	payload := fiber.Map{
		"exported_at": now.Format(time.RFC3339),
		"summary":     handler.exportService.BuildSummary(),
		"entries":     handler.exportService.BuildJSONEntries(),
	}

	serialized, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return handler.exportFailed(c, err)
	}

	setExportAttachmentHeaders(c, fiber.MIMEApplicationJSON, buildExportFilename(now, "json"))
	return c.Send(serialized)
}

func (handler *Handler) exportFailed(c *fiber.Ctx, err error) error {
	handler.logger.Error("build export failed", zap.Error(err))
	return apiError(c, fiber.StatusInternalServerError, "failed to build export")
}

func buildExportFilename(now time.Time, extension string) string {
	return fmt.Sprintf("endotrack-export-%s.%s", now.Format("2006-01-02"), extension)
}

func setExportAttachmentHeaders(c *fiber.Ctx, contentType string, filename string) {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", filename))
}
