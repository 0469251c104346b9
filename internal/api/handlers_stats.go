package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/endotrack/internal/services"
)

func (handler *Handler) GetMetricsSummary(c *fiber.Ctx) error {
	return c.JSON(services.BuildDerivedMetrics(handler.store.Logs()))
}

func (handler *Handler) GetChart(c *fiber.Ctx) error {
	points := services.DefaultChartPoints
	if raw := c.Query("points"); raw != "" {
		parsed := c.QueryInt("points", -1)
		if parsed < 0 || parsed > maxChartPoints {
			return apiError(c, fiber.StatusBadRequest, "invalid points")
		}
		points = parsed
	}

	return c.JSON(chartResponse{Points: services.ChartSeries(handler.store.Logs(), points)})
}
