package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	app.Get("/favicon.ico", sendNoContent)
	if handler.gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(handler.gatherer, promhttp.HandlerOpts{})))
	}

	registerAPIRoutes(app, handler)
}

func registerAPIRoutes(app *fiber.App, handler *Handler) {
	api := app.Group("/api", handler.LanguageMiddleware)

	api.Get("/status", handler.GetStatus)
	api.Get("/catalog", handler.GetCatalog)

	logs := api.Group("/logs")
	logs.Get("", handler.GetLogs)
	logs.Post("", handler.CreateLog)
	logs.Get("/:date", handler.GetLog)

	metrics := api.Group("/metrics")
	metrics.Get("/summary", handler.GetMetricsSummary)
	metrics.Get("/chart", handler.GetChart)

	api.Get("/calendar", handler.GetCalendar)

	export := api.Group("/export")
	export.Get("/summary", handler.ExportSummary)
	export.Get("/share", handler.ExportShare)
	export.Get("/csv", handler.ExportCSV)
	export.Get("/json", handler.ExportJSON)
}

func sendNoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}
