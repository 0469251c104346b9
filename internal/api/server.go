package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/terraincognita07/endotrack/internal/logging"
)

// NewApp wires the middleware stack and every route onto a fresh fiber app.
func NewApp(handler *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "EndoTrack",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "${status} ${method} ${path} ${latency}\n",
		TimeFormat: "15:04:05",
		Output:     logging.Writer(handler.logger.Named("http")),
	}))
	app.Use(compress.New())

	RegisterRoutes(app, handler)
	return app
}
