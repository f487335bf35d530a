package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/voltvend/voltvend/internal/telemetry"
)

// RegisterTelemetryRoutes wires the consumption ingestion endpoint.
func RegisterTelemetryRoutes(router fiber.Router, handler *telemetry.Handler) {
	router.Post("/telemetry/consumption", handler.Record)
}
