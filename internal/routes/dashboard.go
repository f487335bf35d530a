package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/voltvend/voltvend/internal/dashboard"
)

// RegisterDashboardRoutes wires the reporting endpoints.
func RegisterDashboardRoutes(router fiber.Router, handler *dashboard.Handler) {
	router.Get("/dashboard/:customerId", handler.Overview)
	router.Get("/meters/:meterId/consumption", handler.ConsumptionSeries)
}
