package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/voltvend/voltvend/internal/meter"
)

// RegisterMeterRoutes wires meter registration.
func RegisterMeterRoutes(router fiber.Router, handler *meter.Handler) {
	router.Post("/meters", handler.Register)
}
