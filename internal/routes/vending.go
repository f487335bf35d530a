package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/voltvend/voltvend/internal/vending"
)

// RegisterVendingRoutes wires the token purchase endpoint.
func RegisterVendingRoutes(router fiber.Router, handler *vending.Handler) {
	router.Post("/vending/tokens", handler.BuyToken)
}
