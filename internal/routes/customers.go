package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/voltvend/voltvend/internal/customer"
)

// RegisterCustomerRoutes wires customer registration.
func RegisterCustomerRoutes(router fiber.Router, handler *customer.Handler) {
	router.Post("/customers", handler.Register)
}
