package customer

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/voltvend/voltvend/internal/faults"
)

// Handler exposes customer HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a customer HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Register creates a customer profile.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}

	cust, err := h.service.Register(c.UserContext(), RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		return fiber.NewError(faults.HTTPStatus(err), faults.ClientMessage(err))
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message":     "customer registered",
		"customer_id": cust.ID,
	})
}
