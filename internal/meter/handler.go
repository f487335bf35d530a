package meter

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/voltvend/voltvend/internal/faults"
)

// Handler exposes meter HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a meter HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	CustomerID          int64  `json:"customer_id"`
	MeterNumber         string `json:"meter_number"`
	MeterType           string `json:"meter_type"`
	InstallationAddress string `json:"installation_address"`
}

type meterResponse struct {
	MeterID             int64  `json:"meter_id"`
	CustomerID          int64  `json:"customer_id"`
	MeterNumber         string `json:"meter_number"`
	MeterType           string `json:"meter_type"`
	InstallationAddress string `json:"installation_address"`
	CurrentBalance      string `json:"current_balance"`
}

// Register creates a meter for a customer.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}

	m, err := h.service.Register(c.UserContext(), RegisterInput{
		CustomerID:          req.CustomerID,
		MeterNumber:         req.MeterNumber,
		MeterType:           req.MeterType,
		InstallationAddress: req.InstallationAddress,
	})
	if err != nil {
		return fiber.NewError(faults.HTTPStatus(err), faults.ClientMessage(err))
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "meter registered",
		"meter":   toResponse(m),
	})
}

func toResponse(m Meter) meterResponse {
	return meterResponse{
		MeterID:             m.ID,
		CustomerID:          m.CustomerID,
		MeterNumber:         m.MeterNumber,
		MeterType:           m.MeterType,
		InstallationAddress: m.InstallationAddress,
		CurrentBalance:      m.CurrentBalance.StringFixed(4),
	}
}
