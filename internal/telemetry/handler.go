package telemetry

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/voltvend/voltvend/internal/faults"
)

// Handler exposes the consumption ingestion endpoint.
type Handler struct {
	service *Service
}

// NewHandler builds a telemetry HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type recordRequest struct {
	MeterID   int64           `json:"meter_id"`
	Timestamp string          `json:"timestamp"`
	UnitsUsed decimal.Decimal `json:"units_used"`
}

// Record appends a consumption event.
func (h *Handler) Record(c *fiber.Ctx) error {
	var req recordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}

	ts, err := time.Parse(time.RFC3339, req.Timestamp)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "timestamp must be ISO-8601")
	}

	if err := h.service.Record(c.UserContext(), req.MeterID, ts, req.UnitsUsed); err != nil {
		return fiber.NewError(faults.HTTPStatus(err), faults.ClientMessage(err))
	}

	return c.Status(http.StatusAccepted).JSON(fiber.Map{"message": "consumption recorded"})
}
