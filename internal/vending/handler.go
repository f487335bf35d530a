package vending

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/voltvend/voltvend/internal/faults"
)

// Handler exposes the token purchase endpoint.
type Handler struct {
	service *Service
}

// NewHandler builds a vending HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type buyRequest struct {
	MeterID  int64           `json:"meter_id"`
	TariffID int64           `json:"tariff_id"`
	Amount   decimal.Decimal `json:"amount"`
}

type receiptResponse struct {
	Status         string `json:"status"`
	MeterID        int64  `json:"meter_id"`
	Token          string `json:"token"`
	UnitsPurchased string `json:"units_purchased"`
	NetAmountUsed  string `json:"net_amount_used"`
}

// BuyToken handles a purchase request and returns the receipt.
func (h *Handler) BuyToken(c *fiber.Ctx) error {
	var req buyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}

	receipt, err := h.service.BuyToken(c.UserContext(), BuyInput{
		MeterID:  req.MeterID,
		TariffID: req.TariffID,
		Amount:   req.Amount,
	})
	if err != nil {
		return fiber.NewError(faults.HTTPStatus(err), faults.ClientMessage(err))
	}

	return c.Status(http.StatusOK).JSON(receiptResponse{
		Status:         receipt.Status,
		MeterID:        receipt.MeterID,
		Token:          receipt.Token,
		UnitsPurchased: receipt.UnitsPurchased.StringFixed(4),
		NetAmountUsed:  receipt.NetAmountUsed.StringFixed(4),
	})
}
