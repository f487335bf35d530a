package dashboard

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/voltvend/voltvend/internal/faults"
)

// Handler exposes the reporting endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a dashboard HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type meterResponse struct {
	MeterID             int64  `json:"meter_id"`
	MeterNumber         string `json:"meter_number"`
	MeterType           string `json:"meter_type"`
	InstallationAddress string `json:"installation_address"`
	CurrentBalance      string `json:"current_balance"`
}

type transactionResponse struct {
	PurchaseDate      string `json:"purchase_date"`
	MeterNumber       string `json:"meter_number"`
	GeneratedToken    string `json:"generated_token"`
	AmountPaid        string `json:"amount_paid"`
	UnitsPurchased    string `json:"units_purchased"`
	LiveMeterBalance  string `json:"live_meter_balance"`
	TariffDescription string `json:"tariff_description"`
}

type dailyUsageResponse struct {
	Date       string `json:"date"`
	TotalUnits string `json:"total_units"`
}

// Overview returns the customer's meters and recent purchase history.
func (h *Handler) Overview(c *fiber.Ctx) error {
	customerID, err := strconv.ParseInt(c.Params("customerId"), 10, 64)
	if err != nil || customerID <= 0 {
		return fiber.NewError(http.StatusBadRequest, "invalid customer id")
	}

	overview, err := h.service.GetOverview(c.UserContext(), customerID)
	if err != nil {
		return fiber.NewError(faults.HTTPStatus(err), faults.ClientMessage(err))
	}

	meters := make([]meterResponse, 0, len(overview.Meters))
	for _, m := range overview.Meters {
		meters = append(meters, meterResponse{
			MeterID:             m.ID,
			MeterNumber:         m.MeterNumber,
			MeterType:           m.MeterType,
			InstallationAddress: m.InstallationAddress,
			CurrentBalance:      m.CurrentBalance.StringFixed(4),
		})
	}

	transactions := make([]transactionResponse, 0, len(overview.RecentTransactions))
	for _, t := range overview.RecentTransactions {
		transactions = append(transactions, transactionResponse{
			PurchaseDate:      t.PurchaseDate.UTC().Format(time.RFC3339),
			MeterNumber:       t.MeterNumber,
			GeneratedToken:    t.Token,
			AmountPaid:        t.AmountPaid.StringFixed(4),
			UnitsPurchased:    t.UnitsPurchased.StringFixed(4),
			LiveMeterBalance:  t.LiveMeterBalance.StringFixed(4),
			TariffDescription: t.TariffDescription,
		})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"meters":              meters,
		"recent_transactions": transactions,
	})
}

// ConsumptionSeries returns daily usage totals for a meter.
func (h *Handler) ConsumptionSeries(c *fiber.Ctx) error {
	meterID, err := strconv.ParseInt(c.Params("meterId"), 10, 64)
	if err != nil || meterID <= 0 {
		return fiber.NewError(http.StatusBadRequest, "invalid meter id")
	}

	usage, err := h.service.ConsumptionSeries(c.UserContext(), meterID)
	if err != nil {
		return fiber.NewError(faults.HTTPStatus(err), faults.ClientMessage(err))
	}

	series := make([]dailyUsageResponse, 0, len(usage))
	for _, day := range usage {
		series = append(series, dailyUsageResponse{
			Date:       day.Date,
			TotalUnits: day.TotalUnits.StringFixed(4),
		})
	}

	return c.Status(http.StatusOK).JSON(series)
}
