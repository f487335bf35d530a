package routes

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/voltvend/voltvend/internal/config"
	"github.com/voltvend/voltvend/internal/customer"
	"github.com/voltvend/voltvend/internal/dashboard"
	"github.com/voltvend/voltvend/internal/ledger"
	"github.com/voltvend/voltvend/internal/meter"
	"github.com/voltvend/voltvend/internal/middleware"
	"github.com/voltvend/voltvend/internal/notification"
	"github.com/voltvend/voltvend/internal/tariff"
	"github.com/voltvend/voltvend/internal/telemetry"
	"github.com/voltvend/voltvend/internal/token"
	"github.com/voltvend/voltvend/internal/vending"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.Env)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.Env)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	pricing := ledger.NewPricing(d.Cfg)
	tokens := token.NewGenerator()

	var (
		customerRepo  customer.Repository
		tariffRepo    tariff.Repository
		meterRepo     meter.Repository
		ledgerBackend ledger.Ledger
	)
	if d.DB != nil {
		customerRepo = customer.NewPostgresRepository(d.DB)
		tariffRepo = tariff.NewPostgresRepository(d.DB)
		meterRepo = meter.NewPostgresRepository(d.DB)
		ledgerBackend = ledger.NewPostgresLedger(d.DB, tariffRepo, tokens, pricing, d.Cfg.TokenAttempts)
	} else {
		customerRepo = customer.NewMemoryRepository()
		tariffRepo = tariff.NewMemoryRepository(devTariffs()...)
		memMeters := meter.NewMemoryRepository()
		meterRepo = memMeters
		ledgerBackend = ledger.NewInMemory(tariffRepo, memMeters, tokens, pricing, d.Cfg.TokenAttempts)
	}

	customerSvc := customer.NewService(customerRepo)
	meterSvc := meter.NewService(meterRepo)
	notifier := notification.NewLoggerNotifier(d.Logger)
	vendingSvc := vending.NewService(ledgerBackend, meterSvc, notifier)
	telemetrySvc := telemetry.NewService(ledgerBackend, meterSvc, notifier)
	dashboardSvc := dashboard.NewService(customerSvc, meterSvc, ledgerBackend)

	api := app.Group("/api/v1")
	RegisterCustomerRoutes(api, customer.NewHandler(customerSvc))
	RegisterMeterRoutes(api, meter.NewHandler(meterSvc))
	RegisterVendingRoutes(api, vending.NewHandler(vendingSvc))
	RegisterTelemetryRoutes(api, telemetry.NewHandler(telemetrySvc))
	RegisterDashboardRoutes(api, dashboard.NewHandler(dashboardSvc))

	return nil
}

// devTariffs seeds the in-memory tariff table so a dev instance can vend
// without a database.
func devTariffs() []tariff.Tariff {
	return []tariff.Tariff{
		{ID: 1, Rate: dec("50"), FixedCharge: dec("100"), Description: "Residential standard", Active: true},
		{ID: 2, Rate: dec("42.5"), FixedCharge: dec("250"), Description: "Commercial flat", Active: true},
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
