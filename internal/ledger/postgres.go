package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/voltvend/voltvend/internal/faults"
	"github.com/voltvend/voltvend/internal/tariff"
	"github.com/voltvend/voltvend/internal/token"
)

// PostgresLedger persists the ledger in PostgreSQL. Purchases and consumption
// events share one global sequence (ledger_seq) so the (timestamp, sequence)
// ordering is total across both entry kinds, and the token derives from it.
type PostgresLedger struct {
	db       *pgxpool.Pool
	tariffs  tariff.Repository
	tokens   *token.Generator
	pricing  Pricing
	attempts int
}

// NewPostgresLedger constructs a Postgres-backed ledger engine.
func NewPostgresLedger(db *pgxpool.Pool, tariffs tariff.Repository, tokens *token.Generator, pricing Pricing, attempts int) *PostgresLedger {
	if attempts < 1 {
		attempts = 1
	}
	return &PostgresLedger{db: db, tariffs: tariffs, tokens: tokens, pricing: pricing, attempts: attempts}
}

// Purchase runs the vend transaction. The SELECT ... FOR UPDATE on the meter
// row is the per-meter exclusive lock: concurrent purchases or consumption
// updates for the same meter queue behind it, while other meters proceed in
// parallel. Every exit before Commit rolls the whole unit back.
func (l *PostgresLedger) Purchase(ctx context.Context, input PurchaseInput) (Receipt, error) {
	if !input.AmountPaid.IsPositive() {
		return Receipt{}, faults.Validationf("amount must be positive")
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Receipt{}, faults.Store(err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var currentBalance decimal.Decimal
	err = tx.QueryRow(ctx, `SELECT current_balance FROM meters WHERE meter_id = $1 FOR UPDATE`,
		input.MeterID).Scan(&currentBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Receipt{}, faults.NotFoundf("meter %d", input.MeterID)
		}
		return Receipt{}, faults.Store(err)
	}

	trf, err := l.tariffs.Get(ctx, input.TariffID)
	if err != nil {
		return Receipt{}, err
	}

	units, netAmount, err := l.pricing.UnitsFor(input.AmountPaid, trf.Rate, trf.FixedCharge)
	if err != nil {
		return Receipt{}, err
	}

	now := time.Now().UTC()
	var minted string
	for attempt := 1; ; attempt++ {
		var seq int64
		if err := tx.QueryRow(ctx, `SELECT nextval('ledger_seq')`).Scan(&seq); err != nil {
			return Receipt{}, faults.Store(err)
		}

		minted, err = l.tokens.Generate(input.MeterID, seq)
		if err != nil {
			return Receipt{}, err
		}

		// ON CONFLICT DO NOTHING keeps the transaction alive on a token
		// collision so the insert can be retried with a fresh sequence.
		cmd, err := tx.Exec(ctx, `INSERT INTO purchases
            (meter_id, tariff_id, amount_paid, units_purchased, net_amount_used, token, purchase_date, sequence)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
            ON CONFLICT (token) DO NOTHING`,
			input.MeterID, input.TariffID, input.AmountPaid.Round(Scale), units, netAmount, minted, now, seq)
		if err != nil {
			return Receipt{}, faults.Postgres(err)
		}
		if cmd.RowsAffected() > 0 {
			break
		}
		if attempt >= l.attempts {
			return Receipt{}, faults.Conflictf("token collision persisted after %d attempts", attempt)
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE meters SET current_balance = current_balance + $1 WHERE meter_id = $2`,
		units, input.MeterID); err != nil {
		return Receipt{}, faults.Store(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Receipt{}, faults.Store(err)
	}

	return Receipt{
		MeterID:        input.MeterID,
		Token:          minted,
		UnitsPurchased: units,
		NetAmountUsed:  netAmount,
		Status:         StatusSuccess,
	}, nil
}

// RecordConsumption appends a debit and decrements the cached balance under
// the same meter row lock the purchase path takes. The balance is allowed to
// go non-positive; cutting supply is an external policy.
func (l *PostgresLedger) RecordConsumption(ctx context.Context, meterID int64, ts time.Time, units decimal.Decimal) (decimal.Decimal, error) {
	if units.IsNegative() {
		return decimal.Zero, faults.Validationf("units_used must be non-negative")
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return decimal.Zero, faults.Store(err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var currentBalance decimal.Decimal
	err = tx.QueryRow(ctx, `SELECT current_balance FROM meters WHERE meter_id = $1 FOR UPDATE`,
		meterID).Scan(&currentBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, faults.NotFoundf("meter %d", meterID)
		}
		return decimal.Zero, faults.Store(err)
	}

	var seq int64
	if err := tx.QueryRow(ctx, `SELECT nextval('ledger_seq')`).Scan(&seq); err != nil {
		return decimal.Zero, faults.Store(err)
	}

	if _, err := tx.Exec(ctx, `INSERT INTO consumption_events (meter_id, event_time, units_used, sequence)
        VALUES ($1, $2, $3, $4)`, meterID, ts.UTC(), units.Round(Scale), seq); err != nil {
		return decimal.Zero, faults.Postgres(err)
	}

	var newBalance decimal.Decimal
	err = tx.QueryRow(ctx, `UPDATE meters SET current_balance = current_balance - $1
        WHERE meter_id = $2 RETURNING current_balance`, units, meterID).Scan(&newBalance)
	if err != nil {
		return decimal.Zero, faults.Store(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, faults.Store(err)
	}
	return newBalance, nil
}

// Entries returns the raw credit and debit entries for a meter. Derivation
// (running balance, daily totals) stays in the application layer.
func (l *PostgresLedger) Entries(ctx context.Context, meterID int64) ([]Purchase, []ConsumptionEvent, error) {
	rows, err := l.db.Query(ctx, `SELECT purchase_id, meter_id, tariff_id, amount_paid,
        units_purchased, net_amount_used, token, purchase_date, sequence
        FROM purchases WHERE meter_id = $1 ORDER BY purchase_date, sequence`, meterID)
	if err != nil {
		return nil, nil, faults.Store(err)
	}
	defer rows.Close()

	var purchases []Purchase
	for rows.Next() {
		var p Purchase
		if err := rows.Scan(&p.ID, &p.MeterID, &p.TariffID, &p.AmountPaid, &p.UnitsPurchased,
			&p.NetAmountUsed, &p.Token, &p.Timestamp, &p.Sequence); err != nil {
			return nil, nil, faults.Store(err)
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, faults.Store(err)
	}

	eventRows, err := l.db.Query(ctx, `SELECT event_id, meter_id, event_time, units_used, sequence
        FROM consumption_events WHERE meter_id = $1 ORDER BY event_time, sequence`, meterID)
	if err != nil {
		return nil, nil, faults.Store(err)
	}
	defer eventRows.Close()

	var events []ConsumptionEvent
	for eventRows.Next() {
		var e ConsumptionEvent
		if err := eventRows.Scan(&e.ID, &e.MeterID, &e.Timestamp, &e.UnitsUsed, &e.Sequence); err != nil {
			return nil, nil, faults.Store(err)
		}
		events = append(events, e)
	}
	if err := eventRows.Err(); err != nil {
		return nil, nil, faults.Store(err)
	}

	return purchases, events, nil
}

// RecentPurchases returns a customer's purchases joined with meter and tariff
// metadata, newest first.
func (l *PostgresLedger) RecentPurchases(ctx context.Context, customerID int64, limit int) ([]PurchaseRecord, error) {
	rows, err := l.db.Query(ctx, `SELECT p.meter_id, m.meter_number, p.token, p.amount_paid,
        p.units_purchased, t.description, p.purchase_date, p.sequence
        FROM purchases p
        JOIN meters m ON m.meter_id = p.meter_id
        JOIN tariffs t ON t.tariff_id = p.tariff_id
        WHERE m.customer_id = $1
        ORDER BY p.purchase_date DESC, p.sequence DESC
        LIMIT $2`, customerID, limit)
	if err != nil {
		return nil, faults.Store(err)
	}
	defer rows.Close()

	var records []PurchaseRecord
	for rows.Next() {
		var rec PurchaseRecord
		if err := rows.Scan(&rec.MeterID, &rec.MeterNumber, &rec.Token, &rec.AmountPaid,
			&rec.UnitsPurchased, &rec.TariffDescription, &rec.PurchaseDate, &rec.Sequence); err != nil {
			return nil, faults.Store(err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, faults.Store(err)
	}
	return records, nil
}
