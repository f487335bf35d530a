package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DailyLimit caps the consumption series at the most recent distinct dates.
const DailyLimit = 30

// BalancePoint is one step of a meter's running balance: the balance as of
// and including the entry at (Timestamp, Sequence), not the present-moment
// cached balance.
type BalancePoint struct {
	Timestamp      time.Time
	Sequence       int64
	Delta          decimal.Decimal
	RunningBalance decimal.Decimal
}

// DailyUsage is the summed consumption for one calendar date (UTC).
type DailyUsage struct {
	Date       string
	TotalUnits decimal.Decimal
}

// RunningBalance merges purchases (positive delta) and consumption events
// (negative delta) into a single sequence strictly ordered by timestamp, ties
// broken by the write-time sequence number. The ordering is total, so the
// projection is deterministic regardless of how the entries were fetched.
func RunningBalance(purchases []Purchase, events []ConsumptionEvent) []BalancePoint {
	points := make([]BalancePoint, 0, len(purchases)+len(events))
	for _, p := range purchases {
		points = append(points, BalancePoint{Timestamp: p.Timestamp, Sequence: p.Sequence, Delta: p.UnitsPurchased})
	}
	for _, e := range events {
		points = append(points, BalancePoint{Timestamp: e.Timestamp, Sequence: e.Sequence, Delta: e.UnitsUsed.Neg()})
	}

	sort.Slice(points, func(i, j int) bool {
		if !points[i].Timestamp.Equal(points[j].Timestamp) {
			return points[i].Timestamp.Before(points[j].Timestamp)
		}
		return points[i].Sequence < points[j].Sequence
	})

	running := decimal.Zero
	for i := range points {
		running = running.Add(points[i].Delta)
		points[i].RunningBalance = running
	}
	return points
}

// DailyTotals groups consumption by calendar date (UTC), ascending, capped to
// the most recent limitDays distinct dates. The slice is recomputed fresh on
// every call; there is no cursor state to invalidate.
func DailyTotals(events []ConsumptionEvent, limitDays int) []DailyUsage {
	if limitDays <= 0 || limitDays > DailyLimit {
		limitDays = DailyLimit
	}

	totals := make(map[string]decimal.Decimal)
	for _, e := range events {
		date := e.Timestamp.UTC().Format(time.DateOnly)
		totals[date] = totals[date].Add(e.UnitsUsed)
	}

	dates := make([]string, 0, len(totals))
	for date := range totals {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	if len(dates) > limitDays {
		dates = dates[len(dates)-limitDays:]
	}

	usage := make([]DailyUsage, 0, len(dates))
	for _, date := range dates {
		usage = append(usage, DailyUsage{Date: date, TotalUnits: totals[date]})
	}
	return usage
}
