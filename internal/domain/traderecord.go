package domain

import (
	"time"

	"jax-trading-assistant/internal/money"
)

// TradeRecord is a single fill kept by the DayTradeTracker to detect
// same-day round trips. It is internal bookkeeping, not a wire type.
type TradeRecord struct {
	AccountID string
	Symbol    string
	Side      OrderSide
	Qty       money.Decimal
	T         time.Time
}

// Date returns the UTC calendar date of the trade, used to group records
// into (account, symbol, day) buckets.
func (r TradeRecord) Date() time.Time {
	y, m, d := r.T.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
