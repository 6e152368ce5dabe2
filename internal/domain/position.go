package domain

import (
	"time"

	"jax-trading-assistant/internal/money"
)

// Position is a signed holding in one symbol within an account. Qty >= 0 is
// long, Qty < 0 is short.
type Position struct {
	ID        string
	SessionID string
	AccountID string
	Symbol    string

	Qty           money.Decimal
	AvgEntryPrice money.Decimal
	CurrentPrice  money.Decimal
	LastDayPrice  money.Decimal

	MarketValue           money.Decimal
	UnrealizedPnL         money.Decimal
	UnrealizedIntradayPnL money.Decimal

	OpenedAt    time.Time
	LastUpdated time.Time
}

// CostBasis returns |qty| * avgEntryPrice.
func (p Position) CostBasis() money.Decimal {
	return p.Qty.Abs().Mul(p.AvgEntryPrice)
}

// Side returns "long", "short", or "flat".
func (p Position) Side() string {
	switch {
	case p.Qty.IsPositive():
		return "long"
	case p.Qty.IsNegative():
		return "short"
	default:
		return "flat"
	}
}

// ChangeToday returns (currentPrice - lastDayPrice) / lastDayPrice, or zero
// when lastDayPrice is zero.
func (p Position) ChangeToday() money.Decimal {
	if p.LastDayPrice.IsZero() {
		return money.Zero
	}
	return p.CurrentPrice.Sub(p.LastDayPrice).Div(p.LastDayPrice)
}

// UnrealizedPnLPercent returns unrealizedPnL / costBasis, or zero when the
// cost basis is zero.
func (p Position) UnrealizedPnLPercent() money.Decimal {
	basis := p.CostBasis()
	if basis.IsZero() {
		return money.Zero
	}
	return p.UnrealizedPnL.Div(basis)
}
