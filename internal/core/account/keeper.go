// Package account implements the AccountKeeper (C7): cash movement on fills
// and the cash/buying-power/margin recalculation spec §4.6 describes.
package account

import (
	"jax-trading-assistant/internal/core/policy"
	"jax-trading-assistant/internal/domain"
	"jax-trading-assistant/internal/money"
)

// ApplyFill moves cash for one fill: a buy of qty shares at price debits
// cash by qty*price; a sell credits it.
func ApplyFill(acct domain.Account, qty, price money.Decimal, side domain.OrderSide) domain.Account {
	out := acct
	notional := qty.Mul(price)
	if side == domain.OrderSideBuy {
		out.Cash = out.Cash.Sub(notional)
	} else {
		out.Cash = out.Cash.Add(notional)
	}
	return out
}

// ShortSellRequirement computes the margin requirement for opening or
// adding to a short position: max(limitPrice ?? 0, 1.03 * currentAsk) * qty
// (spec §4.6). marginRate is the configured short-sale ask margin (1.03 by
// default).
func ShortSellRequirement(limitPrice *money.Decimal, currentAsk money.Decimal, qty money.Decimal, marginRate float64) money.Decimal {
	floor := money.Zero
	if limitPrice != nil {
		floor = *limitPrice
	}
	askFloor := currentAsk.Mul(money.New(money.FromFloatString(marginRate)))
	return money.Max(floor, askFloor).Mul(qty)
}

// Totals carries the aggregate position values Recalculate needs, computed
// by the caller from the full set of a session's positions at a known
// synchronization point (no back-pointer bookkeeping, per the no-cyclic-
// references design note).
type Totals struct {
	LongMarketValue  money.Decimal
	ShortMarketValue money.Decimal // reported as a positive magnitude
}

// Recalculate refreshes every derived account field from cash and the
// current position totals (spec §4.6).
func Recalculate(acct domain.Account, totals Totals, p *policy.Policy) domain.Account {
	out := acct
	out.LongMarketValue = totals.LongMarketValue
	out.ShortMarketValue = totals.ShortMarketValue

	out.Equity = out.Cash.Add(out.LongMarketValue).Sub(out.ShortMarketValue.Abs())
	out.LastEquity = acct.Equity

	// Simplified cash account: buying power equals cash.
	out.BuyingPower = money.Max(money.Zero, out.Cash)

	if out.PatternDayTrader {
		headroom := out.Equity.Sub(out.MaintenanceMargin)
		out.DayTradingBuyingPower = money.Max(money.Zero, headroom.Mul(money.New("4")))
	} else {
		out.DayTradingBuyingPower = out.BuyingPower
	}

	out.CashWithdrawable = money.Max(money.Zero, out.Cash.Sub(out.InitialMargin))

	return out
}

// MeetsPdtMinimum reports whether equity clears the configured PDT minimum
// (spec §4.6, 4.7; default $25,000).
func MeetsPdtMinimum(acct domain.Account, p *policy.Policy) bool {
	return acct.Equity.GreaterThanOrEqual(p.PdtMinEquityDecimal())
}
