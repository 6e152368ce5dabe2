// Package position implements the PositionKeeper (C6): applying fills to a
// position's signed quantity and cost basis, and recomputing market value
// and P&L from a current price.
package position

import (
	"jax-trading-assistant/internal/domain"
	"jax-trading-assistant/internal/money"
)

// ApplyFill updates position per the spec §4.4 transition table. fillQty
// must be > 0; side indicates the direction of the fill (not the resulting
// position side). Returns the updated position; position is not mutated in
// place so callers can decide when to persist.
func ApplyFill(pos domain.Position, fillQty money.Decimal, fillPrice money.Decimal, side domain.OrderSide) domain.Position {
	delta := signedQty(fillQty, side)
	out := pos

	if pos.Qty.IsZero() {
		// Opening from zero.
		out.Qty = delta
		out.AvgEntryPrice = fillPrice
		return out
	}

	sameDirection := sign(pos.Qty) == sign(delta)
	if sameDirection {
		// Adding to position: weighted-average cost basis.
		newQty := pos.Qty.Add(delta)
		totalCost := pos.Qty.Abs().Mul(pos.AvgEntryPrice).Add(fillQty.Mul(fillPrice))
		out.Qty = newQty
		out.AvgEntryPrice = totalCost.Div(newQty.Abs())
		return out
	}

	// Opposite direction: reducing, closing, or flipping.
	absDelta := delta.Abs()
	absQty := pos.Qty.Abs()
	switch {
	case absDelta.Equal(absQty):
		// Closes exactly.
		out.Qty = money.Zero
		out.AvgEntryPrice = money.Zero
	case absDelta.LessThan(absQty):
		// Reducing: FIFO-style, cost basis (avg price) unchanged.
		out.Qty = pos.Qty.Add(delta)
	default:
		// Flipping sign: the residual takes the fill price as its new
		// entry price.
		out.Qty = pos.Qty.Add(delta)
		out.AvgEntryPrice = fillPrice
	}
	return out
}

// UpdatePrices recomputes marketValue, unrealizedPnL, and
// unrealizedIntradayPnL from a current price (spec §4.4). lastDayPrice may
// be the zero value when unknown; ChangeToday/UnrealizedIntradayPnL then
// report zero.
func UpdatePrices(pos domain.Position, currentPrice money.Decimal, lastDayPrice money.Decimal) domain.Position {
	out := pos
	out.CurrentPrice = currentPrice
	out.LastDayPrice = lastDayPrice

	out.MarketValue = out.Qty.Mul(currentPrice)

	s := signDecimal(out.Qty)
	out.UnrealizedPnL = out.MarketValue.Sub(out.CostBasis().Mul(s))

	if lastDayPrice.IsZero() {
		out.UnrealizedIntradayPnL = money.Zero
	} else {
		out.UnrealizedIntradayPnL = out.Qty.Abs().Mul(currentPrice.Sub(lastDayPrice))
	}
	return out
}

func signedQty(qty money.Decimal, side domain.OrderSide) money.Decimal {
	if side == domain.OrderSideSell {
		return qty.Neg()
	}
	return qty
}

func sign(d money.Decimal) int {
	switch {
	case d.IsPositive():
		return 1
	case d.IsNegative():
		return -1
	default:
		return 0
	}
}

func signDecimal(d money.Decimal) money.Decimal {
	switch sign(d) {
	case 1:
		return money.New("1")
	case -1:
		return money.New("-1")
	default:
		return money.Zero
	}
}
