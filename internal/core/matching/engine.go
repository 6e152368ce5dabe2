// Package matching implements the MatchingEngine (C5): given an active order
// and a single bar for its symbol, decide whether and how the order fills.
// This is the hardest component in the system (spec §4.3) — polymorphic
// behavior over (type, side, tif) is encoded as small pure functions composed
// by Process, per the teacher's design note to avoid deep inheritance.
package matching

import (
	"time"

	"jax-trading-assistant/internal/core/policy"
	"jax-trading-assistant/internal/domain"
	"jax-trading-assistant/internal/money"
	"jax-trading-assistant/internal/simerr"
)

// Engine decides fills against a policy of tunable slippage/participation
// constants.
type Engine struct {
	policy *policy.Policy
}

// New creates an Engine backed by p.
func New(p *policy.Policy) *Engine {
	return &Engine{policy: p}
}

// Outcome is what Process computes for one order against one bar (or the
// absence of one). Status is always set; Fill is only meaningful when
// Fill.Filled is true.
type Outcome struct {
	Fill   domain.FillResult
	Status domain.OrderStatus
}

// unchanged reports the no-op outcome: order remains active, untouched.
func unchanged(current domain.OrderStatus) Outcome {
	return Outcome{Status: current}
}

// Process is the per-order, per-advancement entry point. now is the
// session's simNow after the clock has already advanced. bar is nil when no
// bar exists for the order's symbol at now (spec §4.3.6).
func (e *Engine) Process(o domain.Order, bar *domain.Bar, now time.Time) (Outcome, error) {
	if o.Status.Terminal() {
		return unchanged(o.Status), nil
	}

	if expired, status := e.checkTIFExpiry(o, now); expired {
		return Outcome{Status: status}, nil
	}

	if bar == nil {
		return e.processNoBar(o), nil
	}

	return e.processWithBar(o, *bar, now)
}

// checkTIFExpiry implements the day/gtc branches of spec §4.3.5 that run
// regardless of whether a bar is available.
func (e *Engine) checkTIFExpiry(o domain.Order, now time.Time) (bool, domain.OrderStatus) {
	switch o.TIF {
	case domain.TIFDay, domain.TIFOPG, domain.TIFCLS:
		if sameUTCDate(now, o.SubmittedAt) {
			return false, o.Status
		}
		if now.After(o.SubmittedAt) && !sameUTCDate(now, o.SubmittedAt) {
			return true, domain.OrderStatusExpired
		}
	case domain.TIFGTC:
		deadline := o.SubmittedAt.AddDate(0, 0, e.policy.GTCExpiryDays)
		if !now.Before(deadline) {
			return true, domain.OrderStatusExpired
		}
	}
	return false, o.Status
}

func sameUTCDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// processNoBar implements spec §4.3.6.
func (e *Engine) processNoBar(o domain.Order) Outcome {
	switch o.TIF {
	case domain.TIFIOC:
		return Outcome{Status: domain.OrderStatusCancelled}
	case domain.TIFFOK:
		return Outcome{Status: domain.OrderStatusRejected}
	default:
		return unchanged(o.Status)
	}
}

func (e *Engine) processWithBar(o domain.Order, bar domain.Bar, now time.Time) (Outcome, error) {
	if o.Type == domain.OrderTypeTrailingStop {
		return Outcome{}, simerr.New(simerr.KindNotImplemented, "trailing-stop fills are not implemented")
	}

	switch o.TIF {
	case domain.TIFFOK:
		return e.processFOK(o, bar), nil
	case domain.TIFIOC:
		return e.processIOC(o, bar), nil
	default: // day, gtc, opg, cls
		return e.processStandard(o, bar), nil
	}
}

// processStandard applies the price condition, execution price, slippage,
// and participation cap (spec §4.3.1–§4.3.4), leaving the order active
// (accepted/partiallyFilled) when the price condition isn't met.
func (e *Engine) processStandard(o domain.Order, bar domain.Bar) Outcome {
	if !e.canFill(o, bar) {
		return unchanged(o.Status)
	}

	price := e.finalPrice(o, bar)
	desired := e.desiredQty(o, price)
	if desired.IsZero() || !desired.IsPositive() {
		return unchanged(o.Status)
	}

	fillQty, partial := e.capByParticipation(desired, bar)
	status := domain.OrderStatusPartiallyFilled
	if !partial {
		status = domain.OrderStatusFilled
	}
	return Outcome{
		Fill: domain.FillResult{
			Filled:  true,
			Qty:     fillQty,
			Price:   price,
			Partial: partial,
		},
		Status: status,
	}
}

// processIOC implements spec §4.3.5's ioc branch.
func (e *Engine) processIOC(o domain.Order, bar domain.Bar) Outcome {
	if !e.canFill(o, bar) {
		return Outcome{Status: domain.OrderStatusCancelled}
	}

	price := e.finalPrice(o, bar)
	desired := e.desiredQty(o, price)
	if desired.IsZero() || !desired.IsPositive() {
		return Outcome{Status: domain.OrderStatusCancelled}
	}

	fillQty, partial := e.capByParticipation(desired, bar)
	if !partial {
		return Outcome{
			Fill:   domain.FillResult{Filled: true, Qty: fillQty, Price: price, Partial: false},
			Status: domain.OrderStatusFilled,
		}
	}
	// Partial fill now; the unfilled remainder is cancelled rather than
	// left active.
	return Outcome{
		Fill:   domain.FillResult{Filled: true, Qty: fillQty, Price: price, Partial: true},
		Status: domain.OrderStatusCancelled,
	}
}

// processFOK implements spec §4.3.5's fok branch: the full remaining
// quantity must be fillable in this single bar or the order is rejected
// with no fill at all.
func (e *Engine) processFOK(o domain.Order, bar domain.Bar) Outcome {
	if !e.canFill(o, bar) {
		return Outcome{Status: domain.OrderStatusRejected}
	}
	price := e.finalPrice(o, bar)
	desired := e.desiredQty(o, price)
	if desired.IsZero() || !desired.IsPositive() {
		return Outcome{Status: domain.OrderStatusRejected}
	}
	maxFill := e.maxFillQty(bar)
	if maxFill.IsPositive() && desired.GreaterThan(maxFill) {
		return Outcome{Status: domain.OrderStatusRejected}
	}
	return Outcome{
		Fill:   domain.FillResult{Filled: true, Qty: desired, Price: price, Partial: false},
		Status: domain.OrderStatusFilled,
	}
}

// canFill implements the spec §4.3.1 price-condition table.
func (e *Engine) canFill(o domain.Order, bar domain.Bar) bool {
	switch o.Type {
	case domain.OrderTypeMarket:
		return true
	case domain.OrderTypeLimit:
		if o.LimitPrice == nil {
			return false
		}
		if o.IsBuy() {
			return bar.Low.LessThanOrEqual(*o.LimitPrice)
		}
		return bar.High.GreaterThanOrEqual(*o.LimitPrice)
	case domain.OrderTypeStop:
		if o.StopPrice == nil {
			return false
		}
		if o.IsBuy() {
			return bar.High.GreaterThanOrEqual(*o.StopPrice)
		}
		return bar.Low.LessThanOrEqual(*o.StopPrice)
	case domain.OrderTypeStopLimit:
		if o.StopPrice == nil || o.LimitPrice == nil {
			return false
		}
		if o.IsBuy() {
			return bar.High.GreaterThanOrEqual(*o.StopPrice) && bar.Low.LessThanOrEqual(*o.LimitPrice)
		}
		return bar.Low.LessThanOrEqual(*o.StopPrice) && bar.High.GreaterThanOrEqual(*o.LimitPrice)
	default:
		return false
	}
}

// theoreticalPrice implements the spec §4.3.2 execution-price table.
func (e *Engine) theoreticalPrice(o domain.Order, bar domain.Bar) money.Decimal {
	switch o.Type {
	case domain.OrderTypeLimit, domain.OrderTypeStopLimit:
		return *o.LimitPrice
	case domain.OrderTypeStop:
		if o.IsBuy() {
			return money.Max(bar.Open, *o.StopPrice)
		}
		return money.Min(bar.Open, *o.StopPrice)
	default: // market
		return bar.Open
	}
}

// finalPrice applies slippage (spec §4.3.3) on top of the theoretical price.
// Limit and stop-limit fills never cross their limit price.
func (e *Engine) finalPrice(o domain.Order, bar domain.Bar) money.Decimal {
	price := e.theoreticalPrice(o, bar)
	rng := bar.Range()
	if !rng.IsPositive() {
		return price
	}
	rate := money.New(money.FromFloatString(e.policy.SlippageRate))
	slip := rng.Mul(rate)
	limited := (o.Type == domain.OrderTypeLimit || o.Type == domain.OrderTypeStopLimit) && o.LimitPrice != nil
	if o.IsBuy() {
		p := money.Min(bar.High, price.Add(slip))
		if limited {
			p = money.Min(p, *o.LimitPrice)
		}
		return p
	}
	p := money.Max(bar.Low, price.Sub(slip))
	if limited {
		p = money.Max(p, *o.LimitPrice)
	}
	return p
}

// maxFillQty implements the spec §4.3.4 participation cap: 0.01 * volume.
func (e *Engine) maxFillQty(bar domain.Bar) money.Decimal {
	rate := money.New(money.FromFloatString(e.policy.ParticipationRate))
	return bar.Volume.Mul(rate)
}

// capByParticipation caps desired by the bar's participation limit,
// reporting whether the cap was binding (a partial fill).
func (e *Engine) capByParticipation(desired money.Decimal, bar domain.Bar) (qty money.Decimal, partial bool) {
	maxFill := e.maxFillQty(bar)
	if maxFill.IsPositive() && desired.GreaterThan(maxFill) {
		return maxFill, true
	}
	return desired, false
}

// desiredQty returns the quantity this order would like to fill against
// price: the order's remaining share quantity, or for notional market
// orders, notional / price converted to shares.
func (e *Engine) desiredQty(o domain.Order, price money.Decimal) money.Decimal {
	if o.Qty != nil {
		return money.QuantizeQty(o.RemainingQty())
	}
	if o.Notional != nil && price.IsPositive() {
		remainingNotional := o.Notional.Sub(o.FilledAvgPrice.Mul(o.FilledQty))
		return money.QuantizeQty(remainingNotional.Div(price))
	}
	return money.Zero
}
