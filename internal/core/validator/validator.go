// Package validator implements the static, synchronous admission checks
// spec §4.2 runs on order submission (C4). Every rule runs regardless of
// whether an earlier rule already failed — callers get the complete set of
// violations in one response, with the first field highlighted, mirroring
// the teacher's libs/risk.Enforcer/Violations pattern.
package validator

import (
	"jax-trading-assistant/internal/core/policy"
	"jax-trading-assistant/internal/domain"
	"jax-trading-assistant/internal/money"
	"jax-trading-assistant/internal/simerr"
)

// Input bundles everything the validator needs to judge one order. It is
// assembled by the session controller from the order under submission plus
// the account and current market snapshot.
type Input struct {
	Order domain.Order

	// CurrentPrice is the latest known trade price for the symbol, if any.
	CurrentPrice *money.Decimal

	// MarketOpen reflects simclock.IsMarketOpen at the order's submission
	// time.
	MarketOpen bool

	BuyingPower money.Decimal
}

// Validator runs the admission rules against a policy of tunable constants.
type Validator struct {
	policy *policy.Policy
}

// New creates a Validator backed by p. Pass policy.Default() when no
// operator override is configured.
func New(p *policy.Policy) *Validator {
	return &Validator{policy: p}
}

// Validate runs every rule and returns the accumulated violations. An empty
// result means the order is admissible.
func (v *Validator) Validate(in Input) simerr.Errors {
	var errs simerr.Errors

	errs = append(errs, v.checkPricePrecision(in.Order)...)
	errs = append(errs, v.checkOrderTypeRequirements(in.Order)...)
	errs = append(errs, v.checkStopDirection(in.Order, in.CurrentPrice)...)
	errs = append(errs, v.checkExtendedHours(in.Order)...)
	errs = append(errs, v.checkTIFMarketState(in.Order, in.MarketOpen)...)
	errs = append(errs, v.checkBuyingPower(in.Order, in.CurrentPrice, in.BuyingPower)...)

	return errs
}

// checkPricePrecision enforces rule 1: max 2 fractional digits when the
// price is >= 1, else max 4.
func (v *Validator) checkPricePrecision(o domain.Order) simerr.Errors {
	var errs simerr.Errors
	check := func(field string, p *money.Decimal) {
		if p == nil {
			return
		}
		maxDigits := int32(2)
		if p.LessThan(money.New("1")) {
			maxDigits = 4
		}
		if money.FractionalDigits(*p) > maxDigits {
			errs = append(errs, simerr.Field(simerr.KindInvalidArgument, field,
				"%s %s exceeds maximum precision of %d fractional digits", field, p.String(), maxDigits))
		}
	}
	check("limitPrice", o.LimitPrice)
	check("stopPrice", o.StopPrice)
	return errs
}

// checkOrderTypeRequirements enforces rule 2.
func (v *Validator) checkOrderTypeRequirements(o domain.Order) simerr.Errors {
	var errs simerr.Errors
	switch o.Type {
	case domain.OrderTypeLimit:
		if o.LimitPrice == nil {
			errs = append(errs, simerr.Field(simerr.KindInvalidArgument, "limitPrice", "limit orders require limitPrice"))
		}
	case domain.OrderTypeStop:
		if o.StopPrice == nil {
			errs = append(errs, simerr.Field(simerr.KindInvalidArgument, "stopPrice", "stop orders require stopPrice"))
		}
	case domain.OrderTypeStopLimit:
		if o.LimitPrice == nil {
			errs = append(errs, simerr.Field(simerr.KindInvalidArgument, "limitPrice", "stop-limit orders require limitPrice"))
		}
		if o.StopPrice == nil {
			errs = append(errs, simerr.Field(simerr.KindInvalidArgument, "stopPrice", "stop-limit orders require stopPrice"))
		}
	case domain.OrderTypeTrailingStop:
		hasPrice := o.TrailPrice != nil
		hasPercent := o.TrailPercent != nil
		if hasPrice == hasPercent { // neither, or both
			errs = append(errs, simerr.Field(simerr.KindInvalidArgument, "trailPrice",
				"trailing-stop orders require exactly one of trailPrice or trailPercent"))
		}
	}
	return errs
}

// checkStopDirection enforces rule 3, only when currentPrice is known.
func (v *Validator) checkStopDirection(o domain.Order, currentPrice *money.Decimal) simerr.Errors {
	var errs simerr.Errors
	if currentPrice == nil || o.StopPrice == nil {
		return errs
	}
	switch o.Side {
	case domain.OrderSideBuy:
		if !o.StopPrice.GreaterThan(*currentPrice) {
			errs = append(errs, simerr.Field(simerr.KindInvalidArgument, "stopPrice",
				"buy stop price %s must be above current price %s", o.StopPrice, currentPrice))
		}
	case domain.OrderSideSell:
		if !o.StopPrice.LessThan(*currentPrice) {
			errs = append(errs, simerr.Field(simerr.KindInvalidArgument, "stopPrice",
				"sell stop price %s must be below current price %s", o.StopPrice, currentPrice))
		}
	}
	return errs
}

// checkExtendedHours enforces rule 4.
func (v *Validator) checkExtendedHours(o domain.Order) simerr.Errors {
	var errs simerr.Errors
	if !o.ExtendedHours {
		return errs
	}
	if o.Type != domain.OrderTypeLimit {
		errs = append(errs, simerr.Field(simerr.KindInvalidArgument, "type", "extended-hours orders must be limit orders"))
	}
	if o.TIF != domain.TIFDay {
		errs = append(errs, simerr.Field(simerr.KindInvalidArgument, "tif", "extended-hours orders must use day time-in-force"))
	}
	return errs
}

// checkTIFMarketState enforces rule 5.
func (v *Validator) checkTIFMarketState(o domain.Order, marketOpen bool) simerr.Errors {
	var errs simerr.Errors
	switch o.TIF {
	case domain.TIFOPG:
		if marketOpen {
			errs = append(errs, simerr.Field(simerr.KindInvalidArgument, "tif", "opg orders are only permitted while the market is closed"))
		}
	case domain.TIFCLS:
		if !marketOpen {
			errs = append(errs, simerr.Field(simerr.KindInvalidArgument, "tif", "cls orders are only permitted while the market is open"))
		}
	}
	return errs
}

// checkBuyingPower enforces rule 6.
func (v *Validator) checkBuyingPower(o domain.Order, currentPrice *money.Decimal, buyingPower money.Decimal) simerr.Errors {
	var errs simerr.Errors
	if o.Side != domain.OrderSideBuy {
		return errs
	}

	estimatedCost, ok := v.estimatedCost(o, currentPrice)
	if !ok {
		return errs // reference price unknown; nothing to check yet
	}
	if estimatedCost.GreaterThan(buyingPower) {
		errs = append(errs, simerr.Field(simerr.KindInsufficientFunds, "qty",
			"estimated cost %s exceeds buying power %s", estimatedCost, buyingPower))
	}
	return errs
}

// estimatedCost computes the rule-6 reference cost. ok is false when no
// reference price can be determined (qty order with no limit/stop/current
// price available).
func (v *Validator) estimatedCost(o domain.Order, currentPrice *money.Decimal) (money.Decimal, bool) {
	if o.Notional != nil {
		return *o.Notional, true
	}
	if o.Qty == nil {
		return money.Zero, false
	}

	var ref money.Decimal
	switch o.Type {
	case domain.OrderTypeLimit, domain.OrderTypeStopLimit:
		if o.LimitPrice == nil {
			return money.Zero, false
		}
		ref = *o.LimitPrice
	case domain.OrderTypeStop:
		switch {
		case o.StopPrice != nil:
			ref = *o.StopPrice
		case currentPrice != nil:
			ref = *currentPrice
		default:
			return money.Zero, false
		}
	default:
		if currentPrice == nil {
			return money.Zero, false
		}
		ref = *currentPrice
	}
	return o.Qty.Mul(ref), true
}

// StopLimitPremium exposes the policy's advertised convenience calculation
// (spec §4.2): not auto-applied to any rule above.
func (v *Validator) StopLimitPremium(stopPrice money.Decimal) money.Decimal {
	return v.policy.StopLimitPremium(stopPrice)
}
