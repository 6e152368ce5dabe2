package validator

import (
	"testing"

	"jax-trading-assistant/internal/core/policy"
	"jax-trading-assistant/internal/domain"
	"jax-trading-assistant/internal/money"
	"jax-trading-assistant/internal/simerr"
)

func decPtr(s string) *money.Decimal {
	d := money.New(s)
	return &d
}

func baseOrder() domain.Order {
	return domain.Order{
		Symbol: "AAPL",
		Type:   domain.OrderTypeMarket,
		Side:   domain.OrderSideBuy,
		TIF:    domain.TIFDay,
		Qty:    decPtr("10"),
	}
}

func hasField(errs simerr.Errors, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

func TestValidatePricePrecision(t *testing.T) {
	v := New(policy.Default())
	o := baseOrder()
	o.Type = domain.OrderTypeLimit
	o.LimitPrice = decPtr("10.123")

	errs := v.Validate(Input{Order: o, BuyingPower: money.New("100000")})
	if !hasField(errs, "limitPrice") {
		t.Errorf("expected a limitPrice precision violation, got %v", errs)
	}
}

func TestValidatePricePrecisionSubDollarAllowsFourDigits(t *testing.T) {
	v := New(policy.Default())
	o := baseOrder()
	o.Type = domain.OrderTypeLimit
	o.LimitPrice = decPtr("0.1234")

	errs := v.Validate(Input{Order: o, BuyingPower: money.New("100000")})
	if hasField(errs, "limitPrice") {
		t.Errorf("sub-dollar price with 4 fractional digits should be valid, got %v", errs)
	}
}

func TestValidateLimitOrderRequiresLimitPrice(t *testing.T) {
	v := New(policy.Default())
	o := baseOrder()
	o.Type = domain.OrderTypeLimit

	errs := v.Validate(Input{Order: o, BuyingPower: money.New("100000")})
	if !hasField(errs, "limitPrice") {
		t.Errorf("limit order with no limitPrice should fail, got %v", errs)
	}
}

func TestValidateTrailingStopRequiresExactlyOne(t *testing.T) {
	v := New(policy.Default())

	neither := baseOrder()
	neither.Type = domain.OrderTypeTrailingStop
	if errs := v.Validate(Input{Order: neither, BuyingPower: money.New("100000")}); !hasField(errs, "trailPrice") {
		t.Errorf("trailing stop with neither trailPrice nor trailPercent should fail, got %v", errs)
	}

	both := baseOrder()
	both.Type = domain.OrderTypeTrailingStop
	both.TrailPrice = decPtr("1")
	both.TrailPercent = decPtr("0.05")
	if errs := v.Validate(Input{Order: both, BuyingPower: money.New("100000")}); !hasField(errs, "trailPrice") {
		t.Errorf("trailing stop with both trailPrice and trailPercent should fail, got %v", errs)
	}

	exactlyOne := baseOrder()
	exactlyOne.Type = domain.OrderTypeTrailingStop
	exactlyOne.TrailPercent = decPtr("0.05")
	if errs := v.Validate(Input{Order: exactlyOne, BuyingPower: money.New("100000")}); hasField(errs, "trailPrice") {
		t.Errorf("trailing stop with exactly one of trailPrice/trailPercent should pass, got %v", errs)
	}
}

func TestValidateStopDirectionBuyMustBeAbove(t *testing.T) {
	v := New(policy.Default())
	o := baseOrder()
	o.Type = domain.OrderTypeStop
	o.StopPrice = decPtr("95")
	current := money.New("100")

	errs := v.Validate(Input{Order: o, CurrentPrice: &current, BuyingPower: money.New("100000")})
	if !hasField(errs, "stopPrice") {
		t.Errorf("buy stop below current price should fail, got %v", errs)
	}
}

func TestValidateStopDirectionSellMustBeBelow(t *testing.T) {
	v := New(policy.Default())
	o := baseOrder()
	o.Side = domain.OrderSideSell
	o.Type = domain.OrderTypeStop
	o.StopPrice = decPtr("105")
	current := money.New("100")

	errs := v.Validate(Input{Order: o, CurrentPrice: &current, BuyingPower: money.New("100000")})
	if !hasField(errs, "stopPrice") {
		t.Errorf("sell stop above current price should fail, got %v", errs)
	}
}

func TestValidateExtendedHoursRequiresLimitDay(t *testing.T) {
	v := New(policy.Default())
	o := baseOrder()
	o.ExtendedHours = true // still a market order, still day TIF

	errs := v.Validate(Input{Order: o, BuyingPower: money.New("100000")})
	if !hasField(errs, "type") {
		t.Errorf("extended-hours market order should fail the type check, got %v", errs)
	}
}

func TestValidateTIFMarketState(t *testing.T) {
	v := New(policy.Default())

	opg := baseOrder()
	opg.TIF = domain.TIFOPG
	if errs := v.Validate(Input{Order: opg, MarketOpen: true, BuyingPower: money.New("100000")}); !hasField(errs, "tif") {
		t.Errorf("opg order while market open should fail, got %v", errs)
	}

	cls := baseOrder()
	cls.TIF = domain.TIFCLS
	if errs := v.Validate(Input{Order: cls, MarketOpen: false, BuyingPower: money.New("100000")}); !hasField(errs, "tif") {
		t.Errorf("cls order while market closed should fail, got %v", errs)
	}
}

func TestValidateBuyingPowerInsufficientFunds(t *testing.T) {
	v := New(policy.Default())
	o := baseOrder()
	current := money.New("100")

	errs := v.Validate(Input{Order: o, CurrentPrice: &current, BuyingPower: money.New("500")})
	if !hasField(errs, "qty") {
		t.Errorf("10 shares at $100 against $500 buying power should fail, got %v", errs)
	}
	if errs.First().Kind != simerr.KindInsufficientFunds {
		t.Errorf("expected KindInsufficientFunds, got %v", errs.First().Kind)
	}
}

func TestValidateBuyingPowerSufficient(t *testing.T) {
	v := New(policy.Default())
	o := baseOrder()
	current := money.New("100")

	errs := v.Validate(Input{Order: o, CurrentPrice: &current, BuyingPower: money.New("100000")})
	if !errs.IsEmpty() {
		t.Errorf("expected no violations, got %v", errs)
	}
}

func TestValidateSellSkipsBuyingPowerCheck(t *testing.T) {
	v := New(policy.Default())
	o := baseOrder()
	o.Side = domain.OrderSideSell
	current := money.New("100")

	errs := v.Validate(Input{Order: o, CurrentPrice: &current, BuyingPower: money.Zero})
	if !errs.IsEmpty() {
		t.Errorf("a sell order should never be rejected for insufficient buying power, got %v", errs)
	}
}

func TestValidateAccumulatesMultipleViolations(t *testing.T) {
	v := New(policy.Default())
	o := baseOrder()
	o.Type = domain.OrderTypeLimit // missing limitPrice
	o.TIF = domain.TIFOPG
	current := money.New("1")

	errs := v.Validate(Input{Order: o, CurrentPrice: &current, MarketOpen: true, BuyingPower: money.New("100000")})
	if !hasField(errs, "limitPrice") || !hasField(errs, "tif") {
		t.Errorf("expected violations on both limitPrice and tif, got %v", errs)
	}
}
