package account

import (
	"testing"

	"jax-trading-assistant/internal/core/policy"
	"jax-trading-assistant/internal/domain"
	"jax-trading-assistant/internal/money"
)

func dec(s string) money.Decimal { return money.New(s) }

func TestApplyFillBuyDebitsCash(t *testing.T) {
	acct := domain.Account{Cash: dec("10000")}
	out := ApplyFill(acct, dec("10"), dec("100"), domain.OrderSideBuy)

	if !out.Cash.Equal(dec("9000")) {
		t.Errorf("Cash = %v, want 9000", out.Cash)
	}
}

func TestApplyFillSellCreditsCash(t *testing.T) {
	acct := domain.Account{Cash: dec("10000")}
	out := ApplyFill(acct, dec("10"), dec("100"), domain.OrderSideSell)

	if !out.Cash.Equal(dec("11000")) {
		t.Errorf("Cash = %v, want 11000", out.Cash)
	}
}

func TestShortSellRequirementUsesAskMarginWhenNoLimit(t *testing.T) {
	req := ShortSellRequirement(nil, dec("100"), dec("10"), 1.03)
	if !req.Equal(dec("1030")) {
		t.Errorf("ShortSellRequirement = %v, want 1030", req)
	}
}

func TestShortSellRequirementUsesHigherOfLimitAndAskFloor(t *testing.T) {
	limit := dec("200")
	req := ShortSellRequirement(&limit, dec("100"), dec("10"), 1.03)
	if !req.Equal(dec("2000")) {
		t.Errorf("ShortSellRequirement should use the higher of limit and ask floor, got %v", req)
	}
}

func TestRecalculateComputesEquityAndBuyingPower(t *testing.T) {
	p := policy.Default()
	acct := domain.Account{Cash: dec("5000")}
	totals := Totals{LongMarketValue: dec("2000"), ShortMarketValue: dec("500")}

	out := Recalculate(acct, totals, p)

	if !out.Equity.Equal(dec("6500")) {
		t.Errorf("Equity = %v, want 6500 (5000+2000-500)", out.Equity)
	}
	if !out.BuyingPower.Equal(dec("5000")) {
		t.Errorf("BuyingPower = %v, want 5000", out.BuyingPower)
	}
	if !out.DayTradingBuyingPower.Equal(out.BuyingPower) {
		t.Errorf("non-PDT account should have DayTradingBuyingPower == BuyingPower, got %v vs %v", out.DayTradingBuyingPower, out.BuyingPower)
	}
}

func TestRecalculatePatternDayTraderUsesFourXLeverage(t *testing.T) {
	p := policy.Default()
	acct := domain.Account{
		Cash:              dec("10000"),
		PatternDayTrader:  true,
		MaintenanceMargin: dec("2000"),
	}
	totals := Totals{LongMarketValue: money.Zero, ShortMarketValue: money.Zero}

	out := Recalculate(acct, totals, p)

	// equity 10000, headroom 10000-2000=8000, *4 = 32000
	if !out.DayTradingBuyingPower.Equal(dec("32000")) {
		t.Errorf("DayTradingBuyingPower = %v, want 32000", out.DayTradingBuyingPower)
	}
}

func TestRecalculateBuyingPowerFloorsAtZero(t *testing.T) {
	p := policy.Default()
	acct := domain.Account{Cash: dec("-500")}
	out := Recalculate(acct, Totals{}, p)

	if !out.BuyingPower.IsZero() {
		t.Errorf("BuyingPower should floor at zero for negative cash, got %v", out.BuyingPower)
	}
}

func TestRecalculateCashWithdrawableSubtractsInitialMargin(t *testing.T) {
	p := policy.Default()
	acct := domain.Account{Cash: dec("10000"), InitialMargin: dec("3000")}
	out := Recalculate(acct, Totals{}, p)

	if !out.CashWithdrawable.Equal(dec("7000")) {
		t.Errorf("CashWithdrawable = %v, want 7000", out.CashWithdrawable)
	}
}

func TestRecalculateSetsLastEquityFromPriorEquity(t *testing.T) {
	p := policy.Default()
	acct := domain.Account{Cash: dec("10000"), Equity: dec("9500")}
	out := Recalculate(acct, Totals{}, p)

	if !out.LastEquity.Equal(dec("9500")) {
		t.Errorf("LastEquity should carry the pre-recalculation equity, got %v", out.LastEquity)
	}
}

func TestMeetsPdtMinimum(t *testing.T) {
	p := policy.Default()
	above := domain.Account{Equity: dec("25000")}
	below := domain.Account{Equity: dec("24999.99")}

	if !MeetsPdtMinimum(above, p) {
		t.Errorf("equity exactly at the PDT threshold should meet it")
	}
	if MeetsPdtMinimum(below, p) {
		t.Errorf("equity below the PDT threshold should not meet it")
	}
}
