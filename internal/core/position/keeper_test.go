package position

import (
	"testing"

	"jax-trading-assistant/internal/domain"
	"jax-trading-assistant/internal/money"
)

func dec(s string) money.Decimal { return money.New(s) }

func TestApplyFillOpensFromZero(t *testing.T) {
	pos := domain.Position{Qty: money.Zero}
	out := ApplyFill(pos, dec("10"), dec("100"), domain.OrderSideBuy)

	if !out.Qty.Equal(dec("10")) {
		t.Errorf("Qty = %v, want 10", out.Qty)
	}
	if !out.AvgEntryPrice.Equal(dec("100")) {
		t.Errorf("AvgEntryPrice = %v, want 100", out.AvgEntryPrice)
	}
}

func TestApplyFillOpensShortFromZero(t *testing.T) {
	pos := domain.Position{Qty: money.Zero}
	out := ApplyFill(pos, dec("10"), dec("100"), domain.OrderSideSell)

	if !out.Qty.Equal(dec("-10")) {
		t.Errorf("Qty = %v, want -10", out.Qty)
	}
}

func TestApplyFillAddsSameDirectionWeightedAverage(t *testing.T) {
	pos := domain.Position{Qty: dec("10"), AvgEntryPrice: dec("100")}
	out := ApplyFill(pos, dec("10"), dec("200"), domain.OrderSideBuy)

	if !out.Qty.Equal(dec("20")) {
		t.Errorf("Qty = %v, want 20", out.Qty)
	}
	// (10*100 + 10*200) / 20 = 150
	if !out.AvgEntryPrice.Equal(dec("150")) {
		t.Errorf("AvgEntryPrice = %v, want 150", out.AvgEntryPrice)
	}
}

func TestApplyFillClosesExactly(t *testing.T) {
	pos := domain.Position{Qty: dec("10"), AvgEntryPrice: dec("100")}
	out := ApplyFill(pos, dec("10"), dec("120"), domain.OrderSideSell)

	if !out.Qty.IsZero() {
		t.Errorf("Qty = %v, want 0", out.Qty)
	}
	if !out.AvgEntryPrice.IsZero() {
		t.Errorf("AvgEntryPrice = %v, want 0 after closing", out.AvgEntryPrice)
	}
}

func TestApplyFillReducesKeepsAvgPrice(t *testing.T) {
	pos := domain.Position{Qty: dec("10"), AvgEntryPrice: dec("100")}
	out := ApplyFill(pos, dec("4"), dec("150"), domain.OrderSideSell)

	if !out.Qty.Equal(dec("6")) {
		t.Errorf("Qty = %v, want 6", out.Qty)
	}
	if !out.AvgEntryPrice.Equal(dec("100")) {
		t.Errorf("reducing a position should not change its cost basis, got %v", out.AvgEntryPrice)
	}
}

func TestApplyFillFlipsSignTakesNewEntryPrice(t *testing.T) {
	pos := domain.Position{Qty: dec("10"), AvgEntryPrice: dec("100")}
	out := ApplyFill(pos, dec("15"), dec("120"), domain.OrderSideSell)

	if !out.Qty.Equal(dec("-5")) {
		t.Errorf("Qty = %v, want -5", out.Qty)
	}
	if !out.AvgEntryPrice.Equal(dec("120")) {
		t.Errorf("a flip should re-anchor AvgEntryPrice to the fill price, got %v", out.AvgEntryPrice)
	}
}

func TestUpdatePricesComputesMarketValueAndPnL(t *testing.T) {
	pos := domain.Position{Qty: dec("10"), AvgEntryPrice: dec("100")}
	out := UpdatePrices(pos, dec("110"), dec("105"))

	if !out.MarketValue.Equal(dec("1100")) {
		t.Errorf("MarketValue = %v, want 1100", out.MarketValue)
	}
	if !out.UnrealizedPnL.Equal(dec("100")) {
		t.Errorf("UnrealizedPnL = %v, want 100", out.UnrealizedPnL)
	}
	if !out.UnrealizedIntradayPnL.Equal(dec("50")) {
		t.Errorf("UnrealizedIntradayPnL = %v, want 50", out.UnrealizedIntradayPnL)
	}
}

func TestUpdatePricesShortPositionPnLSign(t *testing.T) {
	pos := domain.Position{Qty: dec("-10"), AvgEntryPrice: dec("100")}
	out := UpdatePrices(pos, dec("90"), money.Zero)

	if !out.MarketValue.Equal(dec("-900")) {
		t.Errorf("MarketValue = %v, want -900", out.MarketValue)
	}
	if !out.UnrealizedPnL.Equal(dec("100")) {
		t.Errorf("a short that dropped from 100 to 90 should show +100 unrealized P&L, got %v", out.UnrealizedPnL)
	}
}

func TestUpdatePricesZeroLastDayPriceZeroesIntradayPnL(t *testing.T) {
	pos := domain.Position{Qty: dec("10"), AvgEntryPrice: dec("100")}
	out := UpdatePrices(pos, dec("110"), money.Zero)

	if !out.UnrealizedIntradayPnL.IsZero() {
		t.Errorf("UnrealizedIntradayPnL should be zero when lastDayPrice is unknown, got %v", out.UnrealizedIntradayPnL)
	}
}
