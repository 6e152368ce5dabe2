package matching

import (
	"testing"
	"time"

	"jax-trading-assistant/internal/core/policy"
	"jax-trading-assistant/internal/domain"
	"jax-trading-assistant/internal/money"
	"jax-trading-assistant/internal/simerr"
)

func dec(s string) money.Decimal { return money.New(s) }
func decp(s string) *money.Decimal {
	d := money.New(s)
	return &d
}

func testBar(symbol string, t time.Time) domain.Bar {
	return domain.Bar{
		Symbol: symbol,
		T:      t,
		Open:   dec("100"),
		High:   dec("105"),
		Low:    dec("95"),
		Close:  dec("102"),
		Volume: dec("10000"),
	}
}

func baseMatchOrder() domain.Order {
	return domain.Order{
		ID:          "o1",
		Symbol:      "AAPL",
		Type:        domain.OrderTypeMarket,
		Side:        domain.OrderSideBuy,
		TIF:         domain.TIFDay,
		Qty:         decp("10"),
		Status:      domain.OrderStatusAccepted,
		SubmittedAt: time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC),
	}
}

func TestProcessMarketOrderFillsAtOpenWithSlippage(t *testing.T) {
	e := New(policy.Default())
	o := baseMatchOrder()
	now := o.SubmittedAt
	bar := testBar("AAPL", now)

	outcome, err := e.Process(o, &bar, now)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !outcome.Fill.Filled {
		t.Fatalf("expected a fill, got %+v", outcome)
	}
	if outcome.Status != domain.OrderStatusFilled {
		t.Errorf("expected Filled status, got %v", outcome.Status)
	}
	// range = 10, slippage rate 0.10 => 1.0 added to open for a buy
	want := dec("101")
	if !outcome.Fill.Price.Equal(want) {
		t.Errorf("fill price = %v, want %v", outcome.Fill.Price, want)
	}
}

func TestProcessLimitBuyDoesNotFillWhenLowAboveLimit(t *testing.T) {
	e := New(policy.Default())
	o := baseMatchOrder()
	o.Type = domain.OrderTypeLimit
	o.LimitPrice = decp("90") // below bar low of 95, never touched
	now := o.SubmittedAt
	bar := testBar("AAPL", now)

	outcome, err := e.Process(o, &bar, now)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome.Fill.Filled {
		t.Errorf("expected no fill, got %+v", outcome)
	}
	if outcome.Status != o.Status {
		t.Errorf("unfilled limit order should remain in its current status, got %v", outcome.Status)
	}
}

func TestProcessLimitBuyFillsWhenLowTouchesLimit(t *testing.T) {
	e := New(policy.Default())
	o := baseMatchOrder()
	o.Type = domain.OrderTypeLimit
	o.LimitPrice = decp("100")
	now := o.SubmittedAt
	bar := testBar("AAPL", now)

	outcome, err := e.Process(o, &bar, now)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !outcome.Fill.Filled {
		t.Fatalf("expected a fill when bar low <= limit price, got %+v", outcome)
	}
	if !outcome.Fill.Price.Equal(dec("100")) {
		t.Errorf("limit orders fill at the limit price, got %v", outcome.Fill.Price)
	}
}

func TestProcessStopBuyRequiresHighAboveStop(t *testing.T) {
	e := New(policy.Default())
	o := baseMatchOrder()
	o.Type = domain.OrderTypeStop
	o.StopPrice = decp("110") // above bar high of 105
	now := o.SubmittedAt
	bar := testBar("AAPL", now)

	outcome, err := e.Process(o, &bar, now)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome.Fill.Filled {
		t.Errorf("stop buy should not fire below its trigger, got %+v", outcome)
	}
}

func TestProcessParticipationCapPartialFill(t *testing.T) {
	e := New(policy.Default())
	o := baseMatchOrder()
	o.Qty = decp("1000") // participation cap is 1% of 10000 volume = 100
	now := o.SubmittedAt
	bar := testBar("AAPL", now)

	outcome, err := e.Process(o, &bar, now)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !outcome.Fill.Partial {
		t.Errorf("expected a participation-capped partial fill, got %+v", outcome)
	}
	if !outcome.Fill.Qty.Equal(dec("100")) {
		t.Errorf("capped fill qty = %v, want 100", outcome.Fill.Qty)
	}
	if outcome.Status != domain.OrderStatusPartiallyFilled {
		t.Errorf("expected partiallyFilled status, got %v", outcome.Status)
	}
}

func TestProcessNoBarIOCCancels(t *testing.T) {
	e := New(policy.Default())
	o := baseMatchOrder()
	o.TIF = domain.TIFIOC
	now := o.SubmittedAt

	outcome, err := e.Process(o, nil, now)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome.Status != domain.OrderStatusCancelled {
		t.Errorf("ioc order with no bar should cancel, got %v", outcome.Status)
	}
}

func TestProcessNoBarFOKRejects(t *testing.T) {
	e := New(policy.Default())
	o := baseMatchOrder()
	o.TIF = domain.TIFFOK
	now := o.SubmittedAt

	outcome, err := e.Process(o, nil, now)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome.Status != domain.OrderStatusRejected {
		t.Errorf("fok order with no bar should reject, got %v", outcome.Status)
	}
}

func TestProcessNoBarDayOrderUnchanged(t *testing.T) {
	e := New(policy.Default())
	o := baseMatchOrder()
	now := o.SubmittedAt

	outcome, err := e.Process(o, nil, now)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome.Status != o.Status || outcome.Fill.Filled {
		t.Errorf("day order with no bar should remain unchanged, got %+v", outcome)
	}
}

func TestProcessFOKRejectsWhenParticipationCapBinds(t *testing.T) {
	e := New(policy.Default())
	o := baseMatchOrder()
	o.TIF = domain.TIFFOK
	o.Qty = decp("1000") // exceeds the 100-share participation cap
	now := o.SubmittedAt
	bar := testBar("AAPL", now)

	outcome, err := e.Process(o, &bar, now)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome.Status != domain.OrderStatusRejected || outcome.Fill.Filled {
		t.Errorf("fok order that cannot fully fill should reject outright, got %+v", outcome)
	}
}

func TestProcessIOCPartialFillCancelsRemainder(t *testing.T) {
	e := New(policy.Default())
	o := baseMatchOrder()
	o.TIF = domain.TIFIOC
	o.Qty = decp("1000")
	now := o.SubmittedAt
	bar := testBar("AAPL", now)

	outcome, err := e.Process(o, &bar, now)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !outcome.Fill.Filled || !outcome.Fill.Partial {
		t.Fatalf("expected a partial fill, got %+v", outcome)
	}
	if outcome.Status != domain.OrderStatusCancelled {
		t.Errorf("ioc partial fill should cancel the remainder, got %v", outcome.Status)
	}
}

func TestProcessDayOrderExpiresNextDay(t *testing.T) {
	e := New(policy.Default())
	o := baseMatchOrder()
	now := o.SubmittedAt.AddDate(0, 0, 1)

	outcome, err := e.Process(o, nil, now)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome.Status != domain.OrderStatusExpired {
		t.Errorf("day order still active the next calendar day should expire, got %v", outcome.Status)
	}
}

func TestProcessGTCExpiresAfterPolicyWindow(t *testing.T) {
	e := New(policy.Default())
	o := baseMatchOrder()
	o.TIF = domain.TIFGTC
	now := o.SubmittedAt.AddDate(0, 0, 91)

	outcome, err := e.Process(o, nil, now)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome.Status != domain.OrderStatusExpired {
		t.Errorf("gtc order past the expiry window should expire, got %v", outcome.Status)
	}
}

func TestProcessTerminalOrderIsNoop(t *testing.T) {
	e := New(policy.Default())
	o := baseMatchOrder()
	o.Status = domain.OrderStatusFilled
	bar := testBar("AAPL", o.SubmittedAt)

	outcome, err := e.Process(o, &bar, o.SubmittedAt)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome.Fill.Filled || outcome.Status != domain.OrderStatusFilled {
		t.Errorf("a terminal order must never be reprocessed, got %+v", outcome)
	}
}

func TestProcessTrailingStopIsNotImplemented(t *testing.T) {
	e := New(policy.Default())
	o := baseMatchOrder()
	o.Type = domain.OrderTypeTrailingStop
	o.TrailPercent = decp("0.05")
	bar := testBar("AAPL", o.SubmittedAt)

	_, err := e.Process(o, &bar, o.SubmittedAt)
	if simerr.KindOf(err) != simerr.KindNotImplemented {
		t.Errorf("expected KindNotImplemented for trailing-stop fills, got %v", err)
	}
}

func TestProcessNotionalMarketOrderConvertsToShares(t *testing.T) {
	e := New(policy.Default())
	o := baseMatchOrder()
	o.Qty = nil
	notional := dec("1010") // open=100, slippage pushes fill price to 101 => 10 shares
	o.Notional = &notional
	bar := testBar("AAPL", o.SubmittedAt)

	outcome, err := e.Process(o, &bar, o.SubmittedAt)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !outcome.Fill.Filled {
		t.Fatalf("expected a fill for the notional order, got %+v", outcome)
	}
	if !outcome.Fill.Qty.Equal(dec("10")) {
		t.Errorf("notional/price conversion = %v, want 10", outcome.Fill.Qty)
	}
}
