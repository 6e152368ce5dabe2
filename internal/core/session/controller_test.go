package session

import (
	"context"
	"testing"
	"time"

	"jax-trading-assistant/internal/core/policy"
	"jax-trading-assistant/internal/domain"
	"jax-trading-assistant/internal/money"
	"jax-trading-assistant/internal/simerr"
	"jax-trading-assistant/internal/store/membars"
	"jax-trading-assistant/internal/store/memstore"
)

func newTestController() (*Controller, *membars.Store) {
	bars := membars.New()
	sessions := memstore.New()
	return New(bars, sessions, policy.Default()), bars
}

func seedBar(bars *membars.Store, symbol string, at time.Time, open, high, low, close_ string) {
	bars.Put(domain.Bar{
		Symbol: symbol,
		T:      at,
		Open:   money.New(open),
		High:   money.New(high),
		Low:    money.New(low),
		Close:  money.New(close_),
		Volume: money.New("100000"),
	}, domain.ResolutionMinute)
}

func createTestSession(t *testing.T, c *Controller, start, end time.Time, cash string) (domain.Session, domain.Account) {
	t.Helper()
	sess, acct, err := c.CreateSession(context.Background(), CreateSessionRequest{
		OwnerKey:    "owner-1",
		SimStart:    start,
		SimEnd:      end,
		InitialCash: money.New(cash),
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return sess, acct
}

func TestCreateSessionSeedsAccount(t *testing.T) {
	c, _ := newTestController()
	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	sess, acct := createTestSession(t, c, start, end, "100000")

	if sess.Playback != domain.PlaybackPaused {
		t.Errorf("new sessions should start paused, got %v", sess.Playback)
	}
	if !acct.Cash.Equal(money.New("100000")) {
		t.Errorf("seeded account cash = %v, want 100000", acct.Cash)
	}
}

func TestCreateSessionRejectsInvertedWindow(t *testing.T) {
	c, _ := newTestController()
	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	_, _, err := c.CreateSession(context.Background(), CreateSessionRequest{
		SimStart: start, SimEnd: start.Add(-time.Hour), InitialCash: money.New("1000"),
	})
	if simerr.KindOf(err) != simerr.KindInvalidArgument {
		t.Errorf("expected InvalidArgument for simEnd before simStart, got %v", err)
	}
}

func TestSubmitOrderMarketOrderFillsImmediately(t *testing.T) {
	c, bars := newTestController()
	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	sess, acct := createTestSession(t, c, start, end, "100000")
	seedBar(bars, "AAPL", start, "100", "105", "95", "102")

	order, err := c.SubmitOrder(context.Background(), acct.ID, OrderRequest{
		Symbol: "AAPL",
		Qty:    decp("10"),
		Type:   domain.OrderTypeMarket,
		Side:   domain.OrderSideBuy,
		TIF:    domain.TIFDay,
	})
	if err != nil {
		t.Fatalf("SubmitOrder: %v", err)
	}
	if order.Status != domain.OrderStatusFilled {
		t.Errorf("expected an immediate fill for a market order with a known bar, got %v (reject: %s)", order.Status, order.RejectReason)
	}

	updatedAcct, err := c.GetAccount(context.Background(), acct.ID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if updatedAcct.Cash.GreaterThanOrEqual(acct.Cash) {
		t.Errorf("a filled buy should debit cash, got %v (was %v)", updatedAcct.Cash, acct.Cash)
	}

	_ = sess
}

func TestSubmitOrderRejectsInsufficientFunds(t *testing.T) {
	c, bars := newTestController()
	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	_, acct := createTestSession(t, c, start, end, "100")
	seedBar(bars, "AAPL", start, "100", "105", "95", "102")

	order, err := c.SubmitOrder(context.Background(), acct.ID, OrderRequest{
		Symbol: "AAPL",
		Qty:    decp("100"),
		Type:   domain.OrderTypeMarket,
		Side:   domain.OrderSideBuy,
		TIF:    domain.TIFDay,
	})
	if err == nil {
		t.Fatalf("expected a validation error aggregate")
	}
	if order.Status != domain.OrderStatusRejected {
		t.Errorf("expected a persisted rejected order, got %v", order.Status)
	}
}

func TestCancelOrderTerminalStatusConflict(t *testing.T) {
	c, bars := newTestController()
	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	_, acct := createTestSession(t, c, start, end, "100000")
	seedBar(bars, "AAPL", start, "100", "105", "95", "102")

	order, err := c.SubmitOrder(context.Background(), acct.ID, OrderRequest{
		Symbol: "AAPL", Qty: decp("10"), Type: domain.OrderTypeMarket, Side: domain.OrderSideBuy, TIF: domain.TIFDay,
	})
	if err != nil {
		t.Fatalf("SubmitOrder: %v", err)
	}
	if order.Status != domain.OrderStatusFilled {
		t.Fatalf("expected immediate fill, got %v", order.Status)
	}

	_, err = c.CancelOrder(context.Background(), order.ID)
	if simerr.KindOf(err) != simerr.KindConflict {
		t.Errorf("cancelling a filled order should be a Conflict, got %v", err)
	}
}

func TestCancelOrderPendingOrderSucceeds(t *testing.T) {
	c, _ := newTestController()
	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	_, acct := createTestSession(t, c, start, end, "100000")

	order, err := c.SubmitOrder(context.Background(), acct.ID, OrderRequest{
		Symbol: "AAPL", Qty: decp("10"), Type: domain.OrderTypeLimit, LimitPrice: decp("50"),
		Side: domain.OrderSideBuy, TIF: domain.TIFDay,
	})
	if err != nil {
		t.Fatalf("SubmitOrder: %v", err)
	}
	if order.Status != domain.OrderStatusAccepted {
		t.Fatalf("expected the limit order to remain accepted with no triggering bar, got %v", order.Status)
	}

	cancelled, err := c.CancelOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if cancelled.Status != domain.OrderStatusCancelled {
		t.Errorf("expected the order to transition to cancelled, got %v", cancelled.Status)
	}
}

func TestAdvanceTimeProcessesPendingOrders(t *testing.T) {
	c, bars := newTestController()
	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	end := start.Add(10 * time.Minute)
	sess, acct := createTestSession(t, c, start, end, "100000")

	// A limit order that will not fill against the first bar.
	order, err := c.SubmitOrder(context.Background(), acct.ID, OrderRequest{
		Symbol: "AAPL", Qty: decp("10"), Type: domain.OrderTypeLimit, LimitPrice: decp("90"),
		Side: domain.OrderSideBuy, TIF: domain.TIFDay,
	})
	if err != nil {
		t.Fatalf("SubmitOrder: %v", err)
	}
	if order.Status != domain.OrderStatusAccepted {
		t.Fatalf("expected accepted, got %v", order.Status)
	}

	next := start.Add(time.Minute)
	seedBar(bars, "AAPL", next, "95", "100", "88", "92") // low touches the limit price now

	updated, err := c.AdvanceTime(context.Background(), sess.ID, AdvanceRequest{})
	if err != nil {
		t.Fatalf("AdvanceTime: %v", err)
	}
	if !updated.SimNow.Equal(next) {
		t.Errorf("SimNow = %v, want %v", updated.SimNow, next)
	}

	filled, err := c.GetOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if filled.Status != domain.OrderStatusFilled {
		t.Errorf("expected the limit order to fill once the bar's low touches the limit, got %v", filled.Status)
	}
}

func TestPlayPauseSetSpeed(t *testing.T) {
	c, _ := newTestController()
	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	sess, _ := createTestSession(t, c, start, end, "1000")

	if err := c.SetSpeed(context.Background(), sess.ID, 4.0); err != nil {
		t.Fatalf("SetSpeed: %v", err)
	}
	if err := c.Play(context.Background(), sess.ID); err != nil {
		t.Fatalf("Play: %v", err)
	}

	got, err := c.GetSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Speed != 4.0 {
		t.Errorf("Speed = %v, want 4.0", got.Speed)
	}
	if got.Playback != domain.PlaybackPlaying {
		t.Errorf("Playback = %v, want playing", got.Playback)
	}

	if err := c.Pause(context.Background(), sess.ID); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	got, err = c.GetSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Playback != domain.PlaybackPaused {
		t.Errorf("Playback = %v, want paused after Pause", got.Playback)
	}
}

func TestQuoteSynthesizesBidAsk(t *testing.T) {
	c, bars := newTestController()
	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	sess, _ := createTestSession(t, c, start, end, "1000")
	seedBar(bars, "AAPL", start, "100", "110", "90", "100")

	q, err := c.Quote(context.Background(), sess.ID, "AAPL")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if !q.Bid.LessThan(q.Ask) {
		t.Errorf("expected Bid < Ask, got bid=%v ask=%v", q.Bid, q.Ask)
	}
}

func TestQuoteNotFoundWithoutBar(t *testing.T) {
	c, _ := newTestController()
	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	sess, _ := createTestSession(t, c, start, end, "1000")

	_, err := c.Quote(context.Background(), sess.ID, "AAPL")
	if simerr.KindOf(err) != simerr.KindNotFound {
		t.Errorf("expected NotFound with no bar data, got %v", err)
	}
}

func decp(s string) *money.Decimal {
	d := money.New(s)
	return &d
}

func TestSubmitOrderRejectsDuplicateClientOrderIDWithin24h(t *testing.T) {
	c, bars := newTestController()
	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)
	_, acct := createTestSession(t, c, start, end, "100000")
	seedBar(bars, "AAPL", start, "100", "105", "95", "102")

	req := OrderRequest{
		ClientOrderID: "client-1",
		Symbol:        "AAPL",
		Qty:           decp("1"),
		Type:          domain.OrderTypeMarket,
		Side:          domain.OrderSideBuy,
		TIF:           domain.TIFDay,
	}
	if _, err := c.SubmitOrder(context.Background(), acct.ID, req); err != nil {
		t.Fatalf("first SubmitOrder: %v", err)
	}

	_, err := c.SubmitOrder(context.Background(), acct.ID, req)
	if simerr.KindOf(err) != simerr.KindConflict {
		t.Errorf("expected Conflict on repeated client_order_id, got %v", err)
	}
}

func TestSubmitOrderAllowsRepeatedClientOrderIDAfter24h(t *testing.T) {
	c, bars := newTestController()
	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)
	sess, acct := createTestSession(t, c, start, end, "100000")
	seedBar(bars, "AAPL", start, "100", "105", "95", "102")
	seedBar(bars, "AAPL", start.Add(25*time.Hour), "100", "105", "95", "102")

	req := OrderRequest{
		ClientOrderID: "client-2",
		Symbol:        "AAPL",
		Qty:           decp("1"),
		Type:          domain.OrderTypeMarket,
		Side:          domain.OrderSideBuy,
		TIF:           domain.TIFDay,
	}
	if _, err := c.SubmitOrder(context.Background(), acct.ID, req); err != nil {
		t.Fatalf("first SubmitOrder: %v", err)
	}

	if _, err := c.AdvanceTime(context.Background(), sess.ID, AdvanceRequest{Duration: durp(25 * time.Hour)}); err != nil {
		t.Fatalf("AdvanceTime: %v", err)
	}

	if _, err := c.SubmitOrder(context.Background(), acct.ID, req); err != nil {
		t.Errorf("expected repeated client_order_id to be allowed after 24h, got %v", err)
	}
}

func durp(d time.Duration) *time.Duration {
	return &d
}
