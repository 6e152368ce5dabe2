// Package session implements the SessionController (C9): the only mutator
// of session state. It orchestrates the simulation clock, validator,
// matching engine, position keeper, account keeper, and day-trade tracker
// behind a per-session serializer, in the style of the teacher's
// libs/middleware.RateLimiter "get-or-create bucket" pattern generalized
// from per-client buckets to per-session mutexes (spec §5).
package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"jax-trading-assistant/internal/core/account"
	"jax-trading-assistant/internal/core/daytrade"
	"jax-trading-assistant/internal/core/matching"
	"jax-trading-assistant/internal/core/policy"
	"jax-trading-assistant/internal/core/position"
	"jax-trading-assistant/internal/core/simclock"
	"jax-trading-assistant/internal/core/validator"
	"jax-trading-assistant/internal/domain"
	"jax-trading-assistant/internal/idgen"
	"jax-trading-assistant/internal/metrics"
	"jax-trading-assistant/internal/money"
	"jax-trading-assistant/internal/simerr"
	"jax-trading-assistant/internal/store"
)

// Controller exposes the operations consumed by the HTTP transport layer
// (spec §4.8). Every operation is serialized per session.
type Controller struct {
	bars     store.BarStore
	sessions store.SessionStore
	policy   *policy.Policy

	validator *validator.Validator
	engine    *matching.Engine
	metrics   *metrics.SimMetrics

	activeSessions atomic.Int64

	mu    sync.RWMutex
	locks map[string]*sync.Mutex
}

// New creates a Controller backed by the given BarStore and SessionStore,
// using p for every tunable constant.
func New(bars store.BarStore, sessions store.SessionStore, p *policy.Policy) *Controller {
	return &Controller{
		bars:      bars,
		sessions:  sessions,
		policy:    p,
		validator: validator.New(p),
		engine:    matching.New(p),
		metrics:   metrics.New(),
		locks:     make(map[string]*sync.Mutex),
	}
}

// Metrics returns the process-wide counter/gauge/histogram registry this
// Controller records against, for the wire API's GET /metrics endpoint.
func (c *Controller) Metrics() *metrics.SimMetrics {
	return c.metrics
}

// Policy returns the tunable constants this Controller was built with, for
// the admin surface's read-only policy inspection endpoint.
func (c *Controller) Policy() *policy.Policy {
	return c.policy
}

// lockFor returns the mutex serializing operations on sessionID, creating
// one on first use.
func (c *Controller) lockFor(sessionID string) *sync.Mutex {
	c.mu.RLock()
	l, ok := c.locks[sessionID]
	c.mu.RUnlock()
	if ok {
		return l
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok = c.locks[sessionID]; ok {
		return l
	}
	l = &sync.Mutex{}
	c.locks[sessionID] = l
	return l
}

// CreateSessionRequest bundles the inputs POST /sessions accepts.
type CreateSessionRequest struct {
	OwnerKey    string
	SimStart    time.Time
	SimEnd      time.Time
	InitialCash money.Decimal
}

// CreateSession creates a new session with a single account seeded with
// initialCash, clock paused at simStart (spec §3).
func (c *Controller) CreateSession(ctx context.Context, req CreateSessionRequest) (domain.Session, domain.Account, error) {
	if req.SimEnd.Before(req.SimStart) {
		return domain.Session{}, domain.Account{}, simerr.Field(simerr.KindInvalidArgument, "simEnd", "simEnd %s is before simStart %s", req.SimEnd, req.SimStart)
	}
	now := time.Now().UTC()
	sess := domain.Session{
		ID:            idgen.Session(),
		OwnerKey:      req.OwnerKey,
		SimStart:      req.SimStart,
		SimEnd:        req.SimEnd,
		SimNow:        req.SimStart,
		Playback:      domain.PlaybackPaused,
		Speed:         1.0,
		InitialCash:   req.InitialCash,
		RealizedPnL:   money.Zero,
		UnrealizedPnL: money.Zero,
		Status:        domain.SessionActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := c.sessions.CreateSession(ctx, sess); err != nil {
		return domain.Session{}, domain.Account{}, fmt.Errorf("session: create: %w", err)
	}

	acct := domain.Account{
		ID:               idgen.Account(),
		SessionID:        sess.ID,
		Cash:             req.InitialCash,
		CashWithdrawable: req.InitialCash,
		BuyingPower:      req.InitialCash,
		Equity:           req.InitialCash,
		LastEquity:       req.InitialCash,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	acct.DayTradingBuyingPower = acct.BuyingPower
	if err := c.sessions.CreateAccount(ctx, acct); err != nil {
		return domain.Session{}, domain.Account{}, fmt.Errorf("session: create account: %w", err)
	}
	return sess, acct, nil
}

// CreateAccount adds a further account to an existing session, seeded with
// initialCash, for callers that want more than the one account
// CreateSession seeds automatically.
func (c *Controller) CreateAccount(ctx context.Context, sessionID string, initialCash money.Decimal) (domain.Account, error) {
	lock := c.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := c.sessions.GetSession(ctx, sessionID); err != nil {
		return domain.Account{}, fmt.Errorf("session: load session %s: %w", sessionID, err)
	}

	now := time.Now().UTC()
	acct := domain.Account{
		ID:                    idgen.Account(),
		SessionID:             sessionID,
		Cash:                  initialCash,
		CashWithdrawable:      initialCash,
		BuyingPower:           initialCash,
		DayTradingBuyingPower: initialCash,
		Equity:                initialCash,
		LastEquity:            initialCash,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := c.sessions.CreateAccount(ctx, acct); err != nil {
		return domain.Account{}, fmt.Errorf("session: create account: %w", err)
	}
	return acct, nil
}

// GetAccount is a direct pass-through.
func (c *Controller) GetAccount(ctx context.Context, accountID string) (domain.Account, error) {
	return c.sessions.GetAccount(ctx, accountID)
}

// ListAccounts is a direct pass-through.
func (c *Controller) ListAccounts(ctx context.Context, sessionID string) ([]domain.Account, error) {
	return c.sessions.ListAccounts(ctx, sessionID)
}

// SetAccountBlocked flips an account's trading/account-blocked flags, the
// one mutation PATCH /accounts/{id} exposes over the wire.
func (c *Controller) SetAccountBlocked(ctx context.Context, accountID string, tradingBlocked, accountBlocked *bool) (domain.Account, error) {
	acct, err := c.sessions.GetAccount(ctx, accountID)
	if err != nil {
		return domain.Account{}, fmt.Errorf("session: load account %s: %w", accountID, err)
	}

	lock := c.lockFor(acct.SessionID)
	lock.Lock()
	defer lock.Unlock()

	acct, err = c.sessions.GetAccount(ctx, accountID)
	if err != nil {
		return domain.Account{}, fmt.Errorf("session: reload account %s: %w", accountID, err)
	}
	if tradingBlocked != nil {
		acct.TradingBlocked = *tradingBlocked
	}
	if accountBlocked != nil {
		acct.AccountBlocked = *accountBlocked
	}
	acct.UpdatedAt = time.Now().UTC()
	if err := c.sessions.SaveAccount(ctx, acct); err != nil {
		return domain.Account{}, fmt.Errorf("session: persist account: %w", err)
	}
	return acct, nil
}

// GetSession is a direct pass-through (reads need no serialization).
func (c *Controller) GetSession(ctx context.Context, id string) (domain.Session, error) {
	return c.sessions.GetSession(ctx, id)
}

// ListSessions is a direct pass-through.
func (c *Controller) ListSessions(ctx context.Context, ownerKey string) ([]domain.Session, error) {
	return c.sessions.ListSessions(ctx, ownerKey)
}

// DeleteSession cancels and deletes a session, cascading its accounts,
// orders, positions, and trade records.
func (c *Controller) DeleteSession(ctx context.Context, id string) error {
	lock := c.lockFor(id)
	lock.Lock()
	defer lock.Unlock()
	return c.sessions.DeleteSession(ctx, id)
}

// OrderRequest bundles the inputs POST /trading/accounts/{id}/orders
// accepts.
type OrderRequest struct {
	ClientOrderID string
	Symbol        string
	Qty           *money.Decimal
	Notional      *money.Decimal
	Type          domain.OrderType
	Side          domain.OrderSide
	TIF           domain.TimeInForce
	LimitPrice    *money.Decimal
	StopPrice     *money.Decimal
	TrailPrice    *money.Decimal
	TrailPercent  *money.Decimal
	ExtendedHours bool
}

// SubmitOrder implements spec §4.8's submitOrder: validate, persist, and
// for a market order against a known current bar, fill immediately.
func (c *Controller) SubmitOrder(ctx context.Context, accountID string, req OrderRequest) (domain.Order, error) {
	acct, err := c.sessions.GetAccount(ctx, accountID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("session: load account %s: %w", accountID, err)
	}

	lock := c.lockFor(acct.SessionID)
	lock.Lock()
	defer lock.Unlock()

	// Reload under the lock: another operation may have mutated the
	// account between the initial lookup and acquiring the serializer.
	acct, err = c.sessions.GetAccount(ctx, accountID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("session: reload account %s: %w", accountID, err)
	}
	sess, err := c.sessions.GetSession(ctx, acct.SessionID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("session: load session %s: %w", acct.SessionID, err)
	}

	order := domain.Order{
		ID:            idgen.Order(),
		SessionID:     sess.ID,
		AccountID:     acct.ID,
		ClientOrderID: req.ClientOrderID,
		Symbol:        req.Symbol,
		Qty:           req.Qty,
		Notional:      req.Notional,
		Type:          req.Type,
		Side:          req.Side,
		TIF:           req.TIF,
		LimitPrice:    req.LimitPrice,
		StopPrice:     req.StopPrice,
		TrailPrice:    req.TrailPrice,
		TrailPercent:  req.TrailPercent,
		ExtendedHours: req.ExtendedHours,
		Status:        domain.OrderStatusNew,
		SubmittedAt:   sess.SimNow,
	}

	if req.ClientOrderID != "" {
		dup, err := c.hasRecentClientOrderID(ctx, acct.ID, req.ClientOrderID, sess.SimNow)
		if err != nil {
			return domain.Order{}, fmt.Errorf("session: check duplicate client_order_id: %w", err)
		}
		if dup {
			return domain.Order{}, simerr.Field(simerr.KindConflict, "client_order_id", "an order with client_order_id %q was already submitted on this account within the last 24h", req.ClientOrderID)
		}
	}

	bar, hasBar, err := c.bars.GetBar(ctx, order.Symbol, sess.SimNow, domain.ResolutionMinute)
	if err != nil {
		return domain.Order{}, fmt.Errorf("session: get bar for %s: %w", order.Symbol, err)
	}
	var currentPrice *money.Decimal
	if hasBar {
		cp := bar.Close
		currentPrice = &cp
	}

	verrs := c.validator.Validate(validator.Input{
		Order:        order,
		CurrentPrice: currentPrice,
		MarketOpen:   simclock.IsMarketOpen(sess.SimNow),
		BuyingPower:  acct.BuyingPower,
	})

	tracker, err := c.loadTracker(ctx, acct.ID)
	if err != nil {
		return domain.Order{}, err
	}
	pdtRejected := false
	if verrs.IsEmpty() {
		verdict := tracker.ValidateTrade(acct, order.Symbol, order.Side, sess.SimNow, c.policy.PdtMinEquityDecimal())
		if verdict == daytrade.VerdictRejected {
			verrs = append(verrs, simerr.New(simerr.KindPdtViolation, "order would exceed the pattern-day-trader limit for an account below the $25,000 minimum equity"))
			pdtRejected = true
		} else if verdict == daytrade.VerdictWarning {
			c.metrics.PdtWarnings.Inc()
		}
	}

	c.metrics.OrdersSubmitted.Inc("symbol", string(order.Symbol), "side", string(order.Side))

	if !verrs.IsEmpty() {
		order.Status = domain.OrderStatusRejected
		order.RejectReason = verrs.First().Error()
		failedAt := sess.SimNow
		order.FailedAt = &failedAt
		if err := c.sessions.SaveOrder(ctx, order); err != nil {
			return domain.Order{}, fmt.Errorf("session: persist rejected order: %w", err)
		}
		c.metrics.OrdersRejected.Inc("symbol", string(order.Symbol))
		if pdtRejected {
			c.metrics.PdtViolations.Inc()
		}
		return order, verrs
	}

	order.Status = domain.OrderStatusAccepted
	if err := c.sessions.SaveOrder(ctx, order); err != nil {
		return domain.Order{}, fmt.Errorf("session: persist accepted order: %w", err)
	}

	if order.Type == domain.OrderTypeMarket && hasBar {
		outcome, err := c.engine.Process(order, &bar, sess.SimNow)
		if err != nil {
			return order, nil // e.g. NotImplemented on a market order never happens; leave accepted
		}
		if outcome.Fill.Filled {
			if _, err := c.applyFill(ctx, sess, acct, &order, outcome.Fill, outcome.Status, tracker); err != nil {
				return domain.Order{}, fmt.Errorf("session: apply immediate fill: %w", err)
			}
		} else if outcome.Status != order.Status {
			order.Status = outcome.Status
			setTerminalTimestamp(&order, sess.SimNow)
			if err := c.sessions.SaveOrder(ctx, order); err != nil {
				return domain.Order{}, fmt.Errorf("session: persist order status: %w", err)
			}
		}
	}

	return order, nil
}

// GetOrder is a direct pass-through.
func (c *Controller) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	return c.sessions.GetOrder(ctx, orderID)
}

// ListOrders is a direct pass-through.
func (c *Controller) ListOrders(ctx context.Context, accountID string) ([]domain.Order, error) {
	return c.sessions.ListOrders(ctx, accountID)
}

// ListPositions is a direct pass-through.
func (c *Controller) ListPositions(ctx context.Context, accountID string) ([]domain.Position, error) {
	return c.sessions.ListPositions(ctx, accountID)
}

// GetPosition is a direct pass-through.
func (c *Controller) GetPosition(ctx context.Context, accountID, symbol string) (domain.Position, bool, error) {
	return c.sessions.GetPosition(ctx, accountID, symbol)
}

// CancelOrder implements spec §4.8's cancelOrder.
func (c *Controller) CancelOrder(ctx context.Context, orderID string) (domain.Order, error) {
	order, err := c.sessions.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("session: load order %s: %w", orderID, err)
	}

	lock := c.lockFor(order.SessionID)
	lock.Lock()
	defer lock.Unlock()

	order, err = c.sessions.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("session: reload order %s: %w", orderID, err)
	}

	switch order.Status {
	case domain.OrderStatusNew, domain.OrderStatusAccepted, domain.OrderStatusPartiallyFilled, domain.OrderStatusPendingNew:
		// cancellable
	default:
		return domain.Order{}, simerr.New(simerr.KindConflict, "order %s in status %s cannot be cancelled", orderID, order.Status)
	}

	sess, err := c.sessions.GetSession(ctx, order.SessionID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("session: load session %s: %w", order.SessionID, err)
	}

	order.Status = domain.OrderStatusCancelled
	cancelledAt := sess.SimNow
	order.CancelledAt = &cancelledAt
	if err := c.sessions.SaveOrder(ctx, order); err != nil {
		return domain.Order{}, fmt.Errorf("session: persist cancelled order: %w", err)
	}
	return order, nil
}

// AdvanceRequest bundles the inputs POST /sessions/{id}/time/advance
// accepts: exactly one of Duration or TargetTime should be set; neither set
// defaults to +1 minute (spec §6).
type AdvanceRequest struct {
	Duration   *time.Duration
	TargetTime *time.Time
}

// AdvanceTime implements spec §4.8's advanceTime: apply the clock, gather
// active orders, fetch latest bars, run the matching engine batch, apply
// fills, and expire/cancel per TIF. Orders, accounts, positions, trade
// records and the session are saved through separate SessionStore calls
// with no enclosing transaction; an order whose save fails is skipped and
// the writes already made stay in place.
func (c *Controller) AdvanceTime(ctx context.Context, sessionID string, req AdvanceRequest) (domain.Session, error) {
	lock := c.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	c.metrics.TimeAdvances.Inc("session", sessionID)

	sess, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("session: load session %s: %w", sessionID, err)
	}

	clock := simclock.Restore(sess)
	if req.TargetTime != nil {
		if _, _, err := clock.AdvanceTo(*req.TargetTime); err != nil {
			return domain.Session{}, err
		}
	} else {
		d := time.Minute
		if req.Duration != nil {
			d = *req.Duration
		}
		if _, _, err := clock.AdvanceBy(d); err != nil {
			return domain.Session{}, err
		}
	}
	sess = syncClockToSession(clock, sess)

	active, err := c.sessions.ListActiveOrders(ctx, sessionID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("session: list active orders: %w", err)
	}

	symbols := distinctSymbols(active)
	barsBySymbol, err := c.bars.GetLatestBars(ctx, symbols, sess.SimNow)
	if err != nil {
		return domain.Session{}, fmt.Errorf("session: get latest bars: %w", err)
	}

	results := c.engine.ProcessPending(active, barsBySymbol, sess.SimNow)

	accounts := make(map[string]domain.Account)
	trackers := make(map[string]*daytrade.Tracker)
	for _, r := range results {
		if r.Err != nil {
			continue // one order's failure never blocks the rest (spec §4.3.7)
		}
		order := r.Order

		acct, ok := accounts[order.AccountID]
		if !ok {
			acct, err = c.sessions.GetAccount(ctx, order.AccountID)
			if err != nil {
				continue
			}
		}
		tracker, ok := trackers[order.AccountID]
		if !ok {
			tracker, err = c.loadTracker(ctx, order.AccountID)
			if err != nil {
				continue
			}
		}

		if r.Outcome.Fill.Filled {
			acct, err = c.applyFill(ctx, sess, acct, &order, r.Outcome.Fill, r.Outcome.Status, tracker)
			if err != nil {
				continue
			}
		} else if r.Outcome.Status != order.Status {
			order.Status = r.Outcome.Status
			setTerminalTimestamp(&order, sess.SimNow)
			if err := c.sessions.SaveOrder(ctx, order); err != nil {
				continue
			}
		}
		accounts[order.AccountID] = acct
		trackers[order.AccountID] = tracker
	}

	// Opportunistic purge of each touched account's trade-record history
	// (spec §4.7).
	cutoff := sess.SimNow.AddDate(0, 0, -6)
	for acctID := range trackers {
		_ = c.sessions.PurgeTradeRecordsBefore(ctx, acctID, cutoff)
	}

	if clock.AtEnd() {
		sess.Status = domain.SessionCompleted
	}
	sess.UpdatedAt = time.Now().UTC()
	if err := c.sessions.SaveSession(ctx, sess); err != nil {
		return domain.Session{}, fmt.Errorf("session: persist session: %w", err)
	}
	return sess, nil
}

// Play delegates to the clock (spec §4.8).
func (c *Controller) Play(ctx context.Context, sessionID string) error {
	err := c.mutateClock(ctx, sessionID, func(cl *simclock.Clock) error {
		cl.Play()
		return nil
	})
	if err == nil {
		c.activeSessions.Add(1)
		c.metrics.ActiveSessions.Set(float64(c.activeSessions.Load()))
	}
	return err
}

// Pause delegates to the clock.
func (c *Controller) Pause(ctx context.Context, sessionID string) error {
	err := c.mutateClock(ctx, sessionID, func(cl *simclock.Clock) error {
		cl.Pause()
		return nil
	})
	if err == nil {
		if n := c.activeSessions.Add(-1); n < 0 {
			c.activeSessions.Store(0)
			n = 0
		}
		c.metrics.ActiveSessions.Set(float64(c.activeSessions.Load()))
	}
	return err
}

// SetSpeed delegates to the clock.
func (c *Controller) SetSpeed(ctx context.Context, sessionID string, speed float64) error {
	return c.mutateClock(ctx, sessionID, func(cl *simclock.Clock) error {
		return cl.SetSpeed(speed)
	})
}

func (c *Controller) mutateClock(ctx context.Context, sessionID string, f func(*simclock.Clock) error) error {
	lock := c.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("session: load session %s: %w", sessionID, err)
	}
	clock := simclock.Restore(sess)
	if err := f(clock); err != nil {
		return err
	}
	sess = syncClockToSession(clock, sess)
	sess.UpdatedAt = time.Now().UTC()
	return c.sessions.SaveSession(ctx, sess)
}

// Quote is the synthesized bid/ask spec §4.8 describes: the current bar's
// close +/- a configured fraction of its range.
type Quote struct {
	Symbol string
	Bid    money.Decimal
	Ask    money.Decimal
	T      time.Time
}

// Quote implements spec §4.8's quote(symbol).
func (c *Controller) Quote(ctx context.Context, sessionID, symbol string) (Quote, error) {
	sess, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return Quote{}, fmt.Errorf("session: load session %s: %w", sessionID, err)
	}
	bar, ok, err := c.bars.GetBar(ctx, symbol, sess.SimNow, domain.ResolutionMinute)
	if err != nil {
		return Quote{}, fmt.Errorf("session: get bar for %s: %w", symbol, err)
	}
	if !ok {
		return Quote{}, simerr.New(simerr.KindNotFound, "no bar available for %s at or before %s", symbol, sess.SimNow)
	}
	rate := money.New(money.FromFloatString(c.policy.QuoteSpreadRate))
	spread := bar.Range().Mul(rate)
	return Quote{
		Symbol: symbol,
		Bid:    bar.Close.Sub(spread),
		Ask:    bar.Close.Add(spread),
		T:      sess.SimNow,
	}, nil
}

// applyFill applies one fill across the position keeper, account keeper,
// and day-trade tracker, updates the order's fill bookkeeping, and persists
// every mutated record. tracker is loaded once by the caller and shared
// across a batch.
func (c *Controller) applyFill(ctx context.Context, sess domain.Session, acct domain.Account, order *domain.Order, fill domain.FillResult, status domain.OrderStatus, tracker *daytrade.Tracker) (domain.Account, error) {
	totalFilledQty := order.FilledQty.Add(fill.Qty)
	weighted := order.FilledAvgPrice.Mul(order.FilledQty).Add(fill.Price.Mul(fill.Qty))
	order.FilledAvgPrice = weighted.Div(totalFilledQty)
	order.FilledQty = totalFilledQty
	order.Status = status
	filledAt := sess.SimNow
	order.FilledAt = &filledAt
	if err := c.sessions.SaveOrder(ctx, *order); err != nil {
		return acct, fmt.Errorf("session: persist filled order: %w", err)
	}

	pos, found, err := c.sessions.GetPosition(ctx, acct.ID, order.Symbol)
	if err != nil {
		return acct, fmt.Errorf("session: load position %s/%s: %w", acct.ID, order.Symbol, err)
	}
	if !found {
		pos = domain.Position{
			ID:        idgen.Position(),
			SessionID: sess.ID,
			AccountID: acct.ID,
			Symbol:    order.Symbol,
			OpenedAt:  sess.SimNow,
		}
	}
	pos = position.ApplyFill(pos, fill.Qty, fill.Price, order.Side)
	pos = position.UpdatePrices(pos, fill.Price, pos.LastDayPrice)
	pos.LastUpdated = sess.SimNow
	if err := c.sessions.SavePosition(ctx, pos); err != nil {
		return acct, fmt.Errorf("session: persist position: %w", err)
	}

	acct = account.ApplyFill(acct, fill.Qty, fill.Price, order.Side)

	c.metrics.Fills.Inc("symbol", string(order.Symbol))
	if bar, hasBar, err := c.bars.GetBar(ctx, order.Symbol, sess.SimNow, domain.ResolutionMinute); err == nil && hasBar && bar.Close.IsPositive() {
		bps, _ := fill.Price.Sub(bar.Close).Abs().Div(bar.Close).Mul(money.FromInt(10000)).Float64()
		c.metrics.FillSlippageBps.Observe(bps, "symbol", string(order.Symbol))
	}

	tracker.Record(domain.TradeRecord{
		AccountID: acct.ID,
		Symbol:    order.Symbol,
		Side:      order.Side,
		Qty:       fill.Qty,
		T:         sess.SimNow,
	})
	if err := c.sessions.SaveTradeRecord(ctx, tracker.Records()[len(tracker.Records())-1]); err != nil {
		return acct, fmt.Errorf("session: persist trade record: %w", err)
	}
	acct.DayTradeCount = tracker.Count(acct.ID, sess.SimNow)
	acct.PatternDayTrader = tracker.PatternDayTrader(acct.ID, sess.SimNow)

	positions, err := c.sessions.ListPositions(ctx, acct.ID)
	if err != nil {
		return acct, fmt.Errorf("session: list positions for %s: %w", acct.ID, err)
	}
	totals := account.Totals{LongMarketValue: money.Zero, ShortMarketValue: money.Zero}
	for _, p := range positions {
		if p.Qty.IsNegative() {
			totals.ShortMarketValue = totals.ShortMarketValue.Add(p.MarketValue.Abs())
		} else {
			totals.LongMarketValue = totals.LongMarketValue.Add(p.MarketValue)
		}
	}
	acct = account.Recalculate(acct, totals, c.policy)
	if err := c.sessions.SaveAccount(ctx, acct); err != nil {
		return acct, fmt.Errorf("session: persist account: %w", err)
	}
	return acct, nil
}

// loadTracker rebuilds a Tracker from an account's persisted trade records.
func (c *Controller) loadTracker(ctx context.Context, accountID string) (*daytrade.Tracker, error) {
	records, err := c.sessions.ListTradeRecords(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("session: list trade records for %s: %w", accountID, err)
	}
	return daytrade.Restore(records), nil
}

// hasRecentClientOrderID reports whether accountID already has an order
// carrying clientOrderID submitted within the 24h preceding simNow (spec
// §8's duplicate-clientOrderId rejection rule).
func (c *Controller) hasRecentClientOrderID(ctx context.Context, accountID, clientOrderID string, simNow time.Time) (bool, error) {
	orders, err := c.sessions.ListOrders(ctx, accountID)
	if err != nil {
		return false, fmt.Errorf("session: list orders for %s: %w", accountID, err)
	}
	cutoff := simNow.Add(-24 * time.Hour)
	for _, o := range orders {
		if o.ClientOrderID == clientOrderID && o.SubmittedAt.After(cutoff) {
			return true, nil
		}
	}
	return false, nil
}

// syncClockToSession writes a Clock's mutable fields back onto a Session
// value (the Clock is the source of truth during an operation; the Session
// struct is what gets persisted).
func syncClockToSession(cl *simclock.Clock, s domain.Session) domain.Session {
	s.SimNow = cl.Now()
	s.Playback = cl.Playback()
	s.Speed = cl.Speed()
	s.LastTick = cl.LastTick()
	return s
}

// setTerminalTimestamp stamps the timestamp field matching status, when
// status is one of the timestamped terminal states.
func setTerminalTimestamp(o *domain.Order, at time.Time) {
	switch o.Status {
	case domain.OrderStatusExpired:
		o.ExpiredAt = &at
	case domain.OrderStatusCancelled:
		o.CancelledAt = &at
	case domain.OrderStatusRejected:
		o.FailedAt = &at
	case domain.OrderStatusFilled:
		o.FilledAt = &at
	}
}

// distinctSymbols collects the unique, order-independent set of symbols
// referenced by orders, sorted for deterministic downstream iteration.
func distinctSymbols(orders []domain.Order) []string {
	seen := make(map[string]struct{}, len(orders))
	symbols := make([]string, 0, len(orders))
	for _, o := range orders {
		if _, ok := seen[o.Symbol]; ok {
			continue
		}
		seen[o.Symbol] = struct{}{}
		symbols = append(symbols, o.Symbol)
	}
	sort.Strings(symbols)
	return symbols
}
