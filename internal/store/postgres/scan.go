package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"jax-trading-assistant/internal/domain"
	"jax-trading-assistant/internal/money"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows, letting the
// scanX helpers serve single-row and multi-row queries alike.
type rowScanner interface {
	Scan(dest ...any) error
}

const orderSelect = `
	SELECT id, session_id, account_id, client_order_id, symbol, qty, notional, type, side, tif,
		limit_price, stop_price, trail_price, trail_percent, extended_hours, status,
		filled_qty, filled_avg_price, reject_reason, submitted_at, filled_at, expired_at, cancelled_at, failed_at
	FROM orders`

const positionSelect = `
	SELECT id, session_id, account_id, symbol, qty, avg_entry_price, current_price, last_day_price,
		market_value, unrealized_pnl, unrealized_intraday_pnl, opened_at, last_updated
	FROM positions`

func scanSession(r rowScanner) (domain.Session, error) {
	var s domain.Session
	var initialCash, realized, unrealized string
	if err := r.Scan(&s.ID, &s.OwnerKey, &s.SimStart, &s.SimEnd, &s.SimNow, &s.Playback, &s.Speed, &s.LastTick,
		&initialCash, &realized, &unrealized, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return domain.Session{}, err
		}
		return domain.Session{}, fmt.Errorf("postgres: scan session: %w", err)
	}
	var err error
	if s.InitialCash, err = money.Parse(initialCash); err != nil {
		return domain.Session{}, err
	}
	if s.RealizedPnL, err = money.Parse(realized); err != nil {
		return domain.Session{}, err
	}
	if s.UnrealizedPnL, err = money.Parse(unrealized); err != nil {
		return domain.Session{}, err
	}
	return s, nil
}

func scanAccount(r rowScanner) (domain.Account, error) {
	var a domain.Account
	var cash, cashW, bp, dtbp, im, mm, lmv, smv, eq, lastEq string
	if err := r.Scan(&a.ID, &a.SessionID, &cash, &cashW, &bp, &dtbp, &im, &mm, &lmv, &smv, &eq, &lastEq,
		&a.PatternDayTrader, &a.DayTradeCount, &a.TradingBlocked, &a.AccountBlocked, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return domain.Account{}, err
		}
		return domain.Account{}, fmt.Errorf("postgres: scan account: %w", err)
	}
	fields := []struct {
		dst *money.Decimal
		src string
	}{
		{&a.Cash, cash}, {&a.CashWithdrawable, cashW}, {&a.BuyingPower, bp}, {&a.DayTradingBuyingPower, dtbp},
		{&a.InitialMargin, im}, {&a.MaintenanceMargin, mm}, {&a.LongMarketValue, lmv}, {&a.ShortMarketValue, smv},
		{&a.Equity, eq}, {&a.LastEquity, lastEq},
	}
	for _, f := range fields {
		d, err := money.Parse(f.src)
		if err != nil {
			return domain.Account{}, err
		}
		*f.dst = d
	}
	return a, nil
}

func scanOrder(r rowScanner) (domain.Order, error) {
	var o domain.Order
	var clientOrderID, rejectReason sql.NullString
	var qty, notional, limitPrice, stopPrice, trailPrice, trailPercent sql.NullString
	var filledQty, filledAvgPrice string
	var filledAt, expiredAt, cancelledAt, failedAt sql.NullTime

	if err := r.Scan(&o.ID, &o.SessionID, &o.AccountID, &clientOrderID, &o.Symbol, &qty, &notional, &o.Type, &o.Side, &o.TIF,
		&limitPrice, &stopPrice, &trailPrice, &trailPercent, &o.ExtendedHours, &o.Status,
		&filledQty, &filledAvgPrice, &rejectReason, &o.SubmittedAt, &filledAt, &expiredAt, &cancelledAt, &failedAt); err != nil {
		if err == sql.ErrNoRows {
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("postgres: scan order: %w", err)
	}

	o.ClientOrderID = clientOrderID.String
	o.RejectReason = rejectReason.String

	var err error
	if o.Qty, err = nullableDecimal(qty); err != nil {
		return domain.Order{}, err
	}
	if o.Notional, err = nullableDecimal(notional); err != nil {
		return domain.Order{}, err
	}
	if o.LimitPrice, err = nullableDecimal(limitPrice); err != nil {
		return domain.Order{}, err
	}
	if o.StopPrice, err = nullableDecimal(stopPrice); err != nil {
		return domain.Order{}, err
	}
	if o.TrailPrice, err = nullableDecimal(trailPrice); err != nil {
		return domain.Order{}, err
	}
	if o.TrailPercent, err = nullableDecimal(trailPercent); err != nil {
		return domain.Order{}, err
	}
	if o.FilledQty, err = money.Parse(filledQty); err != nil {
		return domain.Order{}, err
	}
	if o.FilledAvgPrice, err = money.Parse(filledAvgPrice); err != nil {
		return domain.Order{}, err
	}
	o.FilledAt = nullableTime(filledAt)
	o.ExpiredAt = nullableTime(expiredAt)
	o.CancelledAt = nullableTime(cancelledAt)
	o.FailedAt = nullableTime(failedAt)
	return o, nil
}

func scanOrders(rows *sql.Rows) ([]domain.Order, error) {
	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanPosition(r rowScanner) (domain.Position, error) {
	var p domain.Position
	var qty, avgEntry, current, lastDay, mv, upnl, uipnl string
	if err := r.Scan(&p.ID, &p.SessionID, &p.AccountID, &p.Symbol, &qty, &avgEntry, &current, &lastDay,
		&mv, &upnl, &uipnl, &p.OpenedAt, &p.LastUpdated); err != nil {
		if err == sql.ErrNoRows {
			return domain.Position{}, err
		}
		return domain.Position{}, fmt.Errorf("postgres: scan position: %w", err)
	}
	fields := []struct {
		dst *money.Decimal
		src string
	}{
		{&p.Qty, qty}, {&p.AvgEntryPrice, avgEntry}, {&p.CurrentPrice, current}, {&p.LastDayPrice, lastDay},
		{&p.MarketValue, mv}, {&p.UnrealizedPnL, upnl}, {&p.UnrealizedIntradayPnL, uipnl},
	}
	for _, f := range fields {
		d, err := money.Parse(f.src)
		if err != nil {
			return domain.Position{}, err
		}
		*f.dst = d
	}
	return p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullableTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullDecimal(d *money.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullableDecimal(s sql.NullString) (*money.Decimal, error) {
	if !s.Valid {
		return nil, nil
	}
	d, err := money.Parse(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
