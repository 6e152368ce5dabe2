// Package postgres implements store.SessionStore over Postgres via
// database/sql with the pgx stdlib driver, mirroring the teacher's
// libs/database connection-pooling and retry conventions.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"jax-trading-assistant/internal/domain"
	"jax-trading-assistant/internal/money"
	"jax-trading-assistant/internal/simerr"
)

// Config mirrors the teacher's libs/database.Config: connection pool
// tuning plus retry parameters for the initial connect.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	RetryAttempts   int
	RetryDelay      time.Duration
}

// DefaultConfig returns production-sensible pool settings.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		RetryAttempts:   3,
		RetryDelay:      time.Second,
	}
}

// Store is a Postgres-backed store.SessionStore.
type Store struct {
	db *sql.DB
}

// Connect opens a pool against cfg.DSN, retrying with exponential backoff,
// and verifies connectivity with a ping.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres: empty DSN")
	}

	var db *sql.DB
	var err error
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 3
	}

	for attempt := 0; attempt <= attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
		db, err = sql.Open("pgx", cfg.DSN)
		if err != nil {
			continue
		}
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		if err = db.PingContext(ctx); err == nil {
			return &Store{db: db}, nil
		}
		db.Close()
	}
	return nil, fmt.Errorf("postgres: connect after %d attempts: %w", attempts+1, err)
}

// Close releases the underlying pool.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying pool so a bar store can share the same
// connection rather than opening a second one against the same DSN.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) CreateSession(ctx context.Context, sess domain.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, owner_key, sim_start, sim_end, sim_now, playback, speed, last_tick,
			initial_cash, realized_pnl, unrealized_pnl, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		sess.ID, sess.OwnerKey, sess.SimStart, sess.SimEnd, sess.SimNow, sess.Playback, sess.Speed, sess.LastTick,
		sess.InitialCash.String(), sess.RealizedPnL.String(), sess.UnrealizedPnL.String(), sess.Status, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: create session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (domain.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_key, sim_start, sim_end, sim_now, playback, speed, last_tick,
			initial_cash, realized_pnl, unrealized_pnl, status, created_at, updated_at
		FROM sessions WHERE id = $1`, id)
	return scanSession(row)
}

func (s *Store) ListSessions(ctx context.Context, ownerKey string) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_key, sim_start, sim_end, sim_now, playback, speed, last_tick,
			initial_cash, realized_pnl, unrealized_pnl, status, created_at, updated_at
		FROM sessions WHERE $1 = '' OR owner_key = $1 ORDER BY created_at`, ownerKey)
	if err != nil {
		return nil, fmt.Errorf("postgres: list sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *Store) SaveSession(ctx context.Context, sess domain.Session) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET sim_now=$2, playback=$3, speed=$4, last_tick=$5,
			realized_pnl=$6, unrealized_pnl=$7, status=$8, updated_at=$9
		WHERE id = $1`,
		sess.ID, sess.SimNow, sess.Playback, sess.Speed, sess.LastTick,
		sess.RealizedPnL.String(), sess.UnrealizedPnL.String(), sess.Status, sess.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: save session: %w", err)
	}
	return requireRowsAffected(res, "session", sess.ID)
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete session: %w", err)
	}
	return requireRowsAffected(res, "session", id)
}

func (s *Store) CreateAccount(ctx context.Context, a domain.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, session_id, cash, cash_withdrawable, buying_power, day_trading_buying_power,
			initial_margin, maintenance_margin, long_market_value, short_market_value, equity, last_equity,
			pattern_day_trader, day_trade_count, trading_blocked, account_blocked, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		a.ID, a.SessionID, a.Cash.String(), a.CashWithdrawable.String(), a.BuyingPower.String(), a.DayTradingBuyingPower.String(),
		a.InitialMargin.String(), a.MaintenanceMargin.String(), a.LongMarketValue.String(), a.ShortMarketValue.String(),
		a.Equity.String(), a.LastEquity.String(), a.PatternDayTrader, a.DayTradeCount, a.TradingBlocked, a.AccountBlocked,
		a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: create account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, accountID string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, cash, cash_withdrawable, buying_power, day_trading_buying_power,
			initial_margin, maintenance_margin, long_market_value, short_market_value, equity, last_equity,
			pattern_day_trader, day_trade_count, trading_blocked, account_blocked, created_at, updated_at
		FROM accounts WHERE id = $1`, accountID)
	return scanAccount(row)
}

func (s *Store) ListAccounts(ctx context.Context, sessionID string) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, cash, cash_withdrawable, buying_power, day_trading_buying_power,
			initial_margin, maintenance_margin, long_market_value, short_market_value, equity, last_equity,
			pattern_day_trader, day_trade_count, trading_blocked, account_blocked, created_at, updated_at
		FROM accounts WHERE session_id = $1 ORDER BY created_at`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list accounts: %w", err)
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) SaveAccount(ctx context.Context, a domain.Account) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET cash=$2, cash_withdrawable=$3, buying_power=$4, day_trading_buying_power=$5,
			initial_margin=$6, maintenance_margin=$7, long_market_value=$8, short_market_value=$9,
			equity=$10, last_equity=$11, pattern_day_trader=$12, day_trade_count=$13,
			trading_blocked=$14, account_blocked=$15, updated_at=$16
		WHERE id = $1`,
		a.ID, a.Cash.String(), a.CashWithdrawable.String(), a.BuyingPower.String(), a.DayTradingBuyingPower.String(),
		a.InitialMargin.String(), a.MaintenanceMargin.String(), a.LongMarketValue.String(), a.ShortMarketValue.String(),
		a.Equity.String(), a.LastEquity.String(), a.PatternDayTrader, a.DayTradeCount,
		a.TradingBlocked, a.AccountBlocked, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: save account: %w", err)
	}
	return requireRowsAffected(res, "account", a.ID)
}

func (s *Store) SaveOrder(ctx context.Context, o domain.Order) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (id, session_id, account_id, client_order_id, symbol, qty, notional, type, side, tif,
			limit_price, stop_price, trail_price, trail_percent, extended_hours, status,
			filled_qty, filled_avg_price, reject_reason, submitted_at, filled_at, expired_at, cancelled_at, failed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
		ON CONFLICT (id) DO UPDATE SET status=$16, filled_qty=$17, filled_avg_price=$18, reject_reason=$19,
			filled_at=$21, expired_at=$22, cancelled_at=$23, failed_at=$24`,
		o.ID, o.SessionID, o.AccountID, nullString(o.ClientOrderID), o.Symbol,
		nullDecimal(o.Qty), nullDecimal(o.Notional), o.Type, o.Side, o.TIF,
		nullDecimal(o.LimitPrice), nullDecimal(o.StopPrice), nullDecimal(o.TrailPrice), nullDecimal(o.TrailPercent),
		o.ExtendedHours, o.Status, o.FilledQty.String(), o.FilledAvgPrice.String(), nullString(o.RejectReason),
		o.SubmittedAt, nullTime(o.FilledAt), nullTime(o.ExpiredAt), nullTime(o.CancelledAt), nullTime(o.FailedAt))
	if err != nil {
		return fmt.Errorf("postgres: save order: %w", err)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	row := s.db.QueryRowContext(ctx, orderSelect+` WHERE id = $1`, orderID)
	return scanOrder(row)
}

func (s *Store) ListOrders(ctx context.Context, accountID string) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, orderSelect+` WHERE account_id = $1 ORDER BY submitted_at`, accountID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list orders: %w", err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (s *Store) ListActiveOrders(ctx context.Context, sessionID string) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, orderSelect+`
		WHERE session_id = $1 AND status NOT IN ('filled','doneForDay','cancelled','expired','replaced','rejected')
		ORDER BY submitted_at, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list active orders: %w", err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (s *Store) GetPosition(ctx context.Context, accountID, symbol string) (domain.Position, bool, error) {
	row := s.db.QueryRowContext(ctx, positionSelect+` WHERE account_id = $1 AND symbol = $2`, accountID, symbol)
	p, err := scanPosition(row)
	if err == sql.ErrNoRows {
		return domain.Position{}, false, nil
	}
	if err != nil {
		return domain.Position{}, false, err
	}
	return p, true, nil
}

func (s *Store) SavePosition(ctx context.Context, p domain.Position) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO positions (id, session_id, account_id, symbol, qty, avg_entry_price, current_price, last_day_price,
			market_value, unrealized_pnl, unrealized_intraday_pnl, opened_at, last_updated)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (account_id, symbol) DO UPDATE SET qty=$5, avg_entry_price=$6, current_price=$7,
			last_day_price=$8, market_value=$9, unrealized_pnl=$10, unrealized_intraday_pnl=$11, last_updated=$13`,
		p.ID, p.SessionID, p.AccountID, p.Symbol, p.Qty.String(), p.AvgEntryPrice.String(), p.CurrentPrice.String(),
		p.LastDayPrice.String(), p.MarketValue.String(), p.UnrealizedPnL.String(), p.UnrealizedIntradayPnL.String(),
		p.OpenedAt, p.LastUpdated)
	if err != nil {
		return fmt.Errorf("postgres: save position: %w", err)
	}
	return nil
}

func (s *Store) ListPositions(ctx context.Context, accountID string) ([]domain.Position, error) {
	rows, err := s.db.QueryContext(ctx, positionSelect+` WHERE account_id = $1 ORDER BY symbol`, accountID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list positions: %w", err)
	}
	defer rows.Close()

	var out []domain.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) ListTradeRecords(ctx context.Context, accountID string) ([]domain.TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account_id, symbol, side, qty, t FROM trade_records WHERE account_id = $1 ORDER BY t`, accountID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trade records: %w", err)
	}
	defer rows.Close()

	var out []domain.TradeRecord
	for rows.Next() {
		var r domain.TradeRecord
		var qty string
		if err := rows.Scan(&r.AccountID, &r.Symbol, &r.Side, &qty, &r.T); err != nil {
			return nil, fmt.Errorf("postgres: scan trade record: %w", err)
		}
		d, err := money.Parse(qty)
		if err != nil {
			return nil, err
		}
		r.Qty = d
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) SaveTradeRecord(ctx context.Context, r domain.TradeRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trade_records (account_id, symbol, side, qty, t) VALUES ($1,$2,$3,$4,$5)`,
		r.AccountID, r.Symbol, r.Side, r.Qty.String(), r.T)
	if err != nil {
		return fmt.Errorf("postgres: save trade record: %w", err)
	}
	return nil
}

func (s *Store) PurgeTradeRecordsBefore(ctx context.Context, accountID string, before time.Time) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM trade_records WHERE account_id = $1 AND t < $2`, accountID, before)
	if err != nil {
		return fmt.Errorf("postgres: purge trade records: %w", err)
	}
	return nil
}

func requireRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: rows affected: %w", err)
	}
	if n == 0 {
		return simerr.New(simerr.KindNotFound, "%s %s not found", kind, id)
	}
	return nil
}
