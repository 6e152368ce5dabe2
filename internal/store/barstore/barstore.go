// Package barstore implements store.BarStore (C1): the latest bar at or
// before a timestamp, and bar ranges, per symbol. It is shared read-only
// across sessions, so every query here is side-effect free.
package barstore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	"jax-trading-assistant/internal/domain"
	"jax-trading-assistant/internal/money"
)

// Store is a Postgres-backed store.BarStore over a time-series bars table
// populated by the ingestion CLI (cmd/bars-ingest).
type Store struct {
	db *sql.DB
}

// New wraps an already-open *sql.DB (shared with, or independent of, the
// session store's connection).
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetBar(ctx context.Context, symbol string, asOf time.Time, res domain.Resolution) (domain.Bar, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT symbol, t, open, high, low, close, volume, vwap, n_trades
		FROM bars
		WHERE symbol = $1 AND resolution = $2 AND t <= $3
		ORDER BY t DESC
		LIMIT 1`, normalizeSymbol(symbol), res, asOf)

	bar, err := scanBar(row)
	if err == sql.ErrNoRows {
		return domain.Bar{}, false, nil
	}
	if err != nil {
		return domain.Bar{}, false, fmt.Errorf("barstore: get bar: %w", err)
	}
	return bar, true, nil
}

func (s *Store) GetBars(ctx context.Context, symbol string, start, end time.Time, res domain.Resolution, limit int) ([]domain.Bar, error) {
	query := `
		SELECT symbol, t, open, high, low, close, volume, vwap, n_trades
		FROM bars
		WHERE symbol = $1 AND resolution = $2 AND t >= $3 AND t <= $4
		ORDER BY t ASC`
	args := []any{normalizeSymbol(symbol), res, start, end}
	if limit > 0 {
		query += ` LIMIT $5`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("barstore: get bars: %w", err)
	}
	defer rows.Close()

	var out []domain.Bar
	for rows.Next() {
		bar, err := scanBar(rows)
		if err != nil {
			return nil, fmt.Errorf("barstore: scan bar: %w", err)
		}
		out = append(out, bar)
	}
	return out, rows.Err()
}

// GetLatestBars fans the per-symbol lookups out across the connection pool
// concurrently, since advanceTime's symbol set can span the whole active
// order book and each query is an independent round trip.
func (s *Store) GetLatestBars(ctx context.Context, symbols []string, asOf time.Time) (map[string]domain.Bar, error) {
	var mu sync.Mutex
	out := make(map[string]domain.Bar, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	for _, sym := range symbols {
		sym := sym
		g.Go(func() error {
			bar, ok, err := s.GetBar(gctx, sym, asOf, domain.ResolutionMinute)
			if err != nil {
				return err
			}
			if ok {
				mu.Lock()
				out[normalizeSymbol(sym)] = bar
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// PutBar upserts one bar, used by the ingestion CLI (cmd/bars-ingest) to
// populate the table this Store otherwise only reads.
func (s *Store) PutBar(ctx context.Context, b domain.Bar, res domain.Resolution) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("barstore: put bar: %w", err)
	}
	var vwap *string
	if b.VWAP != nil {
		v := b.VWAP.String()
		vwap = &v
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bars (symbol, resolution, t, open, high, low, close, volume, vwap, n_trades)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (symbol, resolution, t) DO UPDATE SET
			open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
			close = EXCLUDED.close, volume = EXCLUDED.volume,
			vwap = EXCLUDED.vwap, n_trades = EXCLUDED.n_trades`,
		normalizeSymbol(b.Symbol), res, b.T, b.Open.String(), b.High.String(), b.Low.String(),
		b.Close.String(), b.Volume.String(), vwap, b.NTrades)
	if err != nil {
		return fmt.Errorf("barstore: put bar: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBar(r rowScanner) (domain.Bar, error) {
	var b domain.Bar
	var open, high, low, close, volume string
	var vwap sql.NullString
	var nTrades sql.NullInt64
	if err := r.Scan(&b.Symbol, &b.T, &open, &high, &low, &close, &volume, &vwap, &nTrades); err != nil {
		return domain.Bar{}, err
	}
	var err error
	if b.Open, err = money.Parse(open); err != nil {
		return domain.Bar{}, err
	}
	if b.High, err = money.Parse(high); err != nil {
		return domain.Bar{}, err
	}
	if b.Low, err = money.Parse(low); err != nil {
		return domain.Bar{}, err
	}
	if b.Close, err = money.Parse(close); err != nil {
		return domain.Bar{}, err
	}
	if b.Volume, err = money.Parse(volume); err != nil {
		return domain.Bar{}, err
	}
	if vwap.Valid {
		v, err := money.Parse(vwap.String)
		if err != nil {
			return domain.Bar{}, err
		}
		b.VWAP = &v
	}
	if nTrades.Valid {
		n := nTrades.Int64
		b.NTrades = &n
	}
	return b, nil
}

func normalizeSymbol(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
