// Package rediscache wraps a store.BarStore with a Redis read-through cache
// for getBar lookups, grounded on the teacher's libs/marketdata.Cache
// (quote/candle caching over go-redis). It is optional: sessions can share
// a BarStore directly when Redis isn't configured.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"jax-trading-assistant/internal/domain"
	"jax-trading-assistant/internal/money"
)

// Config configures the cache's Redis connection and entry lifetime.
type Config struct {
	Addr string
	TTL  time.Duration
}

// DefaultConfig returns a short TTL suitable for a fast-advancing
// simulation clock, where stale bars are worse than a cache miss.
func DefaultConfig(addr string) Config {
	return Config{Addr: addr, TTL: 5 * time.Second}
}

// wireBar is the JSON-serializable form of domain.Bar (money.Decimal
// marshals via its own String-based MarshalJSON already, so this mostly
// documents the shape for Redis payloads).
type wireBar struct {
	Symbol  string         `json:"symbol"`
	T       time.Time      `json:"t"`
	Open    string         `json:"open"`
	High    string         `json:"high"`
	Low     string         `json:"low"`
	Close   string         `json:"close"`
	Volume  string         `json:"volume"`
	VWAP    *string        `json:"vwap,omitempty"`
	NTrades *int64         `json:"n_trades,omitempty"`
}

// Cache layers a Redis read-through cache over an underlying BarStore for
// GetBar only — GetBars and GetLatestBars pass straight through, since
// range queries and batch symbol fan-out are a poor fit for a single-key
// cache.
type Cache struct {
	next   barStore
	client *redis.Client
	ttl    time.Duration
}

// barStore is the subset of store.BarStore Cache wraps; declared locally
// to avoid an import cycle back into the store package from its own
// sub-package.
type barStore interface {
	GetBar(ctx context.Context, symbol string, asOf time.Time, res domain.Resolution) (domain.Bar, bool, error)
	GetBars(ctx context.Context, symbol string, start, end time.Time, res domain.Resolution, limit int) ([]domain.Bar, error)
	GetLatestBars(ctx context.Context, symbols []string, asOf time.Time) (map[string]domain.Bar, error)
}

// New wraps next with a Redis read-through cache.
func New(next barStore, cfg Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("rediscache: connect: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Cache{next: next, client: client, ttl: ttl}, nil
}

func (c *Cache) GetBar(ctx context.Context, symbol string, asOf time.Time, res domain.Resolution) (domain.Bar, bool, error) {
	key := cacheKey(symbol, asOf, res)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		bar, perr := decodeBar(data)
		if perr == nil {
			return bar, true, nil
		}
		// Corrupt cache entry: fall through to the underlying store.
	}

	bar, ok, err := c.next.GetBar(ctx, symbol, asOf, res)
	if err != nil || !ok {
		return bar, ok, err
	}

	if encoded, encErr := encodeBar(bar); encErr == nil {
		_ = c.client.Set(ctx, key, encoded, c.ttl).Err() // best-effort; a cache write failure never fails the read
	}
	return bar, true, nil
}

func (c *Cache) GetBars(ctx context.Context, symbol string, start, end time.Time, res domain.Resolution, limit int) ([]domain.Bar, error) {
	return c.next.GetBars(ctx, symbol, start, end, res, limit)
}

func (c *Cache) GetLatestBars(ctx context.Context, symbols []string, asOf time.Time) (map[string]domain.Bar, error) {
	return c.next.GetLatestBars(ctx, symbols, asOf)
}

func cacheKey(symbol string, asOf time.Time, res domain.Resolution) string {
	return fmt.Sprintf("bar:%s:%s:%d", symbol, res, asOf.UnixNano())
}

func encodeBar(b domain.Bar) ([]byte, error) {
	w := wireBar{
		Symbol: b.Symbol,
		T:      b.T,
		Open:   b.Open.String(),
		High:   b.High.String(),
		Low:    b.Low.String(),
		Close:  b.Close.String(),
		Volume: b.Volume.String(),
		NTrades: b.NTrades,
	}
	if b.VWAP != nil {
		s := b.VWAP.String()
		w.VWAP = &s
	}
	return json.Marshal(w)
}

func decodeBar(data []byte) (domain.Bar, error) {
	var w wireBar
	if err := json.Unmarshal(data, &w); err != nil {
		return domain.Bar{}, err
	}
	b := domain.Bar{Symbol: w.Symbol, T: w.T, NTrades: w.NTrades}
	var err error
	if b.Open, err = money.Parse(w.Open); err != nil {
		return domain.Bar{}, err
	}
	if b.High, err = money.Parse(w.High); err != nil {
		return domain.Bar{}, err
	}
	if b.Low, err = money.Parse(w.Low); err != nil {
		return domain.Bar{}, err
	}
	if b.Close, err = money.Parse(w.Close); err != nil {
		return domain.Bar{}, err
	}
	if b.Volume, err = money.Parse(w.Volume); err != nil {
		return domain.Bar{}, err
	}
	if w.VWAP != nil {
		v, err := money.Parse(*w.VWAP)
		if err != nil {
			return domain.Bar{}, err
		}
		b.VWAP = &v
	}
	return b, nil
}
