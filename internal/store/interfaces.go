// Package store declares the external storage contracts consumed by the
// core (C1 BarStore, C2 SessionStore) — spec §2, §6. Implementations live
// under internal/store/memstore, internal/store/postgres, and
// internal/store/barstore; core code depends only on these interfaces.
package store

import (
	"context"
	"time"

	"jax-trading-assistant/internal/domain"
)

// BarStore returns the bar at or before a timestamp and bar ranges per
// symbol (C1). Symbols are uppercased by implementations before lookup.
// Shared read-only; implementations must be safe for concurrent reads
// (spec §5).
type BarStore interface {
	// GetBar returns the latest bar at or before asOf. ok is false when no
	// such bar exists.
	GetBar(ctx context.Context, symbol string, asOf time.Time, res domain.Resolution) (bar domain.Bar, ok bool, err error)

	// GetBars returns bars in [start, end], ascending, capped at limit (0
	// means unlimited).
	GetBars(ctx context.Context, symbol string, start, end time.Time, res domain.Resolution, limit int) ([]domain.Bar, error)

	// GetLatestBars is a batch GetBar over multiple symbols, keyed by
	// symbol in the returned map. Symbols with no bar at or before asOf are
	// simply absent, not an error.
	GetLatestBars(ctx context.Context, symbols []string, asOf time.Time) (map[string]domain.Bar, error)
}

// SessionStore persists sessions, accounts, orders, positions, and
// day-trade records keyed by session (C2). Deletes cascade: removing a
// session removes its accounts, orders, positions, and trade records.
type SessionStore interface {
	CreateSession(ctx context.Context, s domain.Session) error
	GetSession(ctx context.Context, id string) (domain.Session, error)
	ListSessions(ctx context.Context, ownerKey string) ([]domain.Session, error)
	SaveSession(ctx context.Context, s domain.Session) error
	DeleteSession(ctx context.Context, id string) error

	CreateAccount(ctx context.Context, a domain.Account) error
	GetAccount(ctx context.Context, accountID string) (domain.Account, error)
	ListAccounts(ctx context.Context, sessionID string) ([]domain.Account, error)
	SaveAccount(ctx context.Context, a domain.Account) error

	SaveOrder(ctx context.Context, o domain.Order) error
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
	ListOrders(ctx context.Context, accountID string) ([]domain.Order, error)
	// ListActiveOrders returns every non-terminal order in sessionID across
	// all its accounts, for advanceTime's batch match.
	ListActiveOrders(ctx context.Context, sessionID string) ([]domain.Order, error)

	GetPosition(ctx context.Context, accountID, symbol string) (domain.Position, bool, error)
	SavePosition(ctx context.Context, p domain.Position) error
	ListPositions(ctx context.Context, accountID string) ([]domain.Position, error)

	ListTradeRecords(ctx context.Context, accountID string) ([]domain.TradeRecord, error)
	SaveTradeRecord(ctx context.Context, r domain.TradeRecord) error
	// PurgeTradeRecordsBefore drops accountID's trade records older than
	// before (spec §4.7 purge(asOf)).
	PurgeTradeRecordsBefore(ctx context.Context, accountID string, before time.Time) error
}
