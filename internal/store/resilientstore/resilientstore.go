// Package resilientstore wraps a store.BarStore or store.SessionStore with
// a circuit breaker, in the style of the teacher's libs/resilience usage
// around its own vendor/database adapters: a flaky downstream trips open
// and fails fast with simerr.KindUnavailable (spec §7) instead of hanging
// the per-session serializer in SessionController.
package resilientstore

import (
	"context"
	"time"

	"jax-trading-assistant/internal/domain"
	"jax-trading-assistant/internal/simerr"
	"jax-trading-assistant/internal/store"
	"jax-trading-assistant/libs/resilience"
)

// run executes fn through cb, translating an open-breaker/wrapped error
// into simerr.KindUnavailable so transport/http's writeDomainError reports
// 503 instead of a generic 500.
func run[T any](ctx context.Context, cb *resilience.CircuitBreaker, fn func() (T, error)) (T, error) {
	var zero T
	result, err := cb.ExecuteWithContext(ctx, func() (any, error) {
		v, err := fn()
		return v, err
	})
	if err != nil {
		return zero, simerr.Wrap(simerr.KindUnavailable, err, "store call failed")
	}
	return result.(T), nil
}

// BarStore wraps a store.BarStore with a circuit breaker.
type BarStore struct {
	inner store.BarStore
	cb    *resilience.CircuitBreaker
}

// NewBarStore wraps inner with a breaker named for logging/metrics.
func NewBarStore(inner store.BarStore, name string) *BarStore {
	return &BarStore{inner: inner, cb: resilience.NewCircuitBreaker(resilience.DefaultConfig(name))}
}

func (b *BarStore) GetBar(ctx context.Context, symbol string, asOf time.Time, res domain.Resolution) (domain.Bar, bool, error) {
	type result struct {
		bar domain.Bar
		ok  bool
	}
	r, err := run(ctx, b.cb, func() (result, error) {
		bar, ok, err := b.inner.GetBar(ctx, symbol, asOf, res)
		return result{bar, ok}, err
	})
	return r.bar, r.ok, err
}

func (b *BarStore) GetBars(ctx context.Context, symbol string, start, end time.Time, res domain.Resolution, limit int) ([]domain.Bar, error) {
	return run(ctx, b.cb, func() ([]domain.Bar, error) {
		return b.inner.GetBars(ctx, symbol, start, end, res, limit)
	})
}

func (b *BarStore) GetLatestBars(ctx context.Context, symbols []string, asOf time.Time) (map[string]domain.Bar, error) {
	return run(ctx, b.cb, func() (map[string]domain.Bar, error) {
		return b.inner.GetLatestBars(ctx, symbols, asOf)
	})
}

// SessionStore wraps a store.SessionStore with a circuit breaker.
type SessionStore struct {
	inner store.SessionStore
	cb    *resilience.CircuitBreaker
}

// NewSessionStore wraps inner with a breaker named for logging/metrics.
func NewSessionStore(inner store.SessionStore, name string) *SessionStore {
	return &SessionStore{inner: inner, cb: resilience.NewCircuitBreaker(resilience.DefaultConfig(name))}
}

func (s *SessionStore) CreateSession(ctx context.Context, sess domain.Session) error {
	_, err := run(ctx, s.cb, func() (struct{}, error) { return struct{}{}, s.inner.CreateSession(ctx, sess) })
	return err
}

func (s *SessionStore) GetSession(ctx context.Context, id string) (domain.Session, error) {
	return run(ctx, s.cb, func() (domain.Session, error) { return s.inner.GetSession(ctx, id) })
}

func (s *SessionStore) ListSessions(ctx context.Context, ownerKey string) ([]domain.Session, error) {
	return run(ctx, s.cb, func() ([]domain.Session, error) { return s.inner.ListSessions(ctx, ownerKey) })
}

func (s *SessionStore) SaveSession(ctx context.Context, sess domain.Session) error {
	_, err := run(ctx, s.cb, func() (struct{}, error) { return struct{}{}, s.inner.SaveSession(ctx, sess) })
	return err
}

func (s *SessionStore) DeleteSession(ctx context.Context, id string) error {
	_, err := run(ctx, s.cb, func() (struct{}, error) { return struct{}{}, s.inner.DeleteSession(ctx, id) })
	return err
}

func (s *SessionStore) CreateAccount(ctx context.Context, a domain.Account) error {
	_, err := run(ctx, s.cb, func() (struct{}, error) { return struct{}{}, s.inner.CreateAccount(ctx, a) })
	return err
}

func (s *SessionStore) GetAccount(ctx context.Context, accountID string) (domain.Account, error) {
	return run(ctx, s.cb, func() (domain.Account, error) { return s.inner.GetAccount(ctx, accountID) })
}

func (s *SessionStore) ListAccounts(ctx context.Context, sessionID string) ([]domain.Account, error) {
	return run(ctx, s.cb, func() ([]domain.Account, error) { return s.inner.ListAccounts(ctx, sessionID) })
}

func (s *SessionStore) SaveAccount(ctx context.Context, a domain.Account) error {
	_, err := run(ctx, s.cb, func() (struct{}, error) { return struct{}{}, s.inner.SaveAccount(ctx, a) })
	return err
}

func (s *SessionStore) SaveOrder(ctx context.Context, o domain.Order) error {
	_, err := run(ctx, s.cb, func() (struct{}, error) { return struct{}{}, s.inner.SaveOrder(ctx, o) })
	return err
}

func (s *SessionStore) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	return run(ctx, s.cb, func() (domain.Order, error) { return s.inner.GetOrder(ctx, orderID) })
}

func (s *SessionStore) ListOrders(ctx context.Context, accountID string) ([]domain.Order, error) {
	return run(ctx, s.cb, func() ([]domain.Order, error) { return s.inner.ListOrders(ctx, accountID) })
}

func (s *SessionStore) ListActiveOrders(ctx context.Context, sessionID string) ([]domain.Order, error) {
	return run(ctx, s.cb, func() ([]domain.Order, error) { return s.inner.ListActiveOrders(ctx, sessionID) })
}

func (s *SessionStore) GetPosition(ctx context.Context, accountID, symbol string) (domain.Position, bool, error) {
	type result struct {
		pos domain.Position
		ok  bool
	}
	r, err := run(ctx, s.cb, func() (result, error) {
		pos, ok, err := s.inner.GetPosition(ctx, accountID, symbol)
		return result{pos, ok}, err
	})
	return r.pos, r.ok, err
}

func (s *SessionStore) SavePosition(ctx context.Context, p domain.Position) error {
	_, err := run(ctx, s.cb, func() (struct{}, error) { return struct{}{}, s.inner.SavePosition(ctx, p) })
	return err
}

func (s *SessionStore) ListPositions(ctx context.Context, accountID string) ([]domain.Position, error) {
	return run(ctx, s.cb, func() ([]domain.Position, error) { return s.inner.ListPositions(ctx, accountID) })
}

func (s *SessionStore) ListTradeRecords(ctx context.Context, accountID string) ([]domain.TradeRecord, error) {
	return run(ctx, s.cb, func() ([]domain.TradeRecord, error) { return s.inner.ListTradeRecords(ctx, accountID) })
}

func (s *SessionStore) SaveTradeRecord(ctx context.Context, r domain.TradeRecord) error {
	_, err := run(ctx, s.cb, func() (struct{}, error) { return struct{}{}, s.inner.SaveTradeRecord(ctx, r) })
	return err
}

func (s *SessionStore) PurgeTradeRecordsBefore(ctx context.Context, accountID string, before time.Time) error {
	_, err := run(ctx, s.cb, func() (struct{}, error) { return struct{}{}, s.inner.PurgeTradeRecordsBefore(ctx, accountID, before) })
	return err
}
