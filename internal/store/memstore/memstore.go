// Package memstore implements store.SessionStore entirely in memory, for
// tests and for running the simulator without a Postgres instance. It
// mirrors the locking shape of the teacher's libs/middleware.RateLimiter:
// one coarse RWMutex guarding a handful of maps, adequate at the scale of a
// single-process simulator.
package memstore

import (
	"context"
	"sync"
	"time"

	"jax-trading-assistant/internal/domain"
	"jax-trading-assistant/internal/simerr"
)

// Store is an in-memory, process-local store.SessionStore.
type Store struct {
	mu sync.RWMutex

	sessions map[string]domain.Session
	accounts map[string]domain.Account
	// accountsBySession indexes account ids by session for ListAccounts.
	accountsBySession map[string][]string

	orders map[string]domain.Order
	// ordersByAccount indexes order ids by account for ListOrders.
	ordersByAccount map[string][]string

	positions map[string]domain.Position // key: accountID + "/" + symbol

	trades map[string][]domain.TradeRecord // key: accountID
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		sessions:          make(map[string]domain.Session),
		accounts:          make(map[string]domain.Account),
		accountsBySession: make(map[string][]string),
		orders:            make(map[string]domain.Order),
		ordersByAccount:   make(map[string][]string),
		positions:         make(map[string]domain.Position),
		trades:            make(map[string][]domain.TradeRecord),
	}
}

func posKey(accountID, symbol string) string { return accountID + "/" + symbol }

func (s *Store) CreateSession(ctx context.Context, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, simerr.New(simerr.KindNotFound, "session %s not found", id)
	}
	return sess, nil
}

func (s *Store) ListSessions(ctx context.Context, ownerKey string) ([]domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Session, 0)
	for _, sess := range s.sessions {
		if ownerKey == "" || sess.OwnerKey == ownerKey {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (s *Store) SaveSession(ctx context.Context, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; !ok {
		return simerr.New(simerr.KindNotFound, "session %s not found", sess.ID)
	}
	s.sessions[sess.ID] = sess
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return simerr.New(simerr.KindNotFound, "session %s not found", id)
	}
	delete(s.sessions, id)
	for _, acctID := range s.accountsBySession[id] {
		delete(s.accounts, acctID)
		for _, orderID := range s.ordersByAccount[acctID] {
			delete(s.orders, orderID)
		}
		delete(s.ordersByAccount, acctID)
		delete(s.trades, acctID)
		for k := range s.positions {
			if len(k) > len(acctID) && k[:len(acctID)] == acctID && k[len(acctID)] == '/' {
				delete(s.positions, k)
			}
		}
	}
	delete(s.accountsBySession, id)
	return nil
}

func (s *Store) CreateAccount(ctx context.Context, a domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a
	s.accountsBySession[a.SessionID] = append(s.accountsBySession[a.SessionID], a.ID)
	return nil
}

func (s *Store) GetAccount(ctx context.Context, accountID string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return domain.Account{}, simerr.New(simerr.KindNotFound, "account %s not found", accountID)
	}
	return a, nil
}

func (s *Store) ListAccounts(ctx context.Context, sessionID string) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Account, 0)
	for _, id := range s.accountsBySession[sessionID] {
		if a, ok := s.accounts[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) SaveAccount(ctx context.Context, a domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; !ok {
		return simerr.New(simerr.KindNotFound, "account %s not found", a.ID)
	}
	s.accounts[a.ID] = a
	return nil
}

func (s *Store) SaveOrder(ctx context.Context, o domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, existed := s.orders[o.ID]; !existed {
		s.ordersByAccount[o.AccountID] = append(s.ordersByAccount[o.AccountID], o.ID)
	}
	s.orders[o.ID] = o
	return nil
}

func (s *Store) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, simerr.New(simerr.KindNotFound, "order %s not found", orderID)
	}
	return o, nil
}

func (s *Store) ListOrders(ctx context.Context, accountID string) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Order, 0)
	for _, id := range s.ordersByAccount[accountID] {
		if o, ok := s.orders[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *Store) ListActiveOrders(ctx context.Context, sessionID string) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Order, 0)
	for _, o := range s.orders {
		if o.SessionID == sessionID && !o.Status.Terminal() {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *Store) GetPosition(ctx context.Context, accountID, symbol string) (domain.Position, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.positions[posKey(accountID, symbol)]
	return p, ok, nil
}

func (s *Store) SavePosition(ctx context.Context, p domain.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[posKey(p.AccountID, p.Symbol)] = p
	return nil
}

func (s *Store) ListPositions(ctx context.Context, accountID string) ([]domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Position, 0)
	prefix := accountID + "/"
	for k, p := range s.positions {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) ListTradeRecords(ctx context.Context, accountID string) ([]domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.trades[accountID]
	out := make([]domain.TradeRecord, len(recs))
	copy(out, recs)
	return out, nil
}

func (s *Store) SaveTradeRecord(ctx context.Context, r domain.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades[r.AccountID] = append(s.trades[r.AccountID], r)
	return nil
}

func (s *Store) PurgeTradeRecordsBefore(ctx context.Context, accountID string, before time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := s.trades[accountID]
	kept := recs[:0:0]
	for _, r := range recs {
		if !r.T.Before(before) {
			kept = append(kept, r)
		}
	}
	s.trades[accountID] = kept
	return nil
}
