// Package membars is an in-memory store.BarStore, for local development
// and tests run without a Postgres bar table, grounded on the teacher's
// in-memory storage style (internal/store/memstore's map-plus-mutex
// shape, generalized from session state to a time series).
package membars

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"jax-trading-assistant/internal/domain"
)

// Store is a map-backed BarStore with no persistence across process
// restarts. Seed with Put before serving traffic.
type Store struct {
	mu   sync.RWMutex
	bars map[string][]domain.Bar // key: symbol|resolution, ascending by T
}

// New returns an empty Store.
func New() *Store {
	return &Store{bars: make(map[string][]domain.Bar)}
}

// Put inserts or replaces one bar, keeping its symbol/resolution series
// sorted ascending by time.
func (s *Store) Put(b domain.Bar, res domain.Resolution) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := seriesKey(b.Symbol, res)
	series := s.bars[key]
	idx := sort.Search(len(series), func(i int) bool { return !series[i].T.Before(b.T) })
	if idx < len(series) && series[idx].T.Equal(b.T) {
		series[idx] = b
	} else {
		series = append(series, domain.Bar{})
		copy(series[idx+1:], series[idx:])
		series[idx] = b
	}
	s.bars[key] = series
}

func (s *Store) GetBar(ctx context.Context, symbol string, asOf time.Time, res domain.Resolution) (domain.Bar, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	series := s.bars[seriesKey(symbol, res)]
	idx := sort.Search(len(series), func(i int) bool { return series[i].T.After(asOf) })
	if idx == 0 {
		return domain.Bar{}, false, nil
	}
	return series[idx-1], true, nil
}

func (s *Store) GetBars(ctx context.Context, symbol string, start, end time.Time, res domain.Resolution, limit int) ([]domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	series := s.bars[seriesKey(symbol, res)]
	var out []domain.Bar
	for _, b := range series {
		if b.T.Before(start) || b.T.After(end) {
			continue
		}
		out = append(out, b)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *Store) GetLatestBars(ctx context.Context, symbols []string, asOf time.Time) (map[string]domain.Bar, error) {
	out := make(map[string]domain.Bar, len(symbols))
	for _, sym := range symbols {
		bar, ok, err := s.GetBar(ctx, sym, asOf, domain.ResolutionMinute)
		if err != nil {
			return nil, err
		}
		if ok {
			out[strings.ToUpper(sym)] = bar
		}
	}
	return out, nil
}

func seriesKey(symbol string, res domain.Resolution) string {
	return strings.ToUpper(symbol) + "|" + string(res)
}
