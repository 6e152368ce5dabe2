package matching

import (
	"sort"
	"time"

	"jax-trading-assistant/internal/domain"
)

// PendingResult pairs an order with the Outcome Process computed for it.
type PendingResult struct {
	Order   domain.Order
	Outcome Outcome
	Err     error
}

// ProcessPending implements spec §4.3.7: iterate every active order of one
// session against the latest bar for its symbol, in deterministic order
// (ascending submittedAt, ties broken by order id) so that observable
// outcomes never depend on map iteration order. One order's failure (e.g. an
// attempted trailing-stop fill) does not prevent the rest from processing.
func (e *Engine) ProcessPending(orders []domain.Order, barsBySymbol map[string]domain.Bar, now time.Time) []PendingResult {
	ordered := make([]domain.Order, len(orders))
	copy(ordered, orders)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].SubmittedAt.Equal(ordered[j].SubmittedAt) {
			return ordered[i].SubmittedAt.Before(ordered[j].SubmittedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	results := make([]PendingResult, 0, len(ordered))
	for _, o := range ordered {
		if o.Status.Terminal() {
			continue
		}
		var bar *domain.Bar
		if b, ok := barsBySymbol[o.Symbol]; ok {
			bar = &b
		}
		outcome, err := e.Process(o, bar, now)
		results = append(results, PendingResult{Order: o, Outcome: outcome, Err: err})
	}
	return results
}
