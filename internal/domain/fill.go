package domain

import "jax-trading-assistant/internal/money"

// FillResult is what the MatchingEngine produces for one order against one
// bar. A zero-value FillResult (Filled == false) means the order did not
// trade on this bar but may remain active.
type FillResult struct {
	Filled    bool
	Qty       money.Decimal
	Price     money.Decimal
	Partial   bool
	NewStatus OrderStatus // not set by the MatchingEngine; the order's resulting status is carried by matching.Outcome.Status
}
