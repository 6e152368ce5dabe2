package matching

import (
	"testing"
	"time"

	"jax-trading-assistant/internal/core/policy"
	"jax-trading-assistant/internal/domain"
)

func TestProcessPendingOrdersDeterministicOrder(t *testing.T) {
	e := New(policy.Default())
	submitted := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)

	o1 := baseMatchOrder()
	o1.ID = "b"
	o1.SubmittedAt = submitted

	o2 := baseMatchOrder()
	o2.ID = "a"
	o2.SubmittedAt = submitted // tie on time, broken by id

	bars := map[string]domain.Bar{"AAPL": testBar("AAPL", submitted)}
	results := e.ProcessPending([]domain.Order{o1, o2}, bars, submitted)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Order.ID != "a" || results[1].Order.ID != "b" {
		t.Errorf("expected tie broken by ascending order id, got order: %s, %s", results[0].Order.ID, results[1].Order.ID)
	}
}

func TestProcessPendingSkipsTerminalOrders(t *testing.T) {
	e := New(policy.Default())
	now := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)

	done := baseMatchOrder()
	done.ID = "done"
	done.Status = domain.OrderStatusFilled

	active := baseMatchOrder()
	active.ID = "active"

	bars := map[string]domain.Bar{"AAPL": testBar("AAPL", now)}
	results := e.ProcessPending([]domain.Order{done, active}, bars, now)

	if len(results) != 1 || results[0].Order.ID != "active" {
		t.Errorf("expected only the active order to be processed, got %+v", results)
	}
}

func TestProcessPendingMissingBarYieldsNilBar(t *testing.T) {
	e := New(policy.Default())
	now := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)

	o := baseMatchOrder()
	o.Symbol = "MSFT" // no bar supplied for this symbol

	results := e.ProcessPending([]domain.Order{o}, map[string]domain.Bar{}, now)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Err != nil {
		t.Errorf("unexpected error processing order with no bar: %v", results[0].Err)
	}
	if results[0].Outcome.Fill.Filled {
		t.Errorf("an order with no bar data for its symbol should never fill")
	}
}

func TestProcessPendingContinuesAfterOneOrderErrors(t *testing.T) {
	e := New(policy.Default())
	now := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)

	failing := baseMatchOrder()
	failing.ID = "1-trailing"
	failing.Type = domain.OrderTypeTrailingStop
	failing.TrailPercent = decp("0.05")

	ok := baseMatchOrder()
	ok.ID = "2-ok"

	bars := map[string]domain.Bar{"AAPL": testBar("AAPL", now)}
	results := e.ProcessPending([]domain.Order{failing, ok}, bars, now)

	if len(results) != 2 {
		t.Fatalf("expected both orders to produce a result, got %d", len(results))
	}
	if results[0].Err == nil {
		t.Errorf("expected the trailing-stop order to surface an error")
	}
	if results[1].Err != nil || !results[1].Outcome.Fill.Filled {
		t.Errorf("a later order's processing should not be affected by an earlier failure, got %+v", results[1])
	}
}
