package metrics

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew_WiresAllCollectors(t *testing.T) {
	m := New()

	m.OrdersSubmitted.Inc("symbol", "AAPL", "side", "buy")
	m.OrdersRejected.Inc("symbol", "AAPL")
	m.Fills.Inc("symbol", "AAPL")
	m.PdtViolations.Inc()
	m.PdtWarnings.Inc()
	m.TimeAdvances.Inc("session", "sess-1")
	m.FillSlippageBps.Observe(3.5, "symbol", "AAPL")
	m.ActiveSessions.Set(2)

	var buf bytes.Buffer
	m.Registry.WriteText(&buf)
	out := buf.String()

	assertContains(t, out, "sim_orders_submitted_total")
	assertContains(t, out, `sim_orders_submitted_total{symbol="AAPL",side="buy"} 1`)
	assertContains(t, out, "sim_orders_rejected_total")
	assertContains(t, out, "sim_fills_total")
	assertContains(t, out, "sim_pdt_violations_total 1")
	assertContains(t, out, "sim_pdt_warnings_total 1")
	assertContains(t, out, "sim_time_advances_total")
	assertContains(t, out, "sim_fill_slippage_bps_count")
	assertContains(t, out, "sim_active_sessions 2")
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.OrdersSubmitted.Inc("symbol", "AAPL", "side", "buy")

	if v := b.OrdersSubmitted.Value("symbol", "AAPL", "side", "buy"); v != 0 {
		t.Errorf("expected second registry to be unaffected, got %f", v)
	}
}

func assertContains(t testing.TB, s, sub string) {
	t.Helper()
	if !strings.Contains(s, sub) {
		t.Errorf("expected output to contain:\n  %q\ngot:\n%s", sub, s)
	}
}
