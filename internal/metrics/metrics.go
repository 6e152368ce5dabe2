// Package metrics adapts the teacher's libs/observability zero-dependency
// Prometheus registry (observability.NewTradingMetrics's pattern) into the
// simulator-specific counters/gauges/histograms SPEC_FULL.md's ambient
// stack calls for: orders submitted, fills, rejections, PDT violations,
// and sim-time advances.
package metrics

import "jax-trading-assistant/libs/observability"

// SimMetrics is a single process-wide registry of simulator counters,
// exposed at GET /metrics in the wire API's Prometheus text format.
type SimMetrics struct {
	Registry *observability.Registry

	OrdersSubmitted *observability.Counter
	OrdersRejected  *observability.Counter
	Fills           *observability.Counter
	PdtViolations   *observability.Counter
	PdtWarnings     *observability.Counter
	TimeAdvances    *observability.Counter
	FillSlippageBps *observability.Histogram
	ActiveSessions  *observability.Gauge
}

// New builds a SimMetrics backed by a fresh registry.
func New() *SimMetrics {
	reg := observability.NewRegistry()
	return &SimMetrics{
		Registry: reg,
		OrdersSubmitted: reg.NewCounter(
			"sim_orders_submitted_total",
			"Total orders submitted, by symbol and side."),
		OrdersRejected: reg.NewCounter(
			"sim_orders_rejected_total",
			"Total orders rejected by the validator or PDT tracker, by symbol."),
		Fills: reg.NewCounter(
			"sim_fills_total",
			"Total fills (partial or full) produced by the matching engine."),
		PdtViolations: reg.NewCounter(
			"sim_pdt_violations_total",
			"Total trades rejected for a pattern-day-trader violation."),
		PdtWarnings: reg.NewCounter(
			"sim_pdt_warnings_total",
			"Total trades allowed with a pattern-day-trader warning."),
		TimeAdvances: reg.NewCounter(
			"sim_time_advances_total",
			"Total advanceTime calls processed, by session."),
		FillSlippageBps: reg.NewHistogram(
			"sim_fill_slippage_bps",
			"Distance of a fill price from the current minute bar's close, in basis points.",
			[]float64{0, 1, 2, 5, 10, 20, 50, 100, 200}),
		ActiveSessions: reg.NewGauge(
			"sim_active_sessions",
			"Number of sessions currently in the playing state."),
	}
}
