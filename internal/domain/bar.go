package domain

import (
	"fmt"
	"time"

	"jax-trading-assistant/internal/money"
)

// Resolution enumerates the bar aggregation windows the BarStore serves.
type Resolution string

const (
	ResolutionMinute Resolution = "minute"
	ResolutionHour   Resolution = "hour"
	ResolutionDay    Resolution = "day"
	ResolutionWeek   Resolution = "week"
	ResolutionMonth  Resolution = "month"
)

// Bar is a single OHLCV observation for a symbol over one Resolution window.
type Bar struct {
	Symbol   string
	T        time.Time
	Open     money.Decimal
	High     money.Decimal
	Low      money.Decimal
	Close    money.Decimal
	Volume   money.Decimal
	VWAP     *money.Decimal
	NTrades  *int64
}

// Validate checks the bar invariants from spec §3: low <= open <= high,
// low <= close <= high, volume >= 0.
func (b Bar) Validate() error {
	if b.Low.GreaterThan(b.Open) || b.Open.GreaterThan(b.High) {
		return fmt.Errorf("domain: bar %s@%s violates low<=open<=high (low=%s open=%s high=%s)",
			b.Symbol, b.T, b.Low, b.Open, b.High)
	}
	if b.Low.GreaterThan(b.Close) || b.Close.GreaterThan(b.High) {
		return fmt.Errorf("domain: bar %s@%s violates low<=close<=high (low=%s close=%s high=%s)",
			b.Symbol, b.T, b.Low, b.Close, b.High)
	}
	if b.Volume.IsNegative() {
		return fmt.Errorf("domain: bar %s@%s has negative volume %s", b.Symbol, b.T, b.Volume)
	}
	return nil
}

// Range returns high - low.
func (b Bar) Range() money.Decimal {
	return b.High.Sub(b.Low)
}
