// Package policy loads the simulator's tunable broker-rule constants from a
// JSON file, in the style of the teacher's libs/risk package: an immutable,
// versioned Policy loaded once at startup and passed read-only through the
// system, falling back to a conservative default when no file is
// configured so the simulator can start without one in development.
package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"jax-trading-assistant/internal/money"
)

// Policy holds the broker-grade constants spec §4.2–§4.7 specify as fixed
// numbers in prose. They are kept here, rather than hard-coded, so an
// operator can retune slippage/participation/PDT thresholds without a
// rebuild — the spec's own values are the defaults.
type Policy struct {
	// MatchingEngine (spec §4.3)
	SlippageRate       float64 `json:"slippage_rate"`        // 0.10 of bar range
	ParticipationRate  float64 `json:"participation_rate"`   // 0.01 of bar volume
	GTCExpiryDays      int     `json:"gtc_expiry_days"`      // 90
	StopLimitPremiumLowRate  float64 `json:"stop_limit_premium_low_rate"`  // 0.04, stopPrice < 50
	StopLimitPremiumHighRate float64 `json:"stop_limit_premium_high_rate"` // 0.025, stopPrice >= 50
	StopLimitPremiumBreak    string  `json:"stop_limit_premium_break"`     // "50"

	// AccountKeeper / DayTradeTracker (spec §4.6/§4.7)
	PdtMinEquity       string `json:"pdt_min_equity"`        // "25000"
	ShortSaleAskMargin float64 `json:"short_sale_ask_margin"` // 1.03
	DayTradeWindowDays int     `json:"day_trade_window_days"` // 5; reported only — DayTradeTracker uses its own fixed 5-day window and 6-day purge

	// Quote synthesis (spec §4.8 quote())
	QuoteSpreadRate float64 `json:"quote_spread_rate"` // 0.0005 of (high-low)

	LoadedFrom string    `json:"-"`
	LoadedAt   time.Time `json:"-"`
	Version    string    `json:"-"`
}

// Default returns the policy spec.md's prose constants describe exactly.
func Default() *Policy {
	p := &Policy{
		SlippageRate:             0.10,
		ParticipationRate:        0.01,
		GTCExpiryDays:            90,
		StopLimitPremiumLowRate:  0.04,
		StopLimitPremiumHighRate: 0.025,
		StopLimitPremiumBreak:    "50",
		PdtMinEquity:             "25000",
		ShortSaleAskMargin:       1.03,
		DayTradeWindowDays:       5,
		QuoteSpreadRate:          0.0005,
		LoadedAt:                 time.Now().UTC(),
	}
	b, _ := json.Marshal(p)
	p.Version = version(b)
	return p
}

// Load reads a JSON policy file, falling back to Default() when path is
// empty or the file does not exist.
func Load(path string) (*Policy, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("policy: read %q: %w", path, err)
	}
	p := Default()
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("policy: parse %q: %w", path, err)
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("policy: invalid policy in %q: %w", path, err)
	}
	p.LoadedFrom = path
	p.LoadedAt = time.Now().UTC()
	p.Version = version(data)
	return p, nil
}

func (p *Policy) validate() error {
	if p.SlippageRate < 0 {
		return fmt.Errorf("slippage_rate must be >= 0, got %v", p.SlippageRate)
	}
	if p.ParticipationRate <= 0 {
		return fmt.Errorf("participation_rate must be > 0, got %v", p.ParticipationRate)
	}
	if p.GTCExpiryDays <= 0 {
		return fmt.Errorf("gtc_expiry_days must be > 0, got %d", p.GTCExpiryDays)
	}
	if p.DayTradeWindowDays <= 0 {
		return fmt.Errorf("day_trade_window_days must be > 0, got %d", p.DayTradeWindowDays)
	}
	if _, err := money.Parse(p.PdtMinEquity); err != nil {
		return fmt.Errorf("pdt_min_equity: %w", err)
	}
	return nil
}

// PdtMinEquityDecimal returns the PDT minimum equity as a Decimal.
func (p *Policy) PdtMinEquityDecimal() money.Decimal {
	d, _ := money.Parse(p.PdtMinEquity)
	return d
}

// StopLimitPremium implements spec §4.2's advertised convenience helper:
// stopPrice * (1 + r), r = StopLimitPremiumLowRate when stopPrice is below
// the configured break, else StopLimitPremiumHighRate.
func (p *Policy) StopLimitPremium(stopPrice money.Decimal) money.Decimal {
	brk, _ := money.Parse(p.StopLimitPremiumBreak)
	rate := p.StopLimitPremiumHighRate
	if stopPrice.LessThan(brk) {
		rate = p.StopLimitPremiumLowRate
	}
	one := money.New("1")
	rateDec := money.New(fmt.Sprintf("%v", rate))
	return stopPrice.Mul(one.Add(rateDec))
}

func version(data []byte) string {
	h := uint64(14695981039346656037)
	for _, b := range data {
		h ^= uint64(b)
		h *= 1099511628211
	}
	return fmt.Sprintf("v%x", h&0xffffffffffff)
}
