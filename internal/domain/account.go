package domain

import (
	"time"

	"jax-trading-assistant/internal/money"
)

// Account holds the cash, margin, and PDT bookkeeping for one account within
// a Session. Accounts reference their Session by id only (no back-pointer),
// per the no-cyclic-references design note.
type Account struct {
	ID        string
	SessionID string

	Cash                   money.Decimal
	CashWithdrawable       money.Decimal
	BuyingPower            money.Decimal
	DayTradingBuyingPower  money.Decimal
	InitialMargin          money.Decimal
	MaintenanceMargin      money.Decimal
	LongMarketValue        money.Decimal
	ShortMarketValue       money.Decimal
	Equity                 money.Decimal
	LastEquity             money.Decimal

	PatternDayTrader bool
	DayTradeCount    int

	TradingBlocked  bool
	AccountBlocked  bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PortfolioValue mirrors Equity for a simplified cash account (no margin
// positions beyond what Equity already captures).
func (a Account) PortfolioValue() money.Decimal { return a.Equity }

// MeetsPdtMinimum reports whether the account equity clears the $25,000 PDT
// threshold (spec §4.6).
func (a Account) MeetsPdtMinimum() bool {
	return a.Equity.GreaterThanOrEqual(money.New("25000"))
}
