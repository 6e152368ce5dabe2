package httpapi

import (
	"time"

	"jax-trading-assistant/internal/core/session"
	"jax-trading-assistant/internal/domain"
	"jax-trading-assistant/internal/money"
)

// money2 renders a cash figure at 2 fractional digits, per spec §6.
func money2(d money.Decimal) string { return d.StringFixed(2) }

// money4 renders a price or quantity at 4 fractional digits, per spec §6.
func money4(d money.Decimal) string { return d.StringFixed(4) }

func money4Ptr(d *money.Decimal) *string {
	if d == nil {
		return nil
	}
	s := money4(*d)
	return &s
}

func timePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

// sessionDTO is the wire shape of domain.Session.
type sessionDTO struct {
	ID          string  `json:"id"`
	OwnerKey    string  `json:"owner_key"`
	SimStart    string  `json:"sim_start"`
	SimEnd      string  `json:"sim_end"`
	SimNow      string  `json:"sim_now"`
	Playback    string  `json:"playback"`
	Speed       float64 `json:"speed"`
	InitialCash string  `json:"initial_cash"`
	RealizedPnL string  `json:"realized_pnl"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func toSessionDTO(s domain.Session) sessionDTO {
	return sessionDTO{
		ID:          s.ID,
		OwnerKey:    s.OwnerKey,
		SimStart:    s.SimStart.UTC().Format(time.RFC3339),
		SimEnd:      s.SimEnd.UTC().Format(time.RFC3339),
		SimNow:      s.SimNow.UTC().Format(time.RFC3339),
		Playback:    string(s.Playback),
		Speed:       s.Speed,
		InitialCash: money2(s.InitialCash),
		RealizedPnL: money2(s.RealizedPnL),
		Status:      string(s.Status),
		CreatedAt:   s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// accountDTO is the wire shape of domain.Account, field-named after the
// well-known retail-broker schema spec §6 calls out.
type accountDTO struct {
	ID                    string `json:"id"`
	SessionID             string `json:"session_id"`
	Cash                  string `json:"cash"`
	CashWithdrawable      string `json:"cash_withdrawable"`
	BuyingPower           string `json:"buying_power"`
	DayTradingBuyingPower string `json:"daytrading_buying_power"`
	LongMarketValue       string `json:"long_market_value"`
	ShortMarketValue      string `json:"short_market_value"`
	Equity                string `json:"equity"`
	LastEquity            string `json:"last_equity"`
	PatternDayTrader      bool   `json:"pattern_day_trader"`
	DayTradeCount         int    `json:"daytrade_count"`
	TradingBlocked        bool   `json:"trading_blocked"`
	AccountBlocked        bool   `json:"account_blocked"`
	CreatedAt             string `json:"created_at"`
	UpdatedAt             string `json:"updated_at"`
}

func toAccountDTO(a domain.Account) accountDTO {
	return accountDTO{
		ID:                    a.ID,
		SessionID:             a.SessionID,
		Cash:                  money2(a.Cash),
		CashWithdrawable:      money2(a.CashWithdrawable),
		BuyingPower:           money2(a.BuyingPower),
		DayTradingBuyingPower: money2(a.DayTradingBuyingPower),
		LongMarketValue:       money2(a.LongMarketValue),
		ShortMarketValue:      money2(a.ShortMarketValue),
		Equity:                money2(a.Equity),
		LastEquity:            money2(a.LastEquity),
		PatternDayTrader:      a.PatternDayTrader,
		DayTradeCount:         a.DayTradeCount,
		TradingBlocked:        a.TradingBlocked,
		AccountBlocked:        a.AccountBlocked,
		CreatedAt:             a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:             a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// orderDTO is the wire shape of domain.Order.
type orderDTO struct {
	ID              string  `json:"id"`
	ClientOrderID   string  `json:"client_order_id,omitempty"`
	SessionID       string  `json:"session_id"`
	AccountID       string  `json:"account_id"`
	Symbol          string  `json:"symbol"`
	Qty             *string `json:"qty,omitempty"`
	Notional        *string `json:"notional,omitempty"`
	Type            string  `json:"type"`
	Side            string  `json:"side"`
	TimeInForce     string  `json:"time_in_force"`
	LimitPrice      *string `json:"limit_price,omitempty"`
	StopPrice       *string `json:"stop_price,omitempty"`
	TrailPrice      *string `json:"trail_price,omitempty"`
	TrailPercent    *string `json:"trail_percent,omitempty"`
	ExtendedHours   bool    `json:"extended_hours"`
	Status          string  `json:"status"`
	FilledQty       string  `json:"filled_qty"`
	FilledAvgPrice  string  `json:"filled_avg_price"`
	RejectReason    string  `json:"reject_reason,omitempty"`
	SubmittedAt     string  `json:"submitted_at"`
	FilledAt        *string `json:"filled_at,omitempty"`
	ExpiredAt       *string `json:"expired_at,omitempty"`
	CancelledAt     *string `json:"cancelled_at,omitempty"`
	FailedAt        *string `json:"failed_at,omitempty"`
}

func toOrderDTO(o domain.Order) orderDTO {
	return orderDTO{
		ID:             o.ID,
		ClientOrderID:  o.ClientOrderID,
		SessionID:      o.SessionID,
		AccountID:      o.AccountID,
		Symbol:         o.Symbol,
		Qty:            money4Ptr(o.Qty),
		Notional:       money4Ptr(o.Notional),
		Type:           string(o.Type),
		Side:           string(o.Side),
		TimeInForce:    string(o.TIF),
		LimitPrice:     money4Ptr(o.LimitPrice),
		StopPrice:      money4Ptr(o.StopPrice),
		TrailPrice:     money4Ptr(o.TrailPrice),
		TrailPercent:   money4Ptr(o.TrailPercent),
		ExtendedHours:  o.ExtendedHours,
		Status:         string(o.Status),
		FilledQty:      money4(o.FilledQty),
		FilledAvgPrice: money4(o.FilledAvgPrice),
		RejectReason:   o.RejectReason,
		SubmittedAt:    o.SubmittedAt.UTC().Format(time.RFC3339),
		FilledAt:       timePtr(o.FilledAt),
		ExpiredAt:      timePtr(o.ExpiredAt),
		CancelledAt:    timePtr(o.CancelledAt),
		FailedAt:       timePtr(o.FailedAt),
	}
}

// positionDTO is the wire shape of domain.Position.
type positionDTO struct {
	AccountID             string `json:"account_id"`
	Symbol                string `json:"symbol"`
	Qty                   string `json:"qty"`
	Side                  string `json:"side"`
	AvgEntryPrice         string `json:"avg_entry_price"`
	CurrentPrice          string `json:"current_price"`
	LastDayPrice          string `json:"lastday_price"`
	MarketValue           string `json:"market_value"`
	CostBasis             string `json:"cost_basis"`
	UnrealizedPnL         string `json:"unrealized_pl"`
	UnrealizedPnLPercent  string `json:"unrealized_plpc"`
	UnrealizedIntradayPnL string `json:"unrealized_intraday_pl"`
	ChangeToday           string `json:"change_today"`
}

func toPositionDTO(p domain.Position) positionDTO {
	return positionDTO{
		AccountID:             p.AccountID,
		Symbol:                p.Symbol,
		Qty:                   money4(p.Qty),
		Side:                  p.Side(),
		AvgEntryPrice:         money4(p.AvgEntryPrice),
		CurrentPrice:          money4(p.CurrentPrice),
		LastDayPrice:          money4(p.LastDayPrice),
		MarketValue:           money2(p.MarketValue),
		CostBasis:             money2(p.CostBasis()),
		UnrealizedPnL:         money2(p.UnrealizedPnL),
		UnrealizedPnLPercent:  money4(p.UnrealizedPnLPercent()),
		UnrealizedIntradayPnL: money2(p.UnrealizedIntradayPnL),
		ChangeToday:           money4(p.ChangeToday()),
	}
}

// barDTO is the wire shape of domain.Bar.
type barDTO struct {
	T      string  `json:"t"`
	Open   string  `json:"o"`
	High   string  `json:"h"`
	Low    string  `json:"l"`
	Close  string  `json:"c"`
	Volume string  `json:"v"`
	VWAP   *string `json:"vw,omitempty"`
}

func toBarDTO(b domain.Bar) barDTO {
	return barDTO{
		T:      b.T.UTC().Format(time.RFC3339),
		Open:   money4(b.Open),
		High:   money4(b.High),
		Low:    money4(b.Low),
		Close:  money4(b.Close),
		Volume: money4(b.Volume),
		VWAP:   money4Ptr(b.VWAP),
	}
}

// quoteDTO is the wire shape of session.Quote.
type quoteDTO struct {
	Symbol string `json:"symbol"`
	Bid    string `json:"bp"`
	Ask    string `json:"ap"`
	T      string `json:"t"`
}

func toQuoteDTO(q session.Quote) quoteDTO {
	return quoteDTO{
		Symbol: q.Symbol,
		Bid:    money4(q.Bid),
		Ask:    money4(q.Ask),
		T:      q.T.UTC().Format(time.RFC3339),
	}
}
