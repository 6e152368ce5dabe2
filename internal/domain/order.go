package domain

import (
	"time"

	"jax-trading-assistant/internal/money"
)

// OrderType enumerates the order types the matching engine understands.
type OrderType string

const (
	OrderTypeMarket       OrderType = "market"
	OrderTypeLimit        OrderType = "limit"
	OrderTypeStop         OrderType = "stop"
	OrderTypeStopLimit    OrderType = "stopLimit"
	OrderTypeTrailingStop OrderType = "trailingStop"
)

// OrderSide is buy or sell.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// TimeInForce enumerates the TIF values spec §3/§4.3.5 specialize on.
type TimeInForce string

const (
	TIFDay TimeInForce = "day"
	TIFGTC TimeInForce = "gtc"
	TIFOPG TimeInForce = "opg"
	TIFCLS TimeInForce = "cls"
	TIFIOC TimeInForce = "ioc"
	TIFFOK TimeInForce = "fok"
)

// OrderStatus is the order lifecycle state (spec §4.5). States marked
// terminal admit no further transitions.
type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "new"
	OrderStatusPendingNew      OrderStatus = "pendingNew"
	OrderStatusAccepted        OrderStatus = "accepted"
	OrderStatusPartiallyFilled OrderStatus = "partiallyFilled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusDoneForDay      OrderStatus = "doneForDay"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusExpired         OrderStatus = "expired"
	OrderStatusReplaced        OrderStatus = "replaced"
	OrderStatusPendingCancel   OrderStatus = "pendingCancel"
	OrderStatusPendingReplace  OrderStatus = "pendingReplace"
	OrderStatusRejected        OrderStatus = "rejected"
)

// Terminal reports whether status admits no further transitions.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusDoneForDay, OrderStatusCancelled,
		OrderStatusExpired, OrderStatusReplaced, OrderStatusRejected:
		return true
	default:
		return false
	}
}

// Order is a single trade instruction within an account.
type Order struct {
	ID              string
	SessionID       string
	AccountID       string
	ClientOrderID   string // optional client-supplied idempotency id

	Symbol string
	Qty    *money.Decimal // xor Notional
	Notional *money.Decimal

	Type OrderType
	Side OrderSide
	TIF  TimeInForce

	LimitPrice   *money.Decimal
	StopPrice    *money.Decimal
	TrailPrice   *money.Decimal
	TrailPercent *money.Decimal

	ExtendedHours bool

	Status OrderStatus

	FilledQty      money.Decimal
	FilledAvgPrice money.Decimal

	RejectReason string

	SubmittedAt time.Time
	FilledAt    *time.Time
	ExpiredAt   *time.Time
	CancelledAt *time.Time
	FailedAt    *time.Time
}

// RemainingQty returns the quantity left to fill. It returns zero for
// notional-denominated orders (Qty nil); fills never set Qty on them, and
// the matching engine sizes them from the remaining notional instead.
func (o Order) RemainingQty() money.Decimal {
	if o.Qty == nil {
		return money.Zero
	}
	return o.Qty.Sub(o.FilledQty)
}

// IsBuy reports whether the order is a buy.
func (o Order) IsBuy() bool { return o.Side == OrderSideBuy }
