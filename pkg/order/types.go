package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

func (s Side) Valid() bool { return s == Buy || s == Sell }

type Type string

const (
	Market    Type = "MARKET"
	Limit     Type = "LIMIT"
	Stop      Type = "STOP"
	StopLimit Type = "STOP_LIMIT"
)

func (t Type) Valid() bool {
	switch t {
	case Market, Limit, Stop, StopLimit:
		return true
	}
	return false
}

// RequiresPrice reports whether a limit price must accompany the order.
func (t Type) RequiresPrice() bool { return t == Limit || t == StopLimit }

// RequiresStopPrice reports whether a stop trigger must accompany the order.
func (t Type) RequiresStopPrice() bool { return t == Stop || t == StopLimit }

// Intent is one order submission as received from a client. It is
// never mutated after construction; Validate produces a normalized
// ValidatedOrder that ownership passes on with.
type Intent struct {
	UserID        string
	ClientOrderID string
	Symbol        string
	Side          Side
	Type          Type
	Quantity      decimal.Decimal
	Price         *decimal.Decimal
	StopPrice     *decimal.Decimal
	TimeInForce   TimeInForce
	ExpireTime    *time.Time
	AccountID     string
	PortfolioID   string
	StrategyID    string
	Notes         string
}

// ValidatedOrder is an Intent that passed every rule, with defaults
// applied and forbidden-but-ignored fields stripped.
type ValidatedOrder struct {
	Intent

	// Immediate marks IOC/FOK orders: any unfilled remainder must be
	// cancelled atomically, never rested on a book.
	Immediate bool

	AcceptedAt time.Time
}
