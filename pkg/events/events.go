// Package events carries the immutable facts emitted by the execution
// collaborator and projects them onto outbound wire envelopes.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bisttrading/algowire/pkg/order"
)

// Record is one domain event. The set is closed; each record is
// consumed exactly once by Project and then discarded.
type Record interface {
	ID() string
	OccurredAt() time.Time

	isRecord()
}

// OrderFilled reports a full or partial execution of an order.
type OrderFilled struct {
	EventID           string
	OrderID           string
	ClientOrderID     string
	UserID            string
	ExecutionID       string
	Symbol            string
	Side              order.Side
	FilledQuantity    decimal.Decimal
	RemainingQuantity decimal.Decimal
	ExecutionPrice    decimal.Decimal
	FullyFilled       bool
	ExecutedAt        time.Time
}

func NewOrderFilled(orderID, clientOrderID, userID, symbol string, side order.Side,
	filled, remaining, price decimal.Decimal, executedAt time.Time) OrderFilled {
	return OrderFilled{
		EventID:           uuid.NewString(),
		OrderID:           orderID,
		ClientOrderID:     clientOrderID,
		UserID:            userID,
		ExecutionID:       uuid.NewString(),
		Symbol:            symbol,
		Side:              side,
		FilledQuantity:    filled,
		RemainingQuantity: remaining,
		ExecutionPrice:    price,
		FullyFilled:       remaining.IsZero(),
		ExecutedAt:        executedAt,
	}
}

func (e OrderFilled) ID() string            { return e.EventID }
func (e OrderFilled) OccurredAt() time.Time { return e.ExecutedAt }
func (OrderFilled) isRecord()               {}

// PnlUpdate reports a change in a user's profit-and-loss figures.
type PnlUpdate struct {
	EventID       string
	UserID        string
	CashBalance   *decimal.Decimal
	UnrealizedPnl decimal.Decimal
	RealizedPnl   decimal.Decimal
	At            time.Time
}

func NewPnlUpdate(userID string, unrealized, realized decimal.Decimal, at time.Time) PnlUpdate {
	return PnlUpdate{
		EventID:       uuid.NewString(),
		UserID:        userID,
		UnrealizedPnl: unrealized,
		RealizedPnl:   realized,
		At:            at,
	}
}

func (e PnlUpdate) ID() string            { return e.EventID }
func (e PnlUpdate) OccurredAt() time.Time { return e.At }
func (PnlUpdate) isRecord()               {}
