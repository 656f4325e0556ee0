package events

import (
	"fmt"

	"github.com/bisttrading/algowire/pkg/protocol"
)

// Order status values on the wire.
const (
	StatusFilled          = "FILLED"
	StatusPartiallyFilled = "PARTIALLY_FILLED"
)

// Project maps a domain event onto its outbound payload variant. The
// codec stamps type, timestamp and channel on encode, so a projection
// can never emit a mismatched envelope.
func Project(rec Record) (protocol.Payload, error) {
	switch e := rec.(type) {
	case OrderFilled:
		status := StatusPartiallyFilled
		updateType := "partial_fill"
		if e.FullyFilled {
			status = StatusFilled
			updateType = "fill"
		}
		price := e.ExecutionPrice
		return &protocol.OrderUpdate{
			OrderID:           e.OrderID,
			ClientOrderID:     e.ClientOrderID,
			UserID:            e.UserID,
			Symbol:            e.Symbol,
			Status:            status,
			UpdateType:        updateType,
			FilledQuantity:    e.FilledQuantity,
			RemainingQuantity: e.RemainingQuantity,
			AveragePrice:      &price,
		}, nil

	case PnlUpdate:
		unrealized := e.UnrealizedPnl
		realized := e.RealizedPnl
		return &protocol.PortfolioUpdate{
			UserID:        e.UserID,
			UpdateType:    "pnl_change",
			CashBalance:   e.CashBalance,
			UnrealizedPnl: &unrealized,
			RealizedPnl:   &realized,
		}, nil
	}

	return nil, fmt.Errorf("events: no projection for %T", rec)
}

// Encode projects the record and serializes it, stamping the event's
// own occurrence time on the envelope.
func Encode(rec Record) ([]byte, error) {
	payload, err := Project(rec)
	if err != nil {
		return nil, err
	}
	return protocol.Encode(payload, rec.OccurredAt())
}
