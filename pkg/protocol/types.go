package protocol

// Wire types for the broker event protocol. Every frame is a single
// JSON object carrying a "type" discriminator, a "timestamp", a
// "channel" routing key and the variant fields of exactly one payload.

import (
	"time"

	"github.com/shopspring/decimal"
)

type MessageType string

const (
	TypeMarketData              MessageType = "market_data"
	TypeOrderUpdate             MessageType = "order_update"
	TypePortfolioUpdate         MessageType = "portfolio_update"
	TypeTrade                   MessageType = "trade"
	TypePong                    MessageType = "pong"
	TypeError                   MessageType = "error"
	TypeSubscriptionConfirmed   MessageType = "subscription_confirmed"
	TypeUnsubscriptionConfirmed MessageType = "unsubscription_confirmed"
)

// SystemChannel carries keep-alives, errors and subscription
// confirmations; business payloads derive their channel from their
// subject instead.
const SystemChannel = "system"

// Payload is implemented by exactly the eight wire variants. Tag
// identifies the variant; Channel derives the routing key from the
// payload's subject so fan-out can filter without inspecting fields.
type Payload interface {
	Tag() MessageType
	Channel() string

	// validateWire keeps the variant set closed: only this package can
	// add payload shapes, so the tag/payload invariant stays enforced
	// in one place.
	validateWire() error
}

// Envelope is the decoded form of one wire frame.
type Envelope struct {
	Type      MessageType
	Timestamp time.Time
	Channel   string
	Payload   Payload
}

// MarketData is an instrument snapshot (tag "market_data").
type MarketData struct {
	Symbol    string           `json:"symbol"`
	LastPrice decimal.Decimal  `json:"last_price"`
	Bid       *decimal.Decimal `json:"bid,omitempty"`
	Ask       *decimal.Decimal `json:"ask,omitempty"`
	Volume    int64            `json:"volume"`
	Direction string           `json:"direction,omitempty"`
}

func (*MarketData) Tag() MessageType  { return TypeMarketData }
func (m *MarketData) Channel() string { return "market_data:" + m.Symbol }

// OrderUpdate is an order state transition (tag "order_update").
type OrderUpdate struct {
	OrderID           string           `json:"order_id"`
	ClientOrderID     string           `json:"client_order_id,omitempty"`
	UserID            string           `json:"user_id"`
	Symbol            string           `json:"symbol"`
	Status            string           `json:"status"`
	UpdateType        string           `json:"update_type"`
	FilledQuantity    decimal.Decimal  `json:"filled_quantity"`
	RemainingQuantity decimal.Decimal  `json:"remaining_quantity"`
	AveragePrice      *decimal.Decimal `json:"average_price,omitempty"`
}

func (*OrderUpdate) Tag() MessageType  { return TypeOrderUpdate }
func (o *OrderUpdate) Channel() string { return "order_updates:" + o.UserID }

// PortfolioUpdate is a position/valuation change (tag "portfolio_update").
type PortfolioUpdate struct {
	UserID        string           `json:"user_id"`
	UpdateType    string           `json:"update_type"`
	CashBalance   *decimal.Decimal `json:"cash_balance,omitempty"`
	UnrealizedPnl *decimal.Decimal `json:"unrealized_pnl,omitempty"`
	RealizedPnl   *decimal.Decimal `json:"realized_pnl,omitempty"`
}

func (*PortfolioUpdate) Tag() MessageType  { return TypePortfolioUpdate }
func (p *PortfolioUpdate) Channel() string { return "portfolio_updates:" + p.UserID }

// Trade is an executed trade (tag "trade").
type Trade struct {
	TradeID  string          `json:"trade_id"`
	Symbol   string          `json:"symbol"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
	Side     string          `json:"side,omitempty"`
	Buyer    string          `json:"buyer,omitempty"`
	Seller   string          `json:"seller,omitempty"`
}

func (*Trade) Tag() MessageType  { return TypeTrade }
func (t *Trade) Channel() string { return "trades:" + t.Symbol }

// Heartbeat carries no business fields (tag "pong"). It keeps the
// connection alive and is never forwarded to application consumers.
type Heartbeat struct{}

func (*Heartbeat) Tag() MessageType { return TypePong }
func (*Heartbeat) Channel() string  { return SystemChannel }

// ErrorPayload is a diagnostic from the peer (tag "error").
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (*ErrorPayload) Tag() MessageType { return TypeError }
func (*ErrorPayload) Channel() string  { return SystemChannel }

// SubscriptionConfirmation acknowledges channel subscriptions
// (tag "subscription_confirmed").
type SubscriptionConfirmation struct {
	Channels []string `json:"channels"`
}

func (*SubscriptionConfirmation) Tag() MessageType { return TypeSubscriptionConfirmed }
func (*SubscriptionConfirmation) Channel() string  { return SystemChannel }

// UnsubscriptionConfirmation acknowledges channel removals
// (tag "unsubscription_confirmed").
type UnsubscriptionConfirmation struct {
	Channels []string `json:"channels"`
}

func (*UnsubscriptionConfirmation) Tag() MessageType { return TypeUnsubscriptionConfirmed }
func (*UnsubscriptionConfirmation) Channel() string  { return SystemChannel }
