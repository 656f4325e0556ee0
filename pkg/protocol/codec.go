package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Disposition tells the caller what to do with a successfully decoded
// frame: deliver it to the application, or consume it as keep-alive.
type Disposition int

const (
	Deliver Disposition = iota
	KeepAlive
)

// UnknownTypeError reports a frame whose discriminator is not one of
// the eight registered tags. Non-fatal: drop the frame, keep reading.
type UnknownTypeError struct {
	Tag string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("protocol: unknown message type %q", e.Tag)
}

// MalformedPayloadError reports a recognized tag whose payload does not
// match that tag's schema. Non-fatal: drop the frame, keep reading.
type MalformedPayloadError struct {
	Tag    MessageType
	Detail string
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("protocol: malformed %q payload: %s", e.Tag, e.Detail)
}

// registry maps each discriminator to a factory for its payload shape.
// The tag is read first; only then is the rest of the frame parsed
// against the selected schema.
var registry = map[MessageType]func() Payload{
	TypeMarketData:              func() Payload { return &MarketData{} },
	TypeOrderUpdate:             func() Payload { return &OrderUpdate{} },
	TypePortfolioUpdate:         func() Payload { return &PortfolioUpdate{} },
	TypeTrade:                   func() Payload { return &Trade{} },
	TypePong:                    func() Payload { return &Heartbeat{} },
	TypeError:                   func() Payload { return &ErrorPayload{} },
	TypeSubscriptionConfirmed:   func() Payload { return &SubscriptionConfirmation{} },
	TypeUnsubscriptionConfirmed: func() Payload { return &UnsubscriptionConfirmation{} },
}

type header struct {
	Type      string          `json:"type"`
	Timestamp json.RawMessage `json:"timestamp"`
	Channel   string          `json:"channel"`
}

// Decode parses one wire frame. A frame whose payload is inconsistent
// with its declared type is rejected here, never handed out half-built.
// Heartbeats decode successfully but come back as KeepAlive so they are
// never forwarded to business consumers.
func Decode(raw []byte) (*Envelope, Disposition, error) {
	var hdr header
	if err := json.Unmarshal(raw, &hdr); err != nil {
		return nil, Deliver, &MalformedPayloadError{Detail: "frame is not a JSON object: " + err.Error()}
	}
	if hdr.Type == "" {
		return nil, Deliver, &UnknownTypeError{Tag: ""}
	}

	tag := MessageType(hdr.Type)
	factory, ok := registry[tag]
	if !ok {
		return nil, Deliver, &UnknownTypeError{Tag: hdr.Type}
	}

	ts, err := parseTimestamp(hdr.Timestamp)
	if err != nil {
		return nil, Deliver, &MalformedPayloadError{Tag: tag, Detail: err.Error()}
	}

	payload := factory()
	if err := json.Unmarshal(raw, payload); err != nil {
		return nil, Deliver, &MalformedPayloadError{Tag: tag, Detail: err.Error()}
	}
	if err := payload.validateWire(); err != nil {
		return nil, Deliver, &MalformedPayloadError{Tag: tag, Detail: err.Error()}
	}

	channel := hdr.Channel
	if channel == "" {
		channel = payload.Channel()
	}

	env := &Envelope{
		Type:      tag,
		Timestamp: ts,
		Channel:   channel,
		Payload:   payload,
	}

	if tag == TypePong {
		return env, KeepAlive, nil
	}
	return env, Deliver, nil
}

// Encode serializes a payload into one wire frame. The discriminator,
// timestamp and channel are stamped here from the payload itself, so a
// caller can never emit a frame whose type disagrees with its shape.
func Encode(p Payload, at time.Time) ([]byte, error) {
	if err := p.validateWire(); err != nil {
		return nil, &MalformedPayloadError{Tag: p.Tag(), Detail: err.Error()}
	}

	body, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}

	fields["type"], _ = json.Marshal(p.Tag())
	fields["timestamp"], _ = json.Marshal(at.UnixMilli())
	fields["channel"], _ = json.Marshal(p.Channel())

	return json.Marshal(fields)
}

// EncodeEnvelope re-serializes a decoded envelope, preserving its
// original timestamp. Type and channel are still derived from the
// payload, not taken from the caller.
func EncodeEnvelope(env *Envelope) ([]byte, error) {
	return Encode(env.Payload, env.Timestamp)
}

// parseTimestamp accepts epoch-millis numbers or ISO-8601 strings.
func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, errors.New("missing timestamp")
	}

	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
		}
		return t.UTC(), nil
	}

	return time.Time{}, fmt.Errorf("unparseable timestamp %s", string(raw))
}

// Structural checks applied on both decode and encode. These are the
// per-tag schema constraints; business validation lives elsewhere.

func (m *MarketData) validateWire() error {
	if m.Symbol == "" {
		return errors.New("symbol is required")
	}
	if !m.LastPrice.IsPositive() {
		return errors.New("last_price must be positive")
	}
	if m.Volume < 0 {
		return errors.New("volume must not be negative")
	}
	return nil
}

func (o *OrderUpdate) validateWire() error {
	if o.OrderID == "" {
		return errors.New("order_id is required")
	}
	if o.UserID == "" {
		return errors.New("user_id is required")
	}
	if o.Status == "" {
		return errors.New("status is required")
	}
	if o.FilledQuantity.IsNegative() || o.RemainingQuantity.IsNegative() {
		return errors.New("quantities must not be negative")
	}
	return nil
}

func (p *PortfolioUpdate) validateWire() error {
	if p.UserID == "" {
		return errors.New("user_id is required")
	}
	if p.UpdateType == "" {
		return errors.New("update_type is required")
	}
	return nil
}

func (t *Trade) validateWire() error {
	if t.Symbol == "" {
		return errors.New("symbol is required")
	}
	if !t.Price.IsPositive() {
		return errors.New("price must be positive")
	}
	if !t.Quantity.IsPositive() {
		return errors.New("quantity must be positive")
	}
	return nil
}

func (*Heartbeat) validateWire() error { return nil }

func (e *ErrorPayload) validateWire() error {
	if e.Code == "" {
		return errors.New("code is required")
	}
	return nil
}

func (s *SubscriptionConfirmation) validateWire() error {
	if len(s.Channels) == 0 {
		return errors.New("channels must not be empty")
	}
	return nil
}

func (u *UnsubscriptionConfirmation) validateWire() error {
	if len(u.Channels) == 0 {
		return errors.New("channels must not be empty")
	}
	return nil
}
