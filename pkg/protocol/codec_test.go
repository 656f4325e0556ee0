package protocol

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func samplePayloads() map[MessageType]Payload {
	return map[MessageType]Payload{
		TypeMarketData: &MarketData{
			Symbol:    "THYAO",
			LastPrice: dec("245.5"),
			Bid:       decPtr("245.4"),
			Ask:       decPtr("245.6"),
			Volume:    1_250_000,
			Direction: "BUY",
		},
		TypeOrderUpdate: &OrderUpdate{
			OrderID:           "ord-1001",
			ClientOrderID:     "cli-77",
			UserID:            "user-42",
			Symbol:            "GARAN",
			Status:            "PARTIALLY_FILLED",
			UpdateType:        "partial_fill",
			FilledQuantity:    dec("60"),
			RemainingQuantity: dec("40"),
			AveragePrice:      decPtr("91.25"),
		},
		TypePortfolioUpdate: &PortfolioUpdate{
			UserID:        "user-42",
			UpdateType:    "pnl_change",
			CashBalance:   decPtr("15000"),
			UnrealizedPnl: decPtr("-120.35"),
			RealizedPnl:   decPtr("640.1"),
		},
		TypeTrade: &Trade{
			TradeID:  "trd-555",
			Symbol:   "AKBNK",
			Price:    dec("56.85"),
			Quantity: dec("200"),
			Side:     "SELL",
			Buyer:    "B123",
			Seller:   "S456",
		},
		TypePong:  &Heartbeat{},
		TypeError: &ErrorPayload{Code: "RATE_LIMIT", Message: "slow down"},
		TypeSubscriptionConfirmed: &SubscriptionConfirmation{
			Channels: []string{"market_data:THYAO", "trades:THYAO"},
		},
		TypeUnsubscriptionConfirmed: &UnsubscriptionConfirmation{
			Channels: []string{"order_updates:user-42"},
		},
	}
}

func TestRoundTrip_AllTags(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_123).UTC()

	for tag, payload := range samplePayloads() {
		t.Run(string(tag), func(t *testing.T) {
			raw, err := Encode(payload, at)
			require.NoError(t, err)

			env, disp, err := Decode(raw)
			require.NoError(t, err)
			require.NotNil(t, env)

			assert.Equal(t, tag, env.Type)
			assert.Equal(t, at, env.Timestamp)
			assert.Equal(t, payload.Channel(), env.Channel)
			assert.Equal(t, payload, env.Payload)

			if tag == TypePong {
				assert.Equal(t, KeepAlive, disp)
			} else {
				assert.Equal(t, Deliver, disp)
			}

			// Re-encoding a decoded envelope must reproduce the frame
			// byte-for-byte.
			again, err := EncodeEnvelope(env)
			require.NoError(t, err)
			assert.JSONEq(t, string(raw), string(again))
		})
	}
}

func TestDecode_UnknownType(t *testing.T) {
	frames := []string{
		`{"type":"order_book","timestamp":1700000000123,"channel":"x"}`,
		`{"type":"","timestamp":1700000000123}`,
		`{"timestamp":1700000000123}`,
	}

	for _, frame := range frames {
		env, _, err := Decode([]byte(frame))
		assert.Nil(t, env)

		var unknown *UnknownTypeError
		assert.ErrorAs(t, err, &unknown, "frame: %s", frame)
	}
}

func TestDecode_MalformedPayload(t *testing.T) {
	tests := []struct {
		name  string
		frame string
	}{
		{
			name:  "market data without symbol",
			frame: `{"type":"market_data","timestamp":1700000000123,"last_price":"10.5","volume":5}`,
		},
		{
			name:  "market data with string volume",
			frame: `{"type":"market_data","timestamp":1700000000123,"symbol":"THYAO","last_price":"10.5","volume":"many"}`,
		},
		{
			name:  "order update without order id",
			frame: `{"type":"order_update","timestamp":1700000000123,"user_id":"u1","status":"FILLED"}`,
		},
		{
			name:  "trade with zero price",
			frame: `{"type":"trade","timestamp":1700000000123,"symbol":"GARAN","price":"0","quantity":"1"}`,
		},
		{
			name:  "error without code",
			frame: `{"type":"error","timestamp":1700000000123,"message":"boom"}`,
		},
		{
			name:  "subscription confirmation without channels",
			frame: `{"type":"subscription_confirmed","timestamp":1700000000123}`,
		},
		{
			name:  "missing timestamp",
			frame: `{"type":"pong"}`,
		},
		{
			name:  "not a JSON object",
			frame: `ping`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, _, err := Decode([]byte(tt.frame))
			assert.Nil(t, env)

			var malformed *MalformedPayloadError
			assert.ErrorAs(t, err, &malformed)
		})
	}
}

func TestDecode_TimestampFormats(t *testing.T) {
	want := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	frames := []string{
		fmt.Sprintf(`{"type":"pong","timestamp":%d}`, want.UnixMilli()),
		`{"type":"pong","timestamp":"2026-03-14T09:30:00Z"}`,
		`{"type":"pong","timestamp":"2026-03-14T12:30:00+03:00"}`,
	}

	for _, frame := range frames {
		env, disp, err := Decode([]byte(frame))
		require.NoError(t, err, "frame: %s", frame)
		assert.Equal(t, KeepAlive, disp)
		assert.True(t, env.Timestamp.Equal(want), "frame: %s", frame)
	}
}

func TestDecode_ChannelFallsBackToDerived(t *testing.T) {
	// Frame without an explicit channel still routes by subject.
	frame := `{"type":"trade","timestamp":1700000000123,"symbol":"GARAN","price":"91.2","quantity":"10"}`

	env, _, err := Decode([]byte(frame))
	require.NoError(t, err)
	assert.Equal(t, "trades:GARAN", env.Channel)
}

func TestEncode_StampsTypeAndChannel(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_000).UTC()

	raw, err := Encode(&OrderUpdate{
		OrderID:           "ord-1",
		UserID:            "u-9",
		Symbol:            "SISE",
		Status:            "FILLED",
		UpdateType:        "fill",
		FilledQuantity:    dec("10"),
		RemainingQuantity: dec("0"),
	}, at)
	require.NoError(t, err)

	env, _, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, TypeOrderUpdate, env.Type)
	assert.Equal(t, "order_updates:u-9", env.Channel)
	assert.Equal(t, at, env.Timestamp)
}

func TestEncode_RejectsInvalidPayload(t *testing.T) {
	_, err := Encode(&Trade{Symbol: "GARAN"}, time.Now())

	var malformed *MalformedPayloadError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, TypeTrade, malformed.Tag)
}

func TestDecode_Concurrent(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_123).UTC()

	frames := make([][]byte, 0, 8)
	for _, payload := range samplePayloads() {
		raw, err := Encode(payload, at)
		require.NoError(t, err)
		frames = append(frames, raw)
	}

	sequential := make([]*Envelope, len(frames))
	for i, raw := range frames {
		env, _, err := Decode(raw)
		require.NoError(t, err)
		sequential[i] = env
	}

	const workers = 16
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, raw := range frames {
				env, _, err := Decode(raw)
				assert.NoError(t, err)
				assert.Equal(t, sequential[i], env)
			}
		}()
	}
	wg.Wait()
}
