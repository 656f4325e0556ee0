package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bisttrading/algowire/pkg/protocol"
)

func TestHub_SlowClientDropKeepsSendOpen(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	client := &Client{
		hub:           hub,
		send:          make(chan []byte, 1),
		id:            "slow-client",
		log:           zap.NewNop(),
		subscriptions: map[string]bool{"system": true},
	}
	hub.register <- client

	// The second frame overflows the 1-slot buffer and drops the client
	// from the fan-out.
	hub.BroadcastToChannel("system", []byte("one"))
	hub.BroadcastToChannel("system", []byte("two"))

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		_, ok := hub.clients[client]
		return !ok
	}, time.Second, 5*time.Millisecond, "slow client stays in the fan-out")

	// A subscription change can still be in flight on the readPump when
	// the drop happens; send must stay open until unregister.
	client.confirm(&protocol.SubscriptionConfirmation{Channels: []string{"trades:THYAO"}})

	// Unregister is the single close point, after the pumps stopped.
	hub.unregister <- client

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-client.send:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("send never closed after unregister")
		}
	}
}
