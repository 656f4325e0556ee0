package ws

import (
	"go.uber.org/zap"

	"github.com/bisttrading/algowire/pkg/events"
	"github.com/bisttrading/algowire/pkg/protocol"
)

// EnvelopeRelay forwards feed envelopes and projected domain events to
// hub subscribers, re-encoding through the codec so type, timestamp
// and channel stay consistent.
type EnvelopeRelay struct {
	hub *Hub
	log *zap.Logger
}

func NewEnvelopeRelay(hub *Hub, log *zap.Logger) *EnvelopeRelay {
	return &EnvelopeRelay{hub: hub, log: log}
}

// Handle implements Handler for envelopes arriving from the feed.
func (r *EnvelopeRelay) Handle(env *protocol.Envelope) {
	frame, err := protocol.EncodeEnvelope(env)
	if err != nil {
		r.log.Warn("re-encode envelope", zap.Error(err))
		return
	}
	r.hub.BroadcastToChannel(env.Channel, frame)
}

// PublishRecord projects a domain event and fans the resulting
// envelope out to its derived channel.
func (r *EnvelopeRelay) PublishRecord(rec events.Record) error {
	payload, err := events.Project(rec)
	if err != nil {
		return err
	}
	frame, err := protocol.Encode(payload, rec.OccurredAt())
	if err != nil {
		return err
	}
	r.hub.BroadcastToChannel(payload.Channel(), frame)
	return nil
}
