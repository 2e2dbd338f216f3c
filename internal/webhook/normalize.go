package webhook

import (
	"encoding/json"
	"time"

	"github.com/efdarkside/whatsapi/internal/config"
	"github.com/efdarkside/whatsapi/internal/model"
	"go.uber.org/zap"
)

// Normalizer extracts the one actionable message, if any, out of a webhook
// delivery. Malformed or irrelevant payloads are a normal part of webhook
// traffic, so the outcome is event-or-skip, never an error.
type Normalizer struct {
	onEmptyText config.EmptyTextPolicy
	log         *zap.Logger
}

func NewNormalizer(onEmptyText config.EmptyTextPolicy, log *zap.Logger) *Normalizer {
	return &Normalizer{onEmptyText: onEmptyText, log: log}
}

// Normalize walks the fixed positional path entry[0].changes[0].value.messages[0]
// and returns the extracted event. The second return is false when the payload
// holds nothing to relay.
func (n *Normalizer) Normalize(body []byte, now time.Time) (model.InboundEvent, bool) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		n.log.Debug("normalize: undecodable payload", zap.Error(err))
		return model.InboundEvent{}, false
	}

	if len(p.Entry) == 0 || len(p.Entry[0].Changes) == 0 {
		return model.InboundEvent{}, false
	}
	msgs := p.Entry[0].Changes[0].Value.Messages
	if len(msgs) == 0 {
		return model.InboundEvent{}, false
	}

	msg := msgs[0]
	if msg.Type != TypeText || msg.Text == nil {
		n.log.Debug("normalize: non-text message", zap.String("type", msg.Type), zap.String("id", msg.ID))
		return model.InboundEvent{}, false
	}
	if msg.Text.Body == "" && n.onEmptyText == config.EmptyTextSkip {
		n.log.Debug("normalize: empty text body", zap.String("id", msg.ID))
		return model.InboundEvent{}, false
	}

	return model.NewInboundEvent(msg.ID, msg.From, msg.Text.Body, now), true
}
