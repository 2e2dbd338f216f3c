package model

import "time"

// RelayStatus is the terminal state of a relayed event
type RelayStatus string

const (
	StatusSuccess         RelayStatus = "success"
	StatusIntentFailure   RelayStatus = "intent_failure"
	StatusDeliveryFailure RelayStatus = "delivery_failure"
)

// InboundEvent is a single actionable message extracted from a webhook
// delivery. It is immutable once constructed and lives only for the
// duration of one request.
type InboundEvent struct {
	MessageID  string    `json:"message_id"`
	Sender     string    `json:"sender"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"received_at"`
}

// NewInboundEvent creates an inbound event with a UTC receive timestamp.
func NewInboundEvent(messageID, sender, text string, receivedAt time.Time) InboundEvent {
	return InboundEvent{
		MessageID:  messageID,
		Sender:     sender,
		Text:       text,
		ReceivedAt: receivedAt.UTC(),
	}
}

// RelayResult describes the outcome of dispatching one inbound event.
// It is never persisted; it only shapes the HTTP response and logs.
type RelayResult struct {
	Status            RelayStatus `json:"status"`
	Detail            string      `json:"detail,omitempty"`
	ProviderMessageID string      `json:"provider_message_id,omitempty"`

	// Err carries the underlying failure so callers can distinguish
	// error subtypes (e.g. credential expiry) with errors.Is.
	Err error `json:"-"`
}

// OK reports whether the relay completed both stages.
func (r RelayResult) OK() bool { return r.Status == StatusSuccess }
