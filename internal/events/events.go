package events

import "context"

// Channel all ledger notifications are published on.
const ChannelLedger = "events:ledger"

// Event types
const (
	EventUserRegistered  = "user_registered"
	EventPaymentCreated  = "payment_created"
	EventPaymentClaimed  = "payment_claimed"
	EventDepositReceived = "deposit_received"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, channel string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, channel string, handler func(Event)) error
}
