package events

import "context"

// Event types
const (
	EventNewDeal           = "new_deal"
	EventDealStatusChanged = "deal_status_changed"
	EventPaymentReceived   = "payment_received"
)

// StreamDeals is the channel all deal lifecycle events are published on.
const StreamDeals = "events:deal"

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
