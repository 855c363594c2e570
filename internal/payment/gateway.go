package payment

import "context"

type EventType string

const (
	EventSucceeded EventType = "succeeded"
	EventFailed    EventType = "failed"
	// EventUnknown is a deliberate branch, not a fallthrough: the provider
	// ships event types this service does not consume, and they must be
	// acknowledged without action.
	EventUnknown EventType = "unknown"
)

func (t EventType) String() string {
	return string(t)
}

// Event is the parsed, verified form of an inbound webhook delivery.
// Deliveries are at-least-once and unordered; nothing here is persisted.
type Event struct {
	Type     EventType
	IntentID string
	// Amount is in the currency's minor unit, as reported by the provider.
	Amount   int64
	Currency string
	Metadata map[string]string
}

// IntentRequest describes a payment intent to be created with the provider.
type IntentRequest struct {
	// Amount is in the currency's minor unit.
	Amount      int64
	Currency    string
	Description string
	Metadata    map[string]string
}

// IntentHandle is returned verbatim to the client, which completes the
// payment against the provider using the client secret.
type IntentHandle struct {
	IntentID     string `json:"payment_intent_id"`
	ClientSecret string `json:"client_secret"`
}

// Gateway is the boundary to the external payment processor.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*IntentHandle, error)
	VerifySignature(payload []byte, sigHeader string) error
	ParseEvent(payload []byte) (*Event, error)
}
