package payment

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAmount rejects intent requests that are not strictly
	// positive once converted to the currency's minor unit.
	ErrInvalidAmount = errors.New("payment: amount must be greater than zero")

	// ErrInvalidSignature covers every authenticity failure of an inbound
	// event: bad MAC, garbled or missing header, stale timestamp, and an
	// unconfigured webhook secret.
	ErrInvalidSignature = errors.New("payment: invalid webhook signature")

	// ErrMalformedPayload marks a verified payload that does not parse
	// into an event envelope.
	ErrMalformedPayload = errors.New("payment: malformed event payload")

	// ErrGatewayTimeout is returned when the intent creation call exceeds
	// its bounded deadline. Retrying is the caller's decision.
	ErrGatewayTimeout = errors.New("payment: gateway request timed out")
)

// GatewayError carries the payment provider's own message for a declined or
// otherwise failed API call.
type GatewayError struct {
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment: gateway error: %s", e.Message)
}
