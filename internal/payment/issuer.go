package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	defaultCurrency    = "usd"
	defaultDescription = "Art marketplace purchase"
)

// Issuer validates checkout amounts and requests payment intents from the
// gateway. It persists nothing; the intent id is bound to an order by the
// checkout flow.
type Issuer struct {
	gateway Gateway
	timeout time.Duration
}

func NewIssuer(gateway Gateway, timeout time.Duration) *Issuer {
	return &Issuer{gateway: gateway, timeout: timeout}
}

func (i *Issuer) CreateIntent(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, currency, description string) (*IntentHandle, error) {
	// Convert to the minor unit before validating, so 0.001 is rejected
	// the same as 0.
	minorUnits := amount.Shift(2).IntPart()
	if minorUnits <= 0 {
		log.Warn().Stringer("user_id", userID).Str("amount", amount.String()).Msg("payment: rejected intent with non-positive amount")
		return nil, ErrInvalidAmount
	}

	if currency == "" {
		currency = defaultCurrency
	}
	if description == "" {
		description = defaultDescription
	}

	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	handle, err := i.gateway.CreateIntent(ctx, IntentRequest{
		Amount:      minorUnits,
		Currency:    currency,
		Description: description,
		// Audit cross-reference only; reconciliation matches strictly on
		// the intent id.
		Metadata: map[string]string{"user_id": userID.String()},
	})
	if err != nil {
		return nil, fmt.Errorf("payment: failed to create intent: %w", err)
	}

	log.Info().
		Stringer("user_id", userID).
		Str("payment_intent_id", handle.IntentID).
		Int64("amount_minor_units", minorUnits).
		Str("currency", currency).
		Msg("payment: intent created")

	return handle, nil
}
