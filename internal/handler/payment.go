package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/artmarket/payment-service/internal/auth"
	"github.com/artmarket/payment-service/internal/payment"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Stripe event payloads are small; cap the body well above the largest
// envelope the service consumes.
const maxWebhookBodyBytes = 1 << 16

const stripeSignatureHeader = "Stripe-Signature"

type IntentIssuer interface {
	CreateIntent(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, currency, description string) (*payment.IntentHandle, error)
}

type EventReconciler interface {
	HandleEvent(ctx context.Context, payload []byte, sigHeader string) error
}

type PaymentHandler struct {
	issuer     IntentIssuer
	reconciler EventReconciler
}

func NewPaymentHandler(issuer IntentIssuer, reconciler EventReconciler) *PaymentHandler {
	return &PaymentHandler{issuer: issuer, reconciler: reconciler}
}

type createIntentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
}

// CreateIntent handles POST /api/payments/create-intent.
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createIntentRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	handle, err := h.issuer.CreateIntent(r.Context(), userID, req.Amount, req.Currency, req.Description)
	if err != nil {
		var gatewayErr *payment.GatewayError
		switch {
		case errors.Is(err, payment.ErrInvalidAmount):
			respondWithError(w, http.StatusBadRequest, "Invalid amount")
		case errors.As(err, &gatewayErr):
			respondWithError(w, http.StatusBadRequest, gatewayErr.Message)
		case errors.Is(err, payment.ErrGatewayTimeout):
			respondWithError(w, http.StatusGatewayTimeout, "Payment initialization timed out")
		default:
			log.Error().Err(err).Msg("handler: failed to create payment intent")
			respondWithError(w, http.StatusInternalServerError, "Payment initialization failed")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, handle)
}

// Webhook handles POST /api/payments/webhook. The endpoint is
// unauthenticated; signature verification is the authenticity check.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	err = h.reconciler.HandleEvent(r.Context(), payload, r.Header.Get(stripeSignatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrInvalidSignature):
			respondWithError(w, http.StatusBadRequest, "Invalid signature")
		case errors.Is(err, payment.ErrMalformedPayload):
			respondWithError(w, http.StatusBadRequest, "Invalid payload")
		default:
			// Store failure: surface 500 so the provider retries later.
			log.Error().Err(err).Msg("handler: webhook processing failed")
			respondWithError(w, http.StatusInternalServerError, "Internal error")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
