package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/artmarket/payment-service/internal/config"
	"github.com/rs/zerolog/log"
)

const (
	eventTypeIntentSucceeded = "payment_intent.succeeded"
	eventTypeIntentFailed    = "payment_intent.payment_failed"

	// Stripe recommends rejecting signed payloads older than five minutes
	// to limit replay.
	defaultSignatureTolerance = 5 * time.Minute
)

// StripeGateway talks to the Stripe API directly over HTTP and implements
// the Stripe-Signature webhook verification scheme.
type StripeGateway struct {
	secretKey     string
	webhookSecret string
	baseURL       string
	client        *http.Client
	tolerance     time.Duration
	now           func() time.Time
}

func NewStripeGateway(cfg config.StripeConfig) *StripeGateway {
	return &StripeGateway{
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		client:        &http.Client{Timeout: cfg.Timeout},
		tolerance:     defaultSignatureTolerance,
		now:           time.Now,
	}
}

type stripeIntentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

type stripeErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (g *StripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*IntentHandle, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	form.Set("currency", req.Currency)
	form.Set("description", req.Description)
	form.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range req.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("payment: failed to build intent request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.secretKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isClientTimeout(err) {
			return nil, ErrGatewayTimeout
		}
		log.Error().Err(err).Msg("payment: intent request transport failure")
		return nil, &GatewayError{Message: "payment provider unreachable"}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("payment: failed to read intent response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr stripeErrorResponse
		if jsonErr := json.Unmarshal(body, &apiErr); jsonErr == nil && apiErr.Error.Message != "" {
			return nil, &GatewayError{Message: apiErr.Error.Message}
		}
		return nil, &GatewayError{Message: fmt.Sprintf("unexpected status %d from payment provider", resp.StatusCode)}
	}

	var intent stripeIntentResponse
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, fmt.Errorf("payment: failed to decode intent response: %w", err)
	}
	if intent.ID == "" || intent.ClientSecret == "" {
		return nil, fmt.Errorf("payment: intent response missing id or client secret")
	}

	return &IntentHandle{IntentID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

func isClientTimeout(err error) bool {
	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Timeout()
}

// VerifySignature checks the Stripe-Signature header against the raw payload:
// HMAC-SHA256 over "<timestamp>.<payload>" with the webhook secret, then a
// constant-time compare against every v1 candidate in the header.
func (g *StripeGateway) VerifySignature(payload []byte, sigHeader string) error {
	if g.webhookSecret == "" {
		// Without a secret no delivery can ever verify; rejecting as a
		// signature failure stops the provider from retrying forever.
		log.Warn().Msg("payment: webhook secret not configured, rejecting delivery")
		return ErrInvalidSignature
	}
	if sigHeader == "" {
		return ErrInvalidSignature
	}

	var timestamp string
	var candidates []string
	for _, pair := range strings.Split(sigHeader, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			timestamp = v
		case "v1":
			candidates = append(candidates, v)
		}
	}
	if timestamp == "" || len(candidates) == 0 {
		return ErrInvalidSignature
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	if g.tolerance > 0 {
		age := g.now().Sub(time.Unix(ts, 0))
		if age > g.tolerance || age < -g.tolerance {
			log.Warn().Int64("signed_at", ts).Msg("payment: webhook signature timestamp outside tolerance")
			return ErrInvalidSignature
		}
	}

	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, candidate := range candidates {
		decoded, err := hex.DecodeString(candidate)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return nil
		}
	}

	return ErrInvalidSignature
}

type stripeEventEnvelope struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string            `json:"id"`
			Amount   int64             `json:"amount"`
			Currency string            `json:"currency"`
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// ParseEvent decodes a verified payload into the closed event enum. Types
// this service does not consume come back as EventUnknown.
func (g *StripeGateway) ParseEvent(payload []byte) (*Event, error) {
	var env stripeEventEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrMalformedPayload)
	}

	event := &Event{
		IntentID: env.Data.Object.ID,
		Amount:   env.Data.Object.Amount,
		Currency: env.Data.Object.Currency,
		Metadata: env.Data.Object.Metadata,
	}

	switch env.Type {
	case eventTypeIntentSucceeded:
		event.Type = EventSucceeded
	case eventTypeIntentFailed:
		event.Type = EventFailed
	default:
		event.Type = EventUnknown
		return event, nil
	}

	if event.IntentID == "" {
		return nil, fmt.Errorf("%w: missing payment intent id", ErrMalformedPayload)
	}

	return event, nil
}
