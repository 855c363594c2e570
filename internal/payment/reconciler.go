package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/artmarket/payment-service/internal/order"
	"github.com/rs/zerolog/log"
)

// Notifier is told about orders the reconciler has just confirmed.
// Notification failures never fail the webhook.
type Notifier interface {
	OrderConfirmed(ctx context.Context, o *order.Order) error
}

// Reconciler consumes inbound payment events and applies the terminal
// status transition to the matching order.
//
// Deliveries are at-least-once, possibly duplicated and out of order, so
// every path after signature verification must acknowledge unless the store
// itself fails: returning an error makes the provider retry the delivery.
type Reconciler struct {
	gateway  Gateway
	orders   order.Repository
	notifier Notifier
}

func NewReconciler(gateway Gateway, orders order.Repository, notifier Notifier) *Reconciler {
	return &Reconciler{gateway: gateway, orders: orders, notifier: notifier}
}

// HandleEvent verifies, parses and applies one webhook delivery.
// A nil return means the delivery is settled and must be acknowledged.
func (r *Reconciler) HandleEvent(ctx context.Context, payload []byte, sigHeader string) error {
	if err := r.gateway.VerifySignature(payload, sigHeader); err != nil {
		log.Warn().Err(err).Msg("reconciler: rejected webhook delivery")
		return err
	}

	event, err := r.gateway.ParseEvent(payload)
	if err != nil {
		log.Warn().Err(err).Msg("reconciler: failed to parse verified payload")
		return err
	}

	switch event.Type {
	case EventSucceeded:
		return r.settle(ctx, event, order.StatusConfirmed)
	case EventFailed:
		return r.settle(ctx, event, order.StatusFailed)
	case EventUnknown:
		log.Info().Str("payment_intent_id", event.IntentID).Msg("reconciler: ignoring event type this service does not consume")
		return nil
	default:
		return fmt.Errorf("reconciler: unhandled event type %q", event.Type)
	}
}

func (r *Reconciler) settle(ctx context.Context, event *Event, target order.Status) error {
	o, err := r.orders.GetOrderByIntentID(ctx, event.IntentID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			// The event may predate order persistence, or the intent was
			// never bound. Acknowledge so the provider stops redelivering.
			log.Warn().Str("payment_intent_id", event.IntentID).Stringer("event_type", event.Type).Msg("reconciler: no order matches event intent id")
			return nil
		}
		log.Error().Err(err).Str("payment_intent_id", event.IntentID).Msg("reconciler: failed to look up order for event")
		return fmt.Errorf("reconciler: failed to look up order: %w", err)
	}

	if o.Status == target {
		log.Info().Stringer("order_id", o.ID).Str("payment_intent_id", event.IntentID).Stringer("status", target).Msg("reconciler: duplicate delivery, order already settled")
		return nil
	}
	if o.Status != order.StatusPending {
		// First terminal transition is authoritative.
		log.Warn().
			Stringer("order_id", o.ID).
			Str("payment_intent_id", event.IntentID).
			Stringer("current_status", o.Status).
			Stringer("event_target", target).
			Msg("reconciler: conflicting event for settled order ignored")
		return nil
	}

	if event.Amount > 0 && o.TotalAmount.Shift(2).IntPart() != event.Amount {
		log.Warn().
			Stringer("order_id", o.ID).
			Str("payment_intent_id", event.IntentID).
			Int64("event_amount", event.Amount).
			Str("order_total", o.TotalAmount.String()).
			Msg("reconciler: event amount does not match order total")
	}

	applied, err := r.orders.CompareAndSetStatus(ctx, o.ID, order.StatusPending, target)
	if err != nil {
		return fmt.Errorf("reconciler: failed to transition order %s: %w", o.ID, err)
	}
	if !applied {
		log.Info().Stringer("order_id", o.ID).Str("payment_intent_id", event.IntentID).Msg("reconciler: concurrent delivery already settled order")
		return nil
	}

	log.Info().
		Stringer("order_id", o.ID).
		Str("payment_intent_id", event.IntentID).
		Stringer("old_status", order.StatusPending).
		Stringer("new_status", target).
		Msg("reconciler: order settled")

	if target == order.StatusConfirmed && r.notifier != nil {
		o.Status = target
		if err := r.notifier.OrderConfirmed(ctx, o); err != nil {
			log.Error().Err(err).Stringer("order_id", o.ID).Msg("reconciler: failed to record confirmation notification")
		}
	}

	return nil
}
