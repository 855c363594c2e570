package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Fulfillment transitions only. Transitions out of pending (to confirmed or
// failed) are owned by the payment reconciler and must never be reachable
// through UpdateOrderStatus.
var allowedTransitions = map[Status]map[Status]bool{
	StatusConfirmed: {
		StatusShipped: true,
	},
	StatusShipped: {
		StatusDelivered: true,
	},
}

var (
	ErrEmptyOrder              = errors.New("order must contain at least one item")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
)

type Service interface {
	CreateOrder(ctx context.Context, orderInput *Order) (*Order, error)
	GetOrderForUser(ctx context.Context, id, userID uuid.UUID) (*Order, error)
	GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error
}

type service struct {
	orderRepo Repository
}

func NewService(orderRepo Repository) Service {
	return &service{orderRepo: orderRepo}
}

func (s *service) CreateOrder(ctx context.Context, orderInput *Order) (*Order, error) {
	if len(orderInput.Items) == 0 {
		log.Warn().Stringer("user_id", orderInput.UserID).Msg("service: attempt to create order with no items")
		return nil, fmt.Errorf("service: %w", ErrEmptyOrder)
	}

	orderInput.ID = uuid.Nil

	totalAmount := decimal.Zero
	for i := range orderInput.Items {
		item := &orderInput.Items[i]

		if item.Quantity <= 0 {
			return nil, fmt.Errorf("service: order item quantity for artwork %s must be greater than zero", item.ArtworkID)
		}
		if item.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("service: order item unit price for artwork %s cannot be negative", item.ArtworkID)
		}
		if item.ArtworkID == uuid.Nil {
			return nil, errors.New("service: artwork id in order item cannot be nil")
		}

		item.ID = uuid.Nil
		item.OrderID = uuid.Nil

		totalAmount = totalAmount.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	orderInput.Status = StatusPending
	orderInput.TotalAmount = totalAmount

	_, err := s.orderRepo.CreateOrder(ctx, orderInput)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to create order in repository")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().Stringer("order_id", orderInput.ID).Stringer("user_id", orderInput.UserID).Msg("service: order created")

	return orderInput, nil
}

func (s *service) GetOrderForUser(ctx context.Context, id, userID uuid.UUID) (*Order, error) {
	o, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Stringer("order_id", id).Msg("service: order not found by id")
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Msg("service: failed to fetch order by id in repository")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}

	// Another user's order is indistinguishable from a missing one.
	if o.UserID != userID {
		log.Warn().Stringer("order_id", id).Stringer("user_id", userID).Msg("service: order belongs to another user")
		return nil, ErrOrderNotFound
	}

	return o, nil
}

func (s *service) GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	orders, err := s.orderRepo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to fetch user orders in repository")
		return nil, fmt.Errorf("service: failed to fetch user orders: %w", err)
	}

	return orders, nil
}

func (s *service) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error {
	currentOrder, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to get order for status update")
		return fmt.Errorf("service: failed to get order for status update: %w", err)
	}

	if currentOrder.Status == newStatus {
		log.Info().Stringer("order_id", orderID).Stringer("status", newStatus).Msg("service: order status is already the same, no update needed")
		return nil
	}

	if !allowedTransitions[currentOrder.Status][newStatus] {
		log.Warn().
			Stringer("order_id", currentOrder.ID).
			Stringer("current_status", currentOrder.Status).
			Stringer("new_status", newStatus).
			Msg("service: invalid status transition attempt")
		return fmt.Errorf("service: %w: %s -> %s", ErrInvalidStatusTransition, currentOrder.Status, newStatus)
	}

	applied, err := s.orderRepo.CompareAndSetStatus(ctx, orderID, currentOrder.Status, newStatus)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Stringer("new_status", newStatus).Msg("service: failed to update order status in repository")
		return fmt.Errorf("service: failed to update order status: %w", err)
	}
	if !applied {
		// Lost a race with a concurrent transition; the stored status moved
		// after our read, so this request's view is stale.
		log.Warn().Stringer("order_id", orderID).Stringer("new_status", newStatus).Msg("service: order status changed concurrently, update not applied")
		return fmt.Errorf("service: %w: order %s changed concurrently", ErrInvalidStatusTransition, orderID)
	}

	log.Info().Stringer("order_id", orderID).Stringer("old_status", currentOrder.Status).Stringer("new_status", newStatus).Msg("service: order status updated")
	return nil
}
