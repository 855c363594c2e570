package notification

import (
	"context"
	"fmt"

	"github.com/artmarket/payment-service/internal/order"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

type Service interface {
	OrderConfirmed(ctx context.Context, o *order.Order) error
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]Notification, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// OrderConfirmed records an in-app notification for a freshly confirmed
// order. It satisfies the payment reconciler's Notifier port.
func (s *service) OrderConfirmed(ctx context.Context, o *order.Order) error {
	n := &Notification{
		UserID:  o.UserID,
		OrderID: o.ID,
		Type:    TypeOrderConfirmed,
		Message: fmt.Sprintf("Your order for %s has been confirmed.", o.TotalAmount.StringFixed(2)),
	}

	if err := s.repo.Create(ctx, n); err != nil {
		log.Error().Err(err).Stringer("order_id", o.ID).Msg("service: failed to create confirmation notification")
		return fmt.Errorf("service: failed to create confirmation notification: %w", err)
	}

	log.Info().Stringer("order_id", o.ID).Stringer("user_id", o.UserID).Msg("service: confirmation notification recorded")
	return nil
}

func (s *service) GetByUserID(ctx context.Context, userID uuid.UUID) ([]Notification, error) {
	notifications, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to fetch notifications")
		return nil, fmt.Errorf("service: failed to fetch notifications: %w", err)
	}

	return notifications, nil
}
