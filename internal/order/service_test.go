package order_test

import (
	"context"
	"errors"
	"testing"

	"github.com/artmarket/payment-service/internal/order"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	createFunc        func(ctx context.Context, o *order.Order) (uuid.UUID, error)
	getByIDFunc       func(ctx context.Context, id uuid.UUID) (*order.Order, error)
	getByUserIDFunc   func(ctx context.Context, userID uuid.UUID) ([]order.Order, error)
	getByIntentIDFunc func(ctx context.Context, intentID string) (*order.Order, error)
	casFunc           func(ctx context.Context, orderID uuid.UUID, expected, next order.Status) (bool, error)
	bindFunc          func(ctx context.Context, orderID uuid.UUID, intentID string) error
}

func (m *mockRepository) CreateOrder(ctx context.Context, o *order.Order) (uuid.UUID, error) {
	return m.createFunc(ctx, o)
}

func (m *mockRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockRepository) GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]order.Order, error) {
	return m.getByUserIDFunc(ctx, userID)
}

func (m *mockRepository) GetOrderByIntentID(ctx context.Context, intentID string) (*order.Order, error) {
	return m.getByIntentIDFunc(ctx, intentID)
}

func (m *mockRepository) CompareAndSetStatus(ctx context.Context, orderID uuid.UUID, expected, next order.Status) (bool, error) {
	return m.casFunc(ctx, orderID, expected, next)
}

func (m *mockRepository) BindPaymentIntent(ctx context.Context, orderID uuid.UUID, intentID string) error {
	return m.bindFunc(ctx, orderID, intentID)
}

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewV4()
	require.NoError(t, err)
	return id
}

func TestService_CreateOrder(t *testing.T) {
	userID := uuid.Must(uuid.FromString("123e4567-e89b-12d3-a456-426614174000"))
	artworkID := uuid.Must(uuid.FromString("550e8400-e29b-41d4-a716-446655440000"))

	tests := []struct {
		name       string
		order      *order.Order
		createFunc func(ctx context.Context, o *order.Order) (uuid.UUID, error)
		wantErr    bool
		wantErrIs  error
		wantTotal  string
	}{
		{
			name:      "no_items",
			order:     &order.Order{UserID: userID},
			wantErr:   true,
			wantErrIs: order.ErrEmptyOrder,
		},
		{
			name: "zero_quantity",
			order: &order.Order{
				UserID: userID,
				Items: []order.OrderItem{
					{ArtworkID: artworkID, Quantity: 0, UnitPrice: decimal.RequireFromString("50.00")},
				},
			},
			wantErr: true,
		},
		{
			name: "negative_unit_price",
			order: &order.Order{
				UserID: userID,
				Items: []order.OrderItem{
					{ArtworkID: artworkID, Quantity: 1, UnitPrice: decimal.RequireFromString("-1.00")},
				},
			},
			wantErr: true,
		},
		{
			name: "nil_artwork_id",
			order: &order.Order{
				UserID: userID,
				Items: []order.OrderItem{
					{Quantity: 1, UnitPrice: decimal.RequireFromString("50.00")},
				},
			},
			wantErr: true,
		},
		{
			name: "successful_creation_computes_total",
			order: &order.Order{
				UserID: userID,
				Items: []order.OrderItem{
					{ArtworkID: artworkID, Quantity: 2, UnitPrice: decimal.RequireFromString("50.00")},
					{ArtworkID: artworkID, Quantity: 1, UnitPrice: decimal.RequireFromString("19.99")},
				},
			},
			createFunc: func(ctx context.Context, o *order.Order) (uuid.UUID, error) {
				return o.ID, nil
			},
			wantTotal: "119.99",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockRepository{createFunc: tt.createFunc}
			svc := order.NewService(mockRepo)

			created, err := svc.CreateOrder(context.Background(), tt.order)
			if tt.wantErr {
				assert.Error(t, err)
				if tt.wantErrIs != nil {
					assert.ErrorIs(t, err, tt.wantErrIs)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, order.StatusPending, created.Status)
			assert.True(t, created.TotalAmount.Equal(decimal.RequireFromString(tt.wantTotal)),
				"total %s != %s", created.TotalAmount, tt.wantTotal)
		})
	}
}

func TestService_GetOrderForUser(t *testing.T) {
	orderID := mustUUID(t)
	ownerID := mustUUID(t)
	strangerID := mustUUID(t)

	stored := &order.Order{ID: orderID, UserID: ownerID, Status: order.StatusPending}
	mockRepo := &mockRepository{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
			if id == orderID {
				return stored, nil
			}
			return nil, order.ErrOrderNotFound
		},
	}
	svc := order.NewService(mockRepo)

	t.Run("owner_sees_order", func(t *testing.T) {
		o, err := svc.GetOrderForUser(context.Background(), orderID, ownerID)
		require.NoError(t, err)
		assert.Equal(t, orderID, o.ID)
	})

	t.Run("stranger_gets_not_found", func(t *testing.T) {
		_, err := svc.GetOrderForUser(context.Background(), orderID, strangerID)
		assert.ErrorIs(t, err, order.ErrOrderNotFound)
	})

	t.Run("missing_order", func(t *testing.T) {
		_, err := svc.GetOrderForUser(context.Background(), mustUUID(t), ownerID)
		assert.ErrorIs(t, err, order.ErrOrderNotFound)
	})
}

func TestService_UpdateOrderStatus(t *testing.T) {
	orderID := mustUUID(t)

	tests := []struct {
		name          string
		currentStatus order.Status
		newStatus     order.Status
		casResult     bool
		wantErr       bool
		wantErrIs     error
		wantCAS       bool
	}{
		{
			name:          "confirmed_to_shipped",
			currentStatus: order.StatusConfirmed,
			newStatus:     order.StatusShipped,
			casResult:     true,
			wantCAS:       true,
		},
		{
			name:          "shipped_to_delivered",
			currentStatus: order.StatusShipped,
			newStatus:     order.StatusDelivered,
			casResult:     true,
			wantCAS:       true,
		},
		{
			name:          "pending_to_confirmed_is_reconciler_only",
			currentStatus: order.StatusPending,
			newStatus:     order.StatusConfirmed,
			wantErr:       true,
			wantErrIs:     order.ErrInvalidStatusTransition,
		},
		{
			name:          "delivered_is_terminal",
			currentStatus: order.StatusDelivered,
			newStatus:     order.StatusShipped,
			wantErr:       true,
			wantErrIs:     order.ErrInvalidStatusTransition,
		},
		{
			name:          "same_status_is_a_noop",
			currentStatus: order.StatusShipped,
			newStatus:     order.StatusShipped,
		},
		{
			name:          "concurrent_change_rejected",
			currentStatus: order.StatusConfirmed,
			newStatus:     order.StatusShipped,
			casResult:     false,
			wantErr:       true,
			wantErrIs:     order.ErrInvalidStatusTransition,
			wantCAS:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			casCalled := false
			mockRepo := &mockRepository{
				getByIDFunc: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
					return &order.Order{ID: orderID, Status: tt.currentStatus}, nil
				},
				casFunc: func(ctx context.Context, id uuid.UUID, expected, next order.Status) (bool, error) {
					casCalled = true
					assert.Equal(t, tt.currentStatus, expected)
					assert.Equal(t, tt.newStatus, next)
					return tt.casResult, nil
				},
			}
			svc := order.NewService(mockRepo)

			err := svc.UpdateOrderStatus(context.Background(), orderID, tt.newStatus)
			if tt.wantErr {
				assert.Error(t, err)
				if tt.wantErrIs != nil {
					assert.ErrorIs(t, err, tt.wantErrIs)
				}
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCAS, casCalled)
		})
	}
}

func TestService_UpdateOrderStatus_NotFound(t *testing.T) {
	mockRepo := &mockRepository{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
			return nil, order.ErrOrderNotFound
		},
	}
	svc := order.NewService(mockRepo)

	err := svc.UpdateOrderStatus(context.Background(), mustUUID(t), order.StatusShipped)
	assert.True(t, errors.Is(err, order.ErrOrderNotFound))
}
