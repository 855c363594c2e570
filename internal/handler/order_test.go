package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/artmarket/payment-service/internal/order"
	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockOrderService struct {
	createOrderFunc     func(ctx context.Context, o *order.Order) (*order.Order, error)
	getOrderForUserFunc func(ctx context.Context, id, userID uuid.UUID) (*order.Order, error)
	getByUserIDFunc     func(ctx context.Context, userID uuid.UUID) ([]order.Order, error)
	updateStatusFunc    func(ctx context.Context, orderID uuid.UUID, newStatus order.Status) error
}

func (m *mockOrderService) CreateOrder(ctx context.Context, o *order.Order) (*order.Order, error) {
	return m.createOrderFunc(ctx, o)
}

func (m *mockOrderService) GetOrderForUser(ctx context.Context, id, userID uuid.UUID) (*order.Order, error) {
	return m.getOrderForUserFunc(ctx, id, userID)
}

func (m *mockOrderService) GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]order.Order, error) {
	return m.getByUserIDFunc(ctx, userID)
}

func (m *mockOrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus order.Status) error {
	return m.updateStatusFunc(ctx, orderID, newStatus)
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		createOrder    func(ctx context.Context, o *order.Order) (*order.Order, error)
		expectedStatus int
	}{
		{
			name: "success",
			body: `{"items":[{"artwork_id":"550e8400-e29b-41d4-a716-446655440000","quantity":1,"unit_price":"50.00"}],"shipping_address":"1 Gallery Lane"}`,
			createOrder: func(ctx context.Context, o *order.Order) (*order.Order, error) {
				require.Len(t, o.Items, 1)
				assert.Equal(t, "1 Gallery Lane", o.ShippingAddress)
				o.Status = order.StatusPending
				o.TotalAmount = decimal.RequireFromString("50.00")
				return o, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "empty_order",
			body: `{"items":[]}`,
			createOrder: func(ctx context.Context, o *order.Order) (*order.Order, error) {
				return nil, order.ErrEmptyOrder
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid_json",
			body:           `{items}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewOrderHandler(&mockOrderService{createOrderFunc: tt.createOrder})

			req := authedRequest(t, http.MethodPost, "/api/orders", tt.body)
			w := httptest.NewRecorder()

			h.CreateOrder(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestOrderHandler_CreateOrder_Unauthenticated(t *testing.T) {
	h := NewOrderHandler(&mockOrderService{})

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()

	h.CreateOrder(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func orderRequestWithID(t *testing.T, method, target, id, body string) *http.Request {
	t.Helper()
	req := authedRequest(t, method, target, body)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestOrderHandler_GetOrderByID(t *testing.T) {
	orderID := uuid.Must(uuid.FromString("550e8400-e29b-41d4-a716-446655440000"))

	tests := []struct {
		name            string
		id              string
		getOrderForUser func(ctx context.Context, id, userID uuid.UUID) (*order.Order, error)
		expectedStatus  int
	}{
		{
			name: "success",
			id:   orderID.String(),
			getOrderForUser: func(ctx context.Context, id, userID uuid.UUID) (*order.Order, error) {
				return &order.Order{ID: id, UserID: userID, Status: order.StatusPending}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "not_found",
			id:   orderID.String(),
			getOrderForUser: func(ctx context.Context, id, userID uuid.UUID) (*order.Order, error) {
				return nil, order.ErrOrderNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "invalid_id",
			id:             "not-a-uuid",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewOrderHandler(&mockOrderService{getOrderForUserFunc: tt.getOrderForUser})

			req := orderRequestWithID(t, http.MethodGet, "/api/orders/"+tt.id, tt.id, "")
			w := httptest.NewRecorder()

			h.GetOrderByID(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestOrderHandler_UpdateOrderStatus(t *testing.T) {
	orderID := uuid.Must(uuid.FromString("550e8400-e29b-41d4-a716-446655440000"))

	tests := []struct {
		name           string
		body           string
		updateStatus   func(ctx context.Context, id uuid.UUID, newStatus order.Status) error
		expectedStatus int
	}{
		{
			name: "success",
			body: `{"status":"shipped"}`,
			updateStatus: func(ctx context.Context, id uuid.UUID, newStatus order.Status) error {
				assert.Equal(t, order.StatusShipped, newStatus)
				return nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "invalid_transition",
			body: `{"status":"confirmed"}`,
			updateStatus: func(ctx context.Context, id uuid.UUID, newStatus order.Status) error {
				return order.ErrInvalidStatusTransition
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "not_found",
			body: `{"status":"shipped"}`,
			updateStatus: func(ctx context.Context, id uuid.UUID, newStatus order.Status) error {
				return order.ErrOrderNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewOrderHandler(&mockOrderService{updateStatusFunc: tt.updateStatus})

			req := orderRequestWithID(t, http.MethodPatch, "/api/orders/"+orderID.String()+"/status", orderID.String(), tt.body)
			w := httptest.NewRecorder()

			h.UpdateOrderStatus(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
