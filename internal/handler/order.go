package handler

import (
	"errors"
	"net/http"

	"github.com/artmarket/payment-service/internal/auth"
	"github.com/artmarket/payment-service/internal/order"
	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

type OrderHandler struct {
	svc order.Service
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type createOrderRequest struct {
	Items           []order.OrderItem `json:"items"`
	PaymentIntentID *string           `json:"payment_intent_id,omitempty"`
	ShippingAddress string            `json:"shipping_address"`
}

// CreateOrder handles POST /api/orders. The order starts in pending; the
// webhook reconciler moves it to confirmed or failed.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createOrderRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o := &order.Order{
		UserID:          userID,
		Items:           req.Items,
		PaymentIntentID: req.PaymentIntentID,
		ShippingAddress: req.ShippingAddress,
	}

	created, err := h.svc.CreateOrder(r.Context(), o)
	if err != nil {
		if errors.Is(err, order.ErrEmptyOrder) {
			respondWithError(w, http.StatusBadRequest, "order must contain at least one item")
			return
		}
		log.Error().Err(err).Msg("handler: failed to create order")
		respondWithError(w, http.StatusInternalServerError, "failed to create order")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

// GetOrderByID handles GET /api/orders/{id}.
func (h *OrderHandler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := h.svc.GetOrderForUser(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondWithError(w, http.StatusNotFound, "order not found")
			return
		}
		log.Error().Err(err).Msg("handler: failed to get order by id")
		respondWithError(w, http.StatusInternalServerError, "failed to get order")
		return
	}

	respondWithJSON(w, http.StatusOK, o)
}

// ListOrders handles GET /api/orders.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	orders, err := h.svc.GetOrdersByUserID(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to list orders")
		respondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	respondWithJSON(w, http.StatusOK, orders)
}

type updateStatusRequest struct {
	Status order.Status `json:"status"`
}

// UpdateOrderStatus handles PATCH /api/orders/{id}/status (fulfillment
// transitions only).
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserID(r.Context()); !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req updateStatusRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.UpdateOrderStatus(r.Context(), id, req.Status); err != nil {
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			respondWithError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, order.ErrInvalidStatusTransition):
			respondWithError(w, http.StatusConflict, "invalid status transition")
		default:
			log.Error().Err(err).Msg("handler: failed to update order status")
			respondWithError(w, http.StatusInternalServerError, "failed to update order status")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": req.Status.String()})
}
