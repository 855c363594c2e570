package handler

import (
	"net/http"

	"github.com/artmarket/payment-service/internal/auth"
	"github.com/artmarket/payment-service/internal/notification"
	"github.com/rs/zerolog/log"
)

type NotificationHandler struct {
	svc notification.Service
}

func NewNotificationHandler(svc notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// ListNotifications handles GET /api/notifications.
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	notifications, err := h.svc.GetByUserID(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to list notifications")
		respondWithError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}

	respondWithJSON(w, http.StatusOK, notifications)
}
