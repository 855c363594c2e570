package transport

import (
	"net/http"

	"github.com/artmarket/payment-service/internal/auth"
	"github.com/artmarket/payment-service/internal/config"
	"github.com/artmarket/payment-service/internal/handler"
	"github.com/artmarket/payment-service/internal/notification"
	"github.com/artmarket/payment-service/internal/order"
	"github.com/artmarket/payment-service/internal/payment"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRouter(cfg *config.Config, pool *pgxpool.Pool) *chi.Mux {
	orderRepo := order.NewRepository(pool)
	orderSvc := order.NewService(orderRepo)

	notificationRepo := notification.NewRepository(pool)
	notificationSvc := notification.NewService(notificationRepo)

	gateway := payment.NewStripeGateway(cfg.Stripe)
	issuer := payment.NewIssuer(gateway, cfg.Stripe.Timeout)
	reconciler := payment.NewReconciler(gateway, orderRepo, notificationSvc)

	orderHandler := handler.NewOrderHandler(orderSvc)
	paymentHandler := handler.NewPaymentHandler(issuer, reconciler)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)

	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// The webhook authenticates by signature, not by bearer token.
	r.Post("/api/payments/webhook", paymentHandler.Webhook)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Auth.JWTSecret))

		r.Post("/api/payments/create-intent", paymentHandler.CreateIntent)

		r.Post("/api/orders", orderHandler.CreateOrder)
		r.Get("/api/orders", orderHandler.ListOrders)
		r.Get("/api/orders/{id}", orderHandler.GetOrderByID)
		r.Patch("/api/orders/{id}/status", orderHandler.UpdateOrderStatus)

		r.Get("/api/notifications", notificationHandler.ListNotifications)
	})

	return r
}
