/**
 * @description
 * This file sets up the HTTP router for the payment-service using the
 * go-chi/chi router. It defines the API routes, applies middleware for
 * logging, CORS, and authentication, and maps the routes to their
 * corresponding handler functions.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/payment-service/internal/app"
)

// PaymentRoutes creates and returns a new router for the payment service.
func PaymentRoutes(h *PaymentHandlers, tokens *app.MobileTokenService, jwtSecret string) http.Handler {
	r := chi.NewRouter()

	// Setup middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Mobile-Token", "X-Installation-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Payment routes accept either credential.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(tokens, jwtSecret))

		r.Post("/payments", h.SubmitPaymentHandler)
		r.Get("/payments", h.ListPaymentsHandler)
		r.Get("/payments/{id}", h.GetPaymentHandler)
	})

	// Token management requires a full session.
	r.Group(func(r chi.Router) {
		r.Use(SessionAuthMiddleware(jwtSecret))

		r.Post("/mobile-tokens", h.GenerateMobileTokenHandler)
		r.Get("/mobile-tokens", h.ListMobileTokensHandler)
		r.Delete("/mobile-tokens/{id}", h.RevokeMobileTokenHandler)
	})

	return r
}
