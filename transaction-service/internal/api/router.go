/**
 * @description
 * This file sets up the HTTP router for the transaction-service. It defines
 * the payment orchestration endpoint and the transaction log endpoints, and
 * applies middleware for logging, panic recovery, timeouts and the internal
 * API key.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// TransactionRoutes creates and returns a new router for the transaction service.
func TransactionRoutes(h *TransactionHandlers, internalAPIKey string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// All orchestration operations require the internal API key.
	r.Group(func(r chi.Router) {
		r.Use(InternalAPIKeyMiddleware(internalAPIKey))

		r.Post("/transactions", h.ProcessPaymentHandler)
		r.Get("/transactions", h.ListTransactionsHandler)
		r.Get("/transactions/{id}", h.GetTransactionHandler)
	})

	return r
}
