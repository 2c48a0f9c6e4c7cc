/**
 * @description
 * This file sets up the HTTP router for the ledger-service. It defines the
 * authorization endpoint and the administrative card endpoints, and applies
 * middleware for logging, panic recovery, timeouts and the internal API key.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// LedgerRoutes creates and returns a new router for the ledger service.
func LedgerRoutes(h *LedgerHandlers, internalAPIKey string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// All ledger operations require the internal API key.
	r.Group(func(r chi.Router) {
		r.Use(InternalAPIKeyMiddleware(internalAPIKey))

		r.Post("/authorize", h.AuthorizeHandler)

		r.Route("/admin/cards", func(r chi.Router) {
			r.Post("/", h.CreateCardHandler)
			r.Get("/", h.ListCardsHandler)
			r.Get("/{cardNumber}", h.GetCardHandler)
			r.Put("/{cardNumber}", h.UpdateCardHandler)
			r.Post("/{cardNumber}/topup", h.TopUpCardHandler)
			r.Delete("/{cardNumber}", h.DeleteCardHandler)
		})
	})

	return r
}
