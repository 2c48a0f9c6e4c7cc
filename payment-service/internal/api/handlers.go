/**
 * @description
 * This file contains the HTTP handlers for the payment-service's API
 * endpoints: payment submission and history, and mobile token management.
 * Handlers parse requests, call the application services and write responses.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/payment-service/internal/app"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/payment-service/internal/domain"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/payment-service/internal/store"
)

// PaymentHandlers holds the application services that handlers will use.
type PaymentHandlers struct {
	payments *app.PaymentService
	tokens   *app.MobileTokenService
}

// NewPaymentHandlers creates a new instance of PaymentHandlers.
func NewPaymentHandlers(payments *app.PaymentService, tokens *app.MobileTokenService) *PaymentHandlers {
	return &PaymentHandlers{payments: payments, tokens: tokens}
}

// SubmitPaymentHandler handles one payment submission from an authenticated caller.
func (h *PaymentHandlers) SubmitPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	var payerID *int64
	if id, ok := GetUserID(r.Context()); ok {
		payerID = &id
	}

	response, err := h.payments.SubmitPayment(r.Context(), req, payerID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidAmount), errors.Is(err, app.ErrMissingCardNumber):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrOrchestratorUnavailable):
			log.Printf("level=error component=api endpoint=submit_payment outcome=pending err=%v", err)
			h.writeError(w, http.StatusBadGateway, "Payment accepted but not yet processed")
		default:
			log.Printf("level=error component=api endpoint=submit_payment outcome=failed err=%v", err)
			h.writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, response)
}

// ListPaymentsHandler returns the payment history.
func (h *PaymentHandlers) ListPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	payments, err := h.payments.ListPayments(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=list_payments outcome=failed err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if payments == nil {
		payments = []domain.Payment{}
	}

	h.writeJSON(w, http.StatusOK, payments)
}

// GetPaymentHandler returns one payment by ID.
func (h *PaymentHandlers) GetPaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid payment ID")
		return
	}

	payment, err := h.payments.GetPayment(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrPaymentNotFound) {
			h.writeError(w, http.StatusNotFound, "Payment not found")
			return
		}
		log.Printf("level=error component=api endpoint=get_payment outcome=failed err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, payment)
}

// GenerateMobileTokenHandler issues a new mobile token for the session user.
// Only a session JWT may mint tokens; a mobile token cannot mint another.
func (h *PaymentHandlers) GenerateMobileTokenHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	ttlDays := 0
	if raw := r.URL.Query().Get("ttlDays"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "Invalid ttlDays")
			return
		}
		ttlDays = parsed
	}

	token, err := h.tokens.Generate(r.Context(), userID, ttlDays)
	if err != nil {
		log.Printf("level=error component=api endpoint=generate_mobile_token outcome=failed err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.writeJSON(w, http.StatusCreated, token)
}

// ListMobileTokensHandler returns the session user's tokens.
func (h *PaymentHandlers) ListMobileTokensHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	tokens, err := h.tokens.ListForUser(r.Context(), userID)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_mobile_tokens outcome=failed err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if tokens == nil {
		tokens = []domain.MobileToken{}
	}

	h.writeJSON(w, http.StatusOK, tokens)
}

// RevokeMobileTokenHandler revokes one of the session user's tokens.
func (h *PaymentHandlers) RevokeMobileTokenHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	tokenID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid token ID")
		return
	}

	if err := h.tokens.Revoke(r.Context(), tokenID, userID); err != nil {
		if errors.Is(err, store.ErrMobileTokenNotFound) {
			h.writeError(w, http.StatusNotFound, "Token not found")
			return
		}
		log.Printf("level=error component=api endpoint=revoke_mobile_token outcome=failed err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PaymentHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("level=error component=api msg=\"failed to encode response\" err=%v", err)
	}
}

func (h *PaymentHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
