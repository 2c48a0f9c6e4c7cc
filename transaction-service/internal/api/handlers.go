/**
 * @description
 * This file contains the HTTP handlers for the transaction-service's API
 * endpoints. Handlers parse incoming requests, call the orchestration service
 * and write responses. A ledger denial is a normal 200 response carrying the
 * verdict; only a missing verdict (ledger unreachable) maps to 502.
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
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/transaction-service/internal/app"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/transaction-service/internal/domain"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/transaction-service/internal/store"
)

// TransactionHandlers holds the application service that handlers will use.
type TransactionHandlers struct {
	service *app.Service
}

// NewTransactionHandlers creates a new instance of TransactionHandlers.
func NewTransactionHandlers(service *app.Service) *TransactionHandlers {
	return &TransactionHandlers{service: service}
}

// ProcessPaymentHandler handles one payment orchestration request.
func (h *TransactionHandlers) ProcessPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	response, err := h.service.Process(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidAmount), errors.Is(err, app.ErrMissingCardNumber):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrLedgerUnavailable):
			log.Printf("level=error component=api endpoint=process_payment outcome=no_verdict err=%v", err)
			h.writeError(w, http.StatusBadGateway, "Authorization service unavailable")
		default:
			log.Printf("level=error component=api endpoint=process_payment outcome=failed err=%v", err)
			h.writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, response)
}

// ListTransactionsHandler returns the full transaction log.
func (h *TransactionHandlers) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.service.ListTransactions(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=list_transactions outcome=failed err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if transactions == nil {
		transactions = []domain.Transaction{}
	}

	h.writeJSON(w, http.StatusOK, transactions)
}

// GetTransactionHandler returns one transaction record by ID.
func (h *TransactionHandlers) GetTransactionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid transaction ID")
		return
	}

	tx, err := h.service.GetTransaction(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrTransactionNotFound) {
			h.writeError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		log.Printf("level=error component=api endpoint=get_transaction outcome=failed err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, tx)
}

func (h *TransactionHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("level=error component=api msg=\"failed to encode response\" err=%v", err)
	}
}

func (h *TransactionHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
