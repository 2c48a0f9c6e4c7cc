/**
 * @description
 * This file contains the HTTP handlers for the ledger-service's API
 * endpoints: the authorization call used by the transaction-service, and the
 * administrative card CRUD. Handlers parse requests, call the application
 * service and write responses; business denials are written as normal 200
 * responses distinguished by the success flag.
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
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/ledger-service/internal/app"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/ledger-service/internal/domain"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/ledger-service/internal/store"
)

// LedgerHandlers holds the application service that handlers will use.
type LedgerHandlers struct {
	service *app.Service
}

// NewLedgerHandlers creates a new instance of LedgerHandlers.
func NewLedgerHandlers(service *app.Service) *LedgerHandlers {
	return &LedgerHandlers{service: service}
}

// AuthorizeHandler handles authorization requests from the transaction-service.
func (h *LedgerHandlers) AuthorizeHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.AuthorizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=authorize outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	result, err := h.service.Authorize(r.Context(), req)
	if err != nil {
		if errors.Is(err, app.ErrInvalidAmount) || errors.Is(err, app.ErrMissingCardNumber) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("level=error component=api endpoint=authorize outcome=failed err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// CreateCardHandler handles administrative card creation.
func (h *LedgerHandlers) CreateCardHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	card, err := h.service.CreateCard(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrCardExists):
			h.writeError(w, http.StatusConflict, "Card already exists")
		case errors.Is(err, app.ErrInvalidAmount), errors.Is(err, app.ErrMissingCardNumber):
			h.writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("level=error component=api endpoint=create_card outcome=failed err=%v", err)
			h.writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, card)
}

// GetCardHandler returns one card by number.
func (h *LedgerHandlers) GetCardHandler(w http.ResponseWriter, r *http.Request) {
	cardNumber := chi.URLParam(r, "cardNumber")

	card, err := h.service.GetCard(r.Context(), cardNumber)
	if err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			h.writeError(w, http.StatusNotFound, "Card not found")
			return
		}
		log.Printf("level=error component=api endpoint=get_card outcome=failed err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, card)
}

// ListCardsHandler returns all cards.
func (h *LedgerHandlers) ListCardsHandler(w http.ResponseWriter, r *http.Request) {
	cards, err := h.service.ListCards(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=list_cards outcome=failed err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if cards == nil {
		cards = []domain.Card{}
	}

	h.writeJSON(w, http.StatusOK, cards)
}

// UpdateCardHandler applies an administrative update to a card.
func (h *LedgerHandlers) UpdateCardHandler(w http.ResponseWriter, r *http.Request) {
	cardNumber := chi.URLParam(r, "cardNumber")

	var req domain.UpdateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	card, err := h.service.UpdateCard(r.Context(), cardNumber, req)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrCardNotFound):
			h.writeError(w, http.StatusNotFound, "Card not found")
		case errors.Is(err, app.ErrInvalidAmount):
			h.writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("level=error component=api endpoint=update_card outcome=failed err=%v", err)
			h.writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, card)
}

// TopUpCardHandler credits a card balance by the amount query parameter.
func (h *LedgerHandlers) TopUpCardHandler(w http.ResponseWriter, r *http.Request) {
	cardNumber := chi.URLParam(r, "cardNumber")

	amount, err := strconv.ParseInt(r.URL.Query().Get("amount"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid amount")
		return
	}

	card, err := h.service.TopUpCard(r.Context(), cardNumber, amount)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrCardNotFound):
			h.writeError(w, http.StatusNotFound, "Card not found")
		case errors.Is(err, app.ErrInvalidAmount):
			h.writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("level=error component=api endpoint=topup_card outcome=failed err=%v", err)
			h.writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, card)
}

// DeleteCardHandler removes a card.
func (h *LedgerHandlers) DeleteCardHandler(w http.ResponseWriter, r *http.Request) {
	cardNumber := chi.URLParam(r, "cardNumber")

	if err := h.service.DeleteCard(r.Context(), cardNumber); err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			h.writeError(w, http.StatusNotFound, "Card not found")
			return
		}
		log.Printf("level=error component=api endpoint=delete_card outcome=failed err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *LedgerHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("level=error component=api msg=\"failed to encode response\" err=%v", err)
	}
}

func (h *LedgerHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
