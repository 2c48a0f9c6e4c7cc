/**
 * @description
 * This file contains the core authorization logic for the ledger-service.
 * The `Service` struct enforces the business invariant of the whole platform:
 * a card balance is only decremented by an approved authorization, exactly
 * once per logical request, and never below zero.
 *
 * Key features:
 * - Fixed resolution order: not found, blocked, expiration, CVV, balance.
 * - Blank expiration/CVV skip their checks (reduced-friction flow).
 * - Denials are outcomes, not errors: they carry a stable code and message
 *   and are always returned as a normal result.
 * - Optional idempotency key: a retried request with the same key is answered
 *   with the recorded outcome instead of being re-executed.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/ledger-service/internal/domain"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/ledger-service/internal/store"
)

var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrMissingCardNumber = errors.New("card number is required")
)

// Service provides the authorization and card administration logic.
type Service struct {
	repo store.Repository
}

// NewService creates a new ledger service instance.
func NewService(repo store.Repository) *Service {
	return &Service{repo: repo}
}

// Authorize runs one authorization attempt against the card it names.
// Validation failures return an error before anything is read or written;
// every other path returns a result with a code, and only the approved path
// mutates the balance.
func (s *Service) Authorize(ctx context.Context, req domain.AuthorizationRequest) (*domain.AuthorizationResult, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	cardNumber := strings.TrimSpace(req.CardNumber)
	if cardNumber == "" {
		return nil, ErrMissingCardNumber
	}

	key := strings.TrimSpace(req.IdempotencyKey)
	if key != "" {
		prior, err := s.repo.FindAuthorizationByKey(ctx, key)
		if err == nil {
			log.Printf("level=info component=ledger msg=\"authorization replayed\" idempotency_key=%s code=%s", key, prior.Code)
			return resultForAuthorization(prior), nil
		}
		if !errors.Is(err, store.ErrAuthorizationNotFound) {
			return nil, fmt.Errorf("failed to look up authorization by idempotency key: %w", err)
		}
	}

	card, err := s.repo.FindCardByNumber(ctx, cardNumber)
	if errors.Is(err, store.ErrCardNotFound) {
		return s.deny(ctx, key, cardNumber, req.Amount, domain.CodeCardNotFound, "Carte non trouvée"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load card: %w", err)
	}

	if !card.Active {
		return s.deny(ctx, key, cardNumber, req.Amount, domain.CodeCardBlocked, "Carte bloquée"), nil
	}
	if exp := strings.TrimSpace(req.Expiration); exp != "" && exp != card.Expiration {
		return s.deny(ctx, key, cardNumber, req.Amount, domain.CodeCardExpired, "Date d'expiration non concordante"), nil
	}
	if cvv := strings.TrimSpace(req.CVV); cvv != "" && cvv != card.CVV {
		return s.deny(ctx, key, cardNumber, req.Amount, domain.CodeInvalidCVV, "CVV invalide"), nil
	}

	replayed, err := s.repo.DebitCardForAuthorization(ctx, cardNumber, req.Amount, key)
	if errors.Is(err, store.ErrInsufficientFunds) {
		return s.deny(ctx, key, cardNumber, req.Amount, domain.CodeInsufficientFunds, "Solde insuffisant"), nil
	}
	if errors.Is(err, store.ErrCardNotFound) {
		// Card was deleted between the read and the debit.
		return s.deny(ctx, key, cardNumber, req.Amount, domain.CodeCardNotFound, "Carte non trouvée"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to debit card: %w", err)
	}
	if replayed {
		prior, err := s.repo.FindAuthorizationByKey(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to load replayed authorization: %w", err)
		}
		log.Printf("level=info component=ledger msg=\"authorization replayed under lock\" idempotency_key=%s code=%s", key, prior.Code)
		return resultForAuthorization(prior), nil
	}

	log.Printf("level=info component=ledger msg=\"authorization approved\" amount=%d", req.Amount)
	return &domain.AuthorizationResult{Success: true, Code: domain.CodeApproved, Message: "Paiement autorisé"}, nil
}

// deny records the outcome for idempotent replay (best-effort) and returns it.
func (s *Service) deny(ctx context.Context, key, cardNumber string, amount int64, code, message string) *domain.AuthorizationResult {
	if key != "" {
		if err := s.repo.RecordAuthorizationOutcome(ctx, key, cardNumber, amount, false, code); err != nil {
			log.Printf("level=warn component=ledger msg=\"failed to record denial outcome\" idempotency_key=%s code=%s err=%v", key, code, err)
		}
	}
	log.Printf("level=info component=ledger msg=\"authorization denied\" code=%s amount=%d", code, amount)
	return &domain.AuthorizationResult{Success: false, Code: code, Message: message}
}

func resultForAuthorization(auth *domain.Authorization) *domain.AuthorizationResult {
	return &domain.AuthorizationResult{
		Success: auth.Success,
		Code:    auth.Code,
		Message: messageForCode(auth.Code),
	}
}

func messageForCode(code string) string {
	switch code {
	case domain.CodeApproved:
		return "Paiement autorisé"
	case domain.CodeCardNotFound:
		return "Carte non trouvée"
	case domain.CodeCardBlocked:
		return "Carte bloquée"
	case domain.CodeCardExpired:
		return "Date d'expiration non concordante"
	case domain.CodeInvalidCVV:
		return "CVV invalide"
	case domain.CodeInsufficientFunds:
		return "Solde insuffisant"
	}
	return code
}

// CreateCard registers a new card with an opening balance.
func (s *Service) CreateCard(ctx context.Context, req domain.CreateCardRequest) (*domain.Card, error) {
	if strings.TrimSpace(req.CardNumber) == "" {
		return nil, ErrMissingCardNumber
	}
	if req.Balance < 0 {
		return nil, ErrInvalidAmount
	}
	card := &domain.Card{
		CardNumber: strings.TrimSpace(req.CardNumber),
		Expiration: strings.TrimSpace(req.Expiration),
		CVV:        strings.TrimSpace(req.CVV),
		Balance:    req.Balance,
		Active:     req.Active,
	}
	if err := s.repo.CreateCard(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// GetCard returns a single card by number.
func (s *Service) GetCard(ctx context.Context, cardNumber string) (*domain.Card, error) {
	return s.repo.FindCardByNumber(ctx, cardNumber)
}

// ListCards returns all cards.
func (s *Service) ListCards(ctx context.Context) ([]domain.Card, error) {
	return s.repo.ListCards(ctx)
}

// UpdateCard applies an administrative update to a card.
func (s *Service) UpdateCard(ctx context.Context, cardNumber string, update domain.UpdateCardRequest) (*domain.Card, error) {
	if update.Balance != nil && *update.Balance < 0 {
		return nil, ErrInvalidAmount
	}
	return s.repo.UpdateCard(ctx, cardNumber, update)
}

// TopUpCard credits a card balance. This and the authorization debit are the
// only two balance mutations in the system.
func (s *Service) TopUpCard(ctx context.Context, cardNumber string, amount int64) (*domain.Card, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.repo.TopUpCard(ctx, cardNumber, amount)
}

// DeleteCard removes a card. Deletion is an administrative act independent of
// the payment flow.
func (s *Service) DeleteCard(ctx context.Context, cardNumber string) error {
	return s.repo.DeleteCard(ctx, cardNumber)
}
