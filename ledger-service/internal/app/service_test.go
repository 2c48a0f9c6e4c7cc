package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/ledger-service/internal/domain"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/ledger-service/internal/store"
)

// stubRepository is an in-memory implementation of store.Repository used to
// exercise the authorization logic without a database.
type stubRepository struct {
	cards          map[string]*domain.Card
	authorizations map[string]*domain.Authorization
	debitCalls     int
	nextID         int64
}

func newStubRepository() *stubRepository {
	return &stubRepository{
		cards:          make(map[string]*domain.Card),
		authorizations: make(map[string]*domain.Authorization),
	}
}

func (r *stubRepository) CreateCard(ctx context.Context, card *domain.Card) error {
	if _, ok := r.cards[card.CardNumber]; ok {
		return store.ErrCardExists
	}
	card.CreatedAt = time.Now()
	card.UpdatedAt = card.CreatedAt
	r.cards[card.CardNumber] = card
	return nil
}

func (r *stubRepository) FindCardByNumber(ctx context.Context, cardNumber string) (*domain.Card, error) {
	card, ok := r.cards[cardNumber]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	copied := *card
	return &copied, nil
}

func (r *stubRepository) ListCards(ctx context.Context) ([]domain.Card, error) {
	out := make([]domain.Card, 0, len(r.cards))
	for _, card := range r.cards {
		out = append(out, *card)
	}
	return out, nil
}

func (r *stubRepository) UpdateCard(ctx context.Context, cardNumber string, update domain.UpdateCardRequest) (*domain.Card, error) {
	card, ok := r.cards[cardNumber]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	if update.Expiration != nil {
		card.Expiration = *update.Expiration
	}
	if update.CVV != nil {
		card.CVV = *update.CVV
	}
	if update.Balance != nil {
		card.Balance = *update.Balance
	}
	if update.Active != nil {
		card.Active = *update.Active
	}
	card.UpdatedAt = time.Now()
	copied := *card
	return &copied, nil
}

func (r *stubRepository) TopUpCard(ctx context.Context, cardNumber string, amount int64) (*domain.Card, error) {
	card, ok := r.cards[cardNumber]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	card.Balance += amount
	copied := *card
	return &copied, nil
}

func (r *stubRepository) DeleteCard(ctx context.Context, cardNumber string) error {
	if _, ok := r.cards[cardNumber]; !ok {
		return store.ErrCardNotFound
	}
	delete(r.cards, cardNumber)
	return nil
}

func (r *stubRepository) DebitCardForAuthorization(ctx context.Context, cardNumber string, amount int64, idempotencyKey string) (bool, error) {
	r.debitCalls++
	card, ok := r.cards[cardNumber]
	if !ok {
		return false, store.ErrCardNotFound
	}
	if idempotencyKey != "" {
		if _, exists := r.authorizations[idempotencyKey]; exists {
			return true, nil
		}
	}
	if card.Balance < amount {
		return false, store.ErrInsufficientFunds
	}
	card.Balance -= amount
	if idempotencyKey != "" {
		r.recordAuthorization(idempotencyKey, cardNumber, amount, true, domain.CodeApproved)
	}
	return false, nil
}

func (r *stubRepository) FindAuthorizationByKey(ctx context.Context, idempotencyKey string) (*domain.Authorization, error) {
	auth, ok := r.authorizations[idempotencyKey]
	if !ok {
		return nil, store.ErrAuthorizationNotFound
	}
	copied := *auth
	return &copied, nil
}

func (r *stubRepository) RecordAuthorizationOutcome(ctx context.Context, idempotencyKey, cardNumber string, amount int64, success bool, code string) error {
	r.recordAuthorization(idempotencyKey, cardNumber, amount, success, code)
	return nil
}

func (r *stubRepository) recordAuthorization(key, cardNumber string, amount int64, success bool, code string) {
	r.nextID++
	r.authorizations[key] = &domain.Authorization{
		ID:             r.nextID,
		IdempotencyKey: &key,
		CardNumber:     cardNumber,
		Amount:         amount,
		Success:        success,
		Code:           code,
		CreatedAt:      time.Now(),
	}
}

func seedCard(repo *stubRepository, balance int64) *domain.Card {
	card := &domain.Card{
		CardNumber: "4123456789012345",
		Expiration: "2027-09",
		CVV:        "123",
		Balance:    balance,
		Active:     true,
	}
	repo.cards[card.CardNumber] = card
	return card
}

func TestAuthorize_ApprovedDebitsBalance(t *testing.T) {
	repo := newStubRepository()
	seedCard(repo, 5000)
	service := NewService(repo)

	result, err := service.Authorize(context.Background(), domain.AuthorizationRequest{
		CardNumber: "4123456789012345",
		Expiration: "2027-09",
		CVV:        "123",
		Amount:     100,
	})
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if !result.Success || result.Code != domain.CodeApproved {
		t.Fatalf("expected approval, got success=%v code=%s", result.Success, result.Code)
	}
	if result.Message != "Paiement autorisé" {
		t.Errorf("unexpected approval message: %q", result.Message)
	}
	if got := repo.cards["4123456789012345"].Balance; got != 4900 {
		t.Errorf("expected balance 4900 after debit, got %d", got)
	}
}

func TestAuthorize_UnknownCard(t *testing.T) {
	repo := newStubRepository()
	service := NewService(repo)

	result, err := service.Authorize(context.Background(), domain.AuthorizationRequest{
		CardNumber: "0000111122223333",
		Amount:     100,
	})
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if result.Success || result.Code != domain.CodeCardNotFound {
		t.Fatalf("expected CARTE_INEXISTANTE, got success=%v code=%s", result.Success, result.Code)
	}
	if result.Message != "Carte non trouvée" {
		t.Errorf("unexpected message: %q", result.Message)
	}
}

func TestAuthorize_BlockedCard(t *testing.T) {
	repo := newStubRepository()
	card := seedCard(repo, 5000)
	card.Active = false
	service := NewService(repo)

	result, err := service.Authorize(context.Background(), domain.AuthorizationRequest{
		CardNumber: card.CardNumber,
		Amount:     100,
	})
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if result.Code != domain.CodeCardBlocked {
		t.Fatalf("expected CARTE_BLOQUEE, got %s", result.Code)
	}
	if card.Balance != 5000 {
		t.Errorf("denial must not change balance, got %d", card.Balance)
	}
}

func TestAuthorize_ExpirationMismatch(t *testing.T) {
	repo := newStubRepository()
	card := seedCard(repo, 5000)
	service := NewService(repo)

	result, err := service.Authorize(context.Background(), domain.AuthorizationRequest{
		CardNumber: card.CardNumber,
		Expiration: "2024-01",
		CVV:        "123",
		Amount:     100,
	})
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if result.Code != domain.CodeCardExpired {
		t.Fatalf("expected CARTE_EXPIREE, got %s", result.Code)
	}
	if result.Message != "Date d'expiration non concordante" {
		t.Errorf("unexpected message: %q", result.Message)
	}
	if card.Balance != 5000 {
		t.Errorf("denial must not change balance, got %d", card.Balance)
	}
}

func TestAuthorize_CVVMismatch(t *testing.T) {
	repo := newStubRepository()
	card := seedCard(repo, 5000)
	service := NewService(repo)

	result, err := service.Authorize(context.Background(), domain.AuthorizationRequest{
		CardNumber: card.CardNumber,
		Expiration: "2027-09",
		CVV:        "999",
		Amount:     100,
	})
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if result.Code != domain.CodeInvalidCVV {
		t.Fatalf("expected CVV_INVALIDE, got %s", result.Code)
	}
	if card.Balance != 5000 {
		t.Errorf("denial must not change balance, got %d", card.Balance)
	}
}

func TestAuthorize_BlankCredentialsSkipChecks(t *testing.T) {
	repo := newStubRepository()
	card := seedCard(repo, 5000)
	service := NewService(repo)

	result, err := service.Authorize(context.Background(), domain.AuthorizationRequest{
		CardNumber: card.CardNumber,
		Amount:     100,
	})
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if !result.Success {
		t.Fatalf("blank expiration and CVV must skip those checks, got code %s", result.Code)
	}
	if card.Balance != 4900 {
		t.Errorf("expected balance 4900, got %d", card.Balance)
	}
}

func TestAuthorize_InsufficientFunds(t *testing.T) {
	repo := newStubRepository()
	card := seedCard(repo, 50)
	service := NewService(repo)

	result, err := service.Authorize(context.Background(), domain.AuthorizationRequest{
		CardNumber: card.CardNumber,
		Expiration: "2027-09",
		CVV:        "123",
		Amount:     100,
	})
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if result.Code != domain.CodeInsufficientFunds {
		t.Fatalf("expected SOLDE_INSUFFISANT, got %s", result.Code)
	}
	if result.Message != "Solde insuffisant" {
		t.Errorf("unexpected message: %q", result.Message)
	}
	if card.Balance != 50 {
		t.Errorf("denial must not change balance, got %d", card.Balance)
	}
}

// The expiration check outranks the CVV check, which outranks the balance
// check: a request failing several checks reports the first failure.
func TestAuthorize_ResolutionOrder(t *testing.T) {
	repo := newStubRepository()
	card := seedCard(repo, 50)
	service := NewService(repo)

	result, err := service.Authorize(context.Background(), domain.AuthorizationRequest{
		CardNumber: card.CardNumber,
		Expiration: "2020-01",
		CVV:        "999",
		Amount:     100,
	})
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if result.Code != domain.CodeCardExpired {
		t.Fatalf("expected expiration mismatch to be reported first, got %s", result.Code)
	}

	// Blocked outranks everything but existence.
	card.Active = false
	result, err = service.Authorize(context.Background(), domain.AuthorizationRequest{
		CardNumber: card.CardNumber,
		Expiration: "2020-01",
		CVV:        "999",
		Amount:     100,
	})
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if result.Code != domain.CodeCardBlocked {
		t.Fatalf("expected blocked to outrank expiration, got %s", result.Code)
	}
}

func TestAuthorize_RejectsInvalidRequests(t *testing.T) {
	repo := newStubRepository()
	seedCard(repo, 5000)
	service := NewService(repo)

	_, err := service.Authorize(context.Background(), domain.AuthorizationRequest{
		CardNumber: "4123456789012345",
		Amount:     0,
	})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for zero amount, got %v", err)
	}

	_, err = service.Authorize(context.Background(), domain.AuthorizationRequest{
		CardNumber: "4123456789012345",
		Amount:     -5,
	})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for negative amount, got %v", err)
	}

	_, err = service.Authorize(context.Background(), domain.AuthorizationRequest{
		CardNumber: "   ",
		Amount:     100,
	})
	if !errors.Is(err, ErrMissingCardNumber) {
		t.Errorf("expected ErrMissingCardNumber, got %v", err)
	}

	if repo.debitCalls != 0 {
		t.Errorf("validation failures must never reach the repository, got %d debit calls", repo.debitCalls)
	}
}

func TestAuthorize_IdempotentReplayDebitsOnce(t *testing.T) {
	repo := newStubRepository()
	card := seedCard(repo, 5000)
	service := NewService(repo)

	req := domain.AuthorizationRequest{
		CardNumber:     card.CardNumber,
		Expiration:     "2027-09",
		CVV:            "123",
		Amount:         100,
		IdempotencyKey: "key-1",
	}

	first, err := service.Authorize(context.Background(), req)
	if err != nil {
		t.Fatalf("first Authorize returned error: %v", err)
	}
	second, err := service.Authorize(context.Background(), req)
	if err != nil {
		t.Fatalf("replayed Authorize returned error: %v", err)
	}

	if !first.Success || !second.Success {
		t.Fatalf("both calls must report approval, got %v / %v", first.Success, second.Success)
	}
	if first.Code != second.Code || first.Message != second.Message {
		t.Errorf("replay must return the recorded outcome, got %+v vs %+v", first, second)
	}
	if card.Balance != 4900 {
		t.Errorf("same key must debit exactly once, balance=%d", card.Balance)
	}
}

func TestAuthorize_IdempotentReplayOfDenial(t *testing.T) {
	repo := newStubRepository()
	card := seedCard(repo, 50)
	service := NewService(repo)

	req := domain.AuthorizationRequest{
		CardNumber:     card.CardNumber,
		Amount:         100,
		IdempotencyKey: "key-denied",
	}

	first, err := service.Authorize(context.Background(), req)
	if err != nil {
		t.Fatalf("first Authorize returned error: %v", err)
	}
	if first.Code != domain.CodeInsufficientFunds {
		t.Fatalf("expected denial, got %s", first.Code)
	}

	// Top the card up; the replay must still answer with the recorded denial.
	card.Balance = 10000
	second, err := service.Authorize(context.Background(), req)
	if err != nil {
		t.Fatalf("replayed Authorize returned error: %v", err)
	}
	if second.Success || second.Code != domain.CodeInsufficientFunds {
		t.Fatalf("replay must return the recorded denial, got success=%v code=%s", second.Success, second.Code)
	}
	if card.Balance != 10000 {
		t.Errorf("replay must not debit, balance=%d", card.Balance)
	}
}

func TestCreateCard_Validation(t *testing.T) {
	repo := newStubRepository()
	service := NewService(repo)

	_, err := service.CreateCard(context.Background(), domain.CreateCardRequest{CardNumber: " "})
	if !errors.Is(err, ErrMissingCardNumber) {
		t.Errorf("expected ErrMissingCardNumber, got %v", err)
	}

	_, err = service.CreateCard(context.Background(), domain.CreateCardRequest{CardNumber: "41111", Balance: -1})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for negative opening balance, got %v", err)
	}

	card, err := service.CreateCard(context.Background(), domain.CreateCardRequest{
		CardNumber: "4123456789012345",
		Expiration: "2027-09",
		CVV:        "123",
		Balance:    5000,
		Active:     true,
	})
	if err != nil {
		t.Fatalf("CreateCard returned error: %v", err)
	}
	if card.Balance != 5000 || !card.Active {
		t.Errorf("unexpected card state: %+v", card)
	}

	_, err = service.CreateCard(context.Background(), domain.CreateCardRequest{CardNumber: "4123456789012345"})
	if !errors.Is(err, store.ErrCardExists) {
		t.Errorf("expected ErrCardExists on duplicate, got %v", err)
	}
}

func TestTopUpCard_RejectsNonPositiveAmounts(t *testing.T) {
	repo := newStubRepository()
	seedCard(repo, 100)
	service := NewService(repo)

	_, err := service.TopUpCard(context.Background(), "4123456789012345", 0)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}

	card, err := service.TopUpCard(context.Background(), "4123456789012345", 400)
	if err != nil {
		t.Fatalf("TopUpCard returned error: %v", err)
	}
	if card.Balance != 500 {
		t.Errorf("expected balance 500, got %d", card.Balance)
	}
}

func TestUpdateCard_RejectsNegativeBalance(t *testing.T) {
	repo := newStubRepository()
	seedCard(repo, 100)
	service := NewService(repo)

	bad := int64(-1)
	_, err := service.UpdateCard(context.Background(), "4123456789012345", domain.UpdateCardRequest{Balance: &bad})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}

	active := false
	card, err := service.UpdateCard(context.Background(), "4123456789012345", domain.UpdateCardRequest{Active: &active})
	if err != nil {
		t.Fatalf("UpdateCard returned error: %v", err)
	}
	if card.Active {
		t.Error("expected card to be blocked after update")
	}
}
