/**
 * @description
 * This file defines the `Repository` interface for the ledger-service. It
 * specifies the contract for all card and authorization persistence, which
 * decouples the authorization logic from PostgreSQL and lets tests run
 * against in-memory stubs.
 */

package store

import (
	"context"
	"errors"

	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/ledger-service/internal/domain"
)

var (
	ErrCardNotFound          = errors.New("card not found")
	ErrCardExists            = errors.New("card already exists")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrAuthorizationNotFound = errors.New("authorization not found")
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Card administration
	CreateCard(ctx context.Context, card *domain.Card) error
	FindCardByNumber(ctx context.Context, cardNumber string) (*domain.Card, error)
	ListCards(ctx context.Context) ([]domain.Card, error)
	UpdateCard(ctx context.Context, cardNumber string, update domain.UpdateCardRequest) (*domain.Card, error)
	TopUpCard(ctx context.Context, cardNumber string, amount int64) (*domain.Card, error)
	DeleteCard(ctx context.Context, cardNumber string) error

	// Authorization
	//
	// DebitCardForAuthorization performs the atomic check-then-decrement for
	// one authorization. The card row is locked for the duration of the
	// transaction so that two concurrent authorizations against the same card
	// can never both pass the sufficiency check against a stale balance.
	// When idempotencyKey is non-empty and an authorization with that key was
	// already recorded, no debit happens and replayed is true.
	DebitCardForAuthorization(ctx context.Context, cardNumber string, amount int64, idempotencyKey string) (replayed bool, err error)
	FindAuthorizationByKey(ctx context.Context, idempotencyKey string) (*domain.Authorization, error)
	RecordAuthorizationOutcome(ctx context.Context, idempotencyKey, cardNumber string, amount int64, success bool, code string) error
}
