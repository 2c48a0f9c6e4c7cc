/**
 * @description
 * This file defines the `Repository` interface for the payment-service. It
 * specifies the contract for payment and mobile token persistence, which
 * decouples the gateway logic from PostgreSQL and lets tests run against
 * in-memory stubs.
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/payment-service/internal/domain"
)

var (
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrPaymentNotPending   = errors.New("payment is not pending")
	ErrMobileTokenNotFound = errors.New("mobile token not found")
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Payment methods
	CreatePayment(ctx context.Context, payment *domain.Payment) error
	// FinalizePaymentStatus moves a payment out of CREATED exactly once.
	// Finalizing a payment that is not in CREATED returns ErrPaymentNotPending.
	FinalizePaymentStatus(ctx context.Context, paymentID int64, status, bankCode, bankMessage string, transactionID *int64) error
	ListPayments(ctx context.Context) ([]domain.Payment, error)
	FindPaymentByID(ctx context.Context, id int64) (*domain.Payment, error)

	// Mobile token methods
	CreateMobileToken(ctx context.Context, token *domain.MobileToken) error
	FindActiveMobileTokenByHash(ctx context.Context, tokenHash string) (*domain.MobileToken, error)
	BindMobileTokenInstallation(ctx context.Context, tokenID int64, installationID string) error
	TouchMobileTokenLastUsed(ctx context.Context, tokenID int64, usedAt time.Time) error
	RevokeMobileToken(ctx context.Context, tokenID, userID int64) error
	ListMobileTokensByUser(ctx context.Context, userID int64) ([]domain.MobileToken, error)
}
