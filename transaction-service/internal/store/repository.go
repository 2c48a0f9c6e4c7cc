/**
 * @description
 * This file defines the `Repository` interface for the transaction-service.
 * It specifies the contract for the transaction log persistence, which
 * decouples the orchestration logic from PostgreSQL and lets tests run
 * against in-memory stubs.
 */

package store

import (
	"context"
	"errors"

	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/transaction-service/internal/domain"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// CreateTransaction persists a new transaction record and fills in its
	// generated ID and creation timestamp.
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)
	FindTransactionByID(ctx context.Context, id int64) (*domain.Transaction, error)
}
