/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface. The transactions table is append-only: records are written once
 * the ledger has answered and are never updated afterwards.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/transaction-service/internal/domain"
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateTransaction inserts a new transaction record into the database. The
// generated ID and creation timestamp are written back onto the struct.
func (r *PostgresRepository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (amount, card_number, card_holder, expiration, status, bank_code, bank_message, payer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		tx.Amount,
		tx.CardNumber,
		tx.CardHolder,
		tx.Expiration,
		tx.Status,
		tx.BankCode,
		tx.BankMessage,
		tx.PayerID,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// ListTransactions returns all transactions, newest first.
func (r *PostgresRepository) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	query := `
		SELECT id, amount, card_number, card_holder, expiration, status, bank_code, bank_message, payer_id, created_at
		FROM transactions
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(
			&tx.ID,
			&tx.Amount,
			&tx.CardNumber,
			&tx.CardHolder,
			&tx.Expiration,
			&tx.Status,
			&tx.BankCode,
			&tx.BankMessage,
			&tx.PayerID,
			&tx.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

// FindTransactionByID retrieves a single transaction record.
func (r *PostgresRepository) FindTransactionByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	query := `
		SELECT id, amount, card_number, card_holder, expiration, status, bank_code, bank_message, payer_id, created_at
		FROM transactions
		WHERE id = $1`

	var tx domain.Transaction
	err := r.db.QueryRow(ctx, query, id).Scan(
		&tx.ID,
		&tx.Amount,
		&tx.CardNumber,
		&tx.CardHolder,
		&tx.Expiration,
		&tx.Status,
		&tx.BankCode,
		&tx.BankMessage,
		&tx.PayerID,
		&tx.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return &tx, nil
}
