/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface for the payment-service. Payments move through a guarded status
 * transition (CREATED to SUCCESS or FAILED, at most once); mobile tokens are
 * looked up by hash and only ever written through the narrow operations the
 * interface exposes.
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
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/payment-service/internal/domain"
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreatePayment inserts a new payment in the CREATED state and writes back
// the generated ID and timestamps.
func (r *PostgresRepository) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (amount, card_last4, card_holder, payer_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		payment.Amount,
		payment.CardLast4,
		payment.CardHolder,
		payment.PayerID,
		payment.Status,
	).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// FinalizePaymentStatus moves a payment out of CREATED. The WHERE guard makes
// the transition happen at most once even under concurrent retries.
func (r *PostgresRepository) FinalizePaymentStatus(ctx context.Context, paymentID int64, status, bankCode, bankMessage string, transactionID *int64) error {
	query := `
		UPDATE payments
		SET status = $1, bank_code = $2, bank_message = $3, transaction_id = $4, updated_at = NOW()
		WHERE id = $5 AND status = 'CREATED'`

	tag, err := r.db.Exec(ctx, query, status, bankCode, bankMessage, transactionID, paymentID)
	if err != nil {
		return fmt.Errorf("failed to finalize payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the payment does not exist or it was already finalized.
		var exists bool
		if err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM payments WHERE id = $1)", paymentID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check payment existence: %w", err)
		}
		if !exists {
			return ErrPaymentNotFound
		}
		return ErrPaymentNotPending
	}
	return nil
}

// ListPayments returns all payments, newest first.
func (r *PostgresRepository) ListPayments(ctx context.Context) ([]domain.Payment, error) {
	query := `
		SELECT id, amount, card_last4, card_holder, payer_id, status, bank_code, bank_message, transaction_id, created_at, updated_at
		FROM payments
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := scanPayment(rows, &p); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// FindPaymentByID retrieves a single payment record.
func (r *PostgresRepository) FindPaymentByID(ctx context.Context, id int64) (*domain.Payment, error) {
	query := `
		SELECT id, amount, card_last4, card_holder, payer_id, status, bank_code, bank_message, transaction_id, created_at, updated_at
		FROM payments
		WHERE id = $1`

	var p domain.Payment
	row := r.db.QueryRow(ctx, query, id)
	if err := scanPayment(row, &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner, p *domain.Payment) error {
	var bankCode, bankMessage *string
	err := row.Scan(
		&p.ID,
		&p.Amount,
		&p.CardLast4,
		&p.CardHolder,
		&p.PayerID,
		&p.Status,
		&bankCode,
		&bankMessage,
		&p.TransactionID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		return fmt.Errorf("failed to scan payment: %w", err)
	}
	if bankCode != nil {
		p.BankCode = *bankCode
	}
	if bankMessage != nil {
		p.BankMessage = *bankMessage
	}
	return nil
}

// CreateMobileToken inserts a new mobile token record and writes back the
// generated ID and creation timestamp.
func (r *PostgresRepository) CreateMobileToken(ctx context.Context, token *domain.MobileToken) error {
	query := `
		INSERT INTO mobile_tokens (token_hash, user_id, installation_id, status, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		token.TokenHash,
		token.UserID,
		token.InstallationID,
		token.Status,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create mobile token: %w", err)
	}
	return nil
}

// FindActiveMobileTokenByHash looks up a non-revoked, non-expired token by
// its hash. Expiry is checked in SQL so clock handling stays in one place.
func (r *PostgresRepository) FindActiveMobileTokenByHash(ctx context.Context, tokenHash string) (*domain.MobileToken, error) {
	query := `
		SELECT id, token_hash, user_id, installation_id, status, created_at, expires_at, last_used_at, revoked_at
		FROM mobile_tokens
		WHERE token_hash = $1 AND status = 'ACTIVE' AND expires_at > NOW()`

	var t domain.MobileToken
	err := r.db.QueryRow(ctx, query, tokenHash).Scan(
		&t.ID,
		&t.TokenHash,
		&t.UserID,
		&t.InstallationID,
		&t.Status,
		&t.CreatedAt,
		&t.ExpiresAt,
		&t.LastUsedAt,
		&t.RevokedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMobileTokenNotFound
		}
		return nil, fmt.Errorf("failed to find mobile token: %w", err)
	}
	return &t, nil
}

// BindMobileTokenInstallation binds a token to its first presenting device.
// The WHERE guard keeps the binding first-write-wins under concurrency.
func (r *PostgresRepository) BindMobileTokenInstallation(ctx context.Context, tokenID int64, installationID string) error {
	query := `
		UPDATE mobile_tokens
		SET installation_id = $1
		WHERE id = $2 AND installation_id IS NULL`

	tag, err := r.db.Exec(ctx, query, installationID, tokenID)
	if err != nil {
		return fmt.Errorf("failed to bind mobile token installation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMobileTokenNotFound
	}
	return nil
}

// TouchMobileTokenLastUsed records when the token last authenticated a call.
func (r *PostgresRepository) TouchMobileTokenLastUsed(ctx context.Context, tokenID int64, usedAt time.Time) error {
	_, err := r.db.Exec(ctx, "UPDATE mobile_tokens SET last_used_at = $1 WHERE id = $2", usedAt, tokenID)
	if err != nil {
		return fmt.Errorf("failed to touch mobile token: %w", err)
	}
	return nil
}

// RevokeMobileToken marks a token revoked. Revocation is scoped to the owner.
func (r *PostgresRepository) RevokeMobileToken(ctx context.Context, tokenID, userID int64) error {
	query := `
		UPDATE mobile_tokens
		SET status = 'REVOKED', revoked_at = NOW()
		WHERE id = $1 AND user_id = $2 AND status = 'ACTIVE'`

	tag, err := r.db.Exec(ctx, query, tokenID, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke mobile token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMobileTokenNotFound
	}
	return nil
}

// ListMobileTokensByUser returns all tokens owned by a user, newest first.
func (r *PostgresRepository) ListMobileTokensByUser(ctx context.Context, userID int64) ([]domain.MobileToken, error) {
	query := `
		SELECT id, token_hash, user_id, installation_id, status, created_at, expires_at, last_used_at, revoked_at
		FROM mobile_tokens
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mobile tokens: %w", err)
	}
	defer rows.Close()

	var tokens []domain.MobileToken
	for rows.Next() {
		var t domain.MobileToken
		if err := rows.Scan(
			&t.ID,
			&t.TokenHash,
			&t.UserID,
			&t.InstallationID,
			&t.Status,
			&t.CreatedAt,
			&t.ExpiresAt,
			&t.LastUsedAt,
			&t.RevokedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan mobile token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
