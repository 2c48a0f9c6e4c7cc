/**
 * @description
 * This file provides the PostgreSQL implementation of the ledger `Repository`
 * interface. It contains the SQL for card administration and for the atomic
 * authorization debit, which is the only place a card balance is decremented.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/ledger-service/internal/domain"
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const cardColumns = "card_number, expiration, cvv, balance, active, created_at, updated_at"

func scanCard(row pgx.Row) (*domain.Card, error) {
	var card domain.Card
	err := row.Scan(
		&card.CardNumber,
		&card.Expiration,
		&card.CVV,
		&card.Balance,
		&card.Active,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	return &card, nil
}

// CreateCard inserts a new card record. The card number is the primary key.
func (r *PostgresRepository) CreateCard(ctx context.Context, card *domain.Card) error {
	query := `
		INSERT INTO cards (card_number, expiration, cvv, balance, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		card.CardNumber, card.Expiration, card.CVV, card.Balance, card.Active,
	).Scan(&card.CreatedAt, &card.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrCardExists
	}
	return err
}

// FindCardByNumber retrieves a card by its number.
func (r *PostgresRepository) FindCardByNumber(ctx context.Context, cardNumber string) (*domain.Card, error) {
	query := fmt.Sprintf("SELECT %s FROM cards WHERE card_number = $1", cardColumns)
	return scanCard(r.db.QueryRow(ctx, query, cardNumber))
}

// ListCards returns all card records ordered by creation time.
func (r *PostgresRepository) ListCards(ctx context.Context) ([]domain.Card, error) {
	query := fmt.Sprintf("SELECT %s FROM cards ORDER BY created_at DESC", cardColumns)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		var card domain.Card
		if err := rows.Scan(
			&card.CardNumber,
			&card.Expiration,
			&card.CVV,
			&card.Balance,
			&card.Active,
			&card.CreatedAt,
			&card.UpdatedAt,
		); err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// UpdateCard applies the non-nil fields of the update to an existing card.
func (r *PostgresRepository) UpdateCard(ctx context.Context, cardNumber string, update domain.UpdateCardRequest) (*domain.Card, error) {
	query := fmt.Sprintf(`
		UPDATE cards
		   SET expiration = COALESCE($2, expiration),
		       cvv        = COALESCE($3, cvv),
		       balance    = COALESCE($4, balance),
		       active     = COALESCE($5, active),
		       updated_at = NOW()
		 WHERE card_number = $1
		RETURNING %s
	`, cardColumns)
	return scanCard(r.db.QueryRow(ctx, query, cardNumber, update.Expiration, update.CVV, update.Balance, update.Active))
}

// TopUpCard increments a card balance by the given amount.
func (r *PostgresRepository) TopUpCard(ctx context.Context, cardNumber string, amount int64) (*domain.Card, error) {
	query := fmt.Sprintf(`
		UPDATE cards
		   SET balance = balance + $2, updated_at = NOW()
		 WHERE card_number = $1
		RETURNING %s
	`, cardColumns)
	return scanCard(r.db.QueryRow(ctx, query, cardNumber, amount))
}

// DeleteCard removes a card record.
func (r *PostgresRepository) DeleteCard(ctx context.Context, cardNumber string) error {
	result, err := r.db.Exec(ctx, "DELETE FROM cards WHERE card_number = $1", cardNumber)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrCardNotFound
	}
	return nil
}

// DebitCardForAuthorization locks the card row, deduplicates by idempotency
// key, re-checks the balance under the lock and decrements it, all in one
// database transaction. The row lock serializes concurrent authorizations per
// card; authorizations against distinct cards do not contend.
func (r *PostgresRepository) DebitCardForAuthorization(ctx context.Context, cardNumber string, amount int64, idempotencyKey string) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin authorization transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx, "SELECT balance FROM cards WHERE card_number = $1 FOR UPDATE", cardNumber).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrCardNotFound
		}
		return false, err
	}

	if key := strings.TrimSpace(idempotencyKey); key != "" {
		// Insert-first dedupe: a conflict means another request with the same
		// key already completed, so this one must not debit again.
		result, err := tx.Exec(ctx, `
			INSERT INTO authorizations (idempotency_key, card_number, amount, success, code)
			VALUES ($1, $2, $3, TRUE, $4)
			ON CONFLICT (idempotency_key) DO NOTHING
		`, key, cardNumber, amount, domain.CodeApproved)
		if err != nil {
			return false, err
		}
		if result.RowsAffected() == 0 {
			return true, nil
		}
	}

	if balance < amount {
		// Rollback also discards the approval row inserted above.
		return false, ErrInsufficientFunds
	}

	if _, err := tx.Exec(ctx, "UPDATE cards SET balance = balance - $1, updated_at = NOW() WHERE card_number = $2", amount, cardNumber); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit authorization transaction: %w", err)
	}
	return false, nil
}

// FindAuthorizationByKey returns the recorded outcome for an idempotency key.
func (r *PostgresRepository) FindAuthorizationByKey(ctx context.Context, idempotencyKey string) (*domain.Authorization, error) {
	var auth domain.Authorization
	query := `
		SELECT id, idempotency_key, card_number, amount, success, code, created_at
		FROM authorizations
		WHERE idempotency_key = $1
	`
	err := r.db.QueryRow(ctx, query, idempotencyKey).Scan(
		&auth.ID,
		&auth.IdempotencyKey,
		&auth.CardNumber,
		&auth.Amount,
		&auth.Success,
		&auth.Code,
		&auth.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAuthorizationNotFound
		}
		return nil, err
	}
	return &auth, nil
}

// RecordAuthorizationOutcome stores a denial so that a replayed request with
// the same idempotency key is answered with the recorded outcome. Conflicts
// are ignored: the first recorded outcome wins.
func (r *PostgresRepository) RecordAuthorizationOutcome(ctx context.Context, idempotencyKey, cardNumber string, amount int64, success bool, code string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO authorizations (idempotency_key, card_number, amount, success, code)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (idempotency_key) DO NOTHING
	`, idempotencyKey, cardNumber, amount, success, code)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
