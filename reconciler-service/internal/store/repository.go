/**
 * @description
 * This file provides the read-only PostgreSQL repository used by the
 * reconciler's jobs.
 */
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/reconciler-service/internal/domain"
)

// Repository wraps the database pool for reconciliation queries.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// FindStaleCreatedPayments returns payments still in CREATED that were
// accepted before the cutoff, oldest first.
func (r *Repository) FindStaleCreatedPayments(ctx context.Context, cutoff time.Time, limit int) ([]domain.StalePayment, error) {
	query := `
		SELECT id, amount, card_last4, payer_id, created_at
		FROM payments
		WHERE status = 'CREATED' AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.StalePayment
	for rows.Next() {
		var p domain.StalePayment
		if err := rows.Scan(&p.ID, &p.Amount, &p.CardLast4, &p.PayerID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stale payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
