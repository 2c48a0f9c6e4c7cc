/**
 * @description
 * Scheduled job implementations for the reconciler-service. The reconciler is
 * deliberately read-only: a payment stuck in CREATED means the orchestrator
 * never answered, and resolving it safely needs a human looking at the ledger.
 */
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/reconciler-service/internal/config"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/reconciler-service/internal/domain"
)

// Repository defines database operations needed by the jobs.
type Repository interface {
	FindStaleCreatedPayments(ctx context.Context, cutoff time.Time, limit int) ([]domain.StalePayment, error)
}

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	repo   Repository
	logger *slog.Logger
	config config.Config
}

// NewJobs creates a new Jobs runner.
func NewJobs(repo Repository, logger *slog.Logger, cfg config.Config) *Jobs {
	return &Jobs{
		repo:   repo,
		logger: logger,
		config: cfg,
	}
}

// ReportStaleCreatedPayments finds payments that were accepted but never
// finalized and reports them for manual review.
func (j *Jobs) ReportStaleCreatedPayments() {
	j.logger.Info("starting stale payment report job")
	ctx := context.Background()

	cutoff := time.Now().Add(-time.Duration(j.config.StalePaymentCutoffMins) * time.Minute)
	payments, err := j.repo.FindStaleCreatedPayments(ctx, cutoff, j.config.StalePaymentBatchLimit)
	if err != nil {
		j.logger.Error("failed to query stale payments", "error", err)
		return
	}

	if len(payments) == 0 {
		j.logger.Info("no stale payments found")
		return
	}

	j.logger.Warn("found payments without a verdict", "count", len(payments), "cutoff_minutes", j.config.StalePaymentCutoffMins)
	for _, p := range payments {
		j.logger.Warn("stale payment requires manual review",
			"payment_id", p.ID,
			"amount", p.Amount,
			"card_last4", p.CardLast4,
			"created_at", p.CreatedAt.Format(time.RFC3339),
		)
	}

	j.logger.Info("stale payment report job finished")
}
