package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/reconciler-service/internal/config"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/reconciler-service/internal/domain"
)

type jobsRepoStub struct {
	payments   []domain.StalePayment
	err        error
	lastCutoff time.Time
	lastLimit  int
	calls      int
}

func (s *jobsRepoStub) FindStaleCreatedPayments(ctx context.Context, cutoff time.Time, limit int) ([]domain.StalePayment, error) {
	s.calls++
	s.lastCutoff = cutoff
	s.lastLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.payments, nil
}

func newTestJobs(repo Repository, cfg config.Config) *Jobs {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewJobs(repo, logger, cfg)
}

func TestReportStaleCreatedPayments_UsesConfiguredCutoffAndLimit(t *testing.T) {
	repo := &jobsRepoStub{}
	jobs := newTestJobs(repo, config.Config{StalePaymentCutoffMins: 30, StalePaymentBatchLimit: 50})

	before := time.Now().Add(-30 * time.Minute)
	jobs.ReportStaleCreatedPayments()
	after := time.Now().Add(-30 * time.Minute)

	if repo.calls != 1 {
		t.Fatalf("expected one repository call, got %d", repo.calls)
	}
	if repo.lastLimit != 50 {
		t.Errorf("expected limit 50, got %d", repo.lastLimit)
	}
	if repo.lastCutoff.Before(before) || repo.lastCutoff.After(after) {
		t.Errorf("cutoff %v not within expected window [%v, %v]", repo.lastCutoff, before, after)
	}
}

func TestReportStaleCreatedPayments_SurvivesRepositoryError(t *testing.T) {
	repo := &jobsRepoStub{err: errors.New("db down")}
	jobs := newTestJobs(repo, config.Config{StalePaymentCutoffMins: 15, StalePaymentBatchLimit: 100})

	// Must not panic; the job logs and returns.
	jobs.ReportStaleCreatedPayments()
}

func TestReportStaleCreatedPayments_ReportsFoundPayments(t *testing.T) {
	repo := &jobsRepoStub{payments: []domain.StalePayment{
		{ID: 1, Amount: 100, CardLast4: "2345", CreatedAt: time.Now().Add(-time.Hour)},
		{ID: 2, Amount: 250, CardLast4: "9876", CreatedAt: time.Now().Add(-2 * time.Hour)},
	}}
	jobs := newTestJobs(repo, config.Config{StalePaymentCutoffMins: 15, StalePaymentBatchLimit: 100})

	jobs.ReportStaleCreatedPayments()

	if repo.calls != 1 {
		t.Fatalf("expected one repository call, got %d", repo.calls)
	}
}
