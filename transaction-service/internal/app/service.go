/**
 * @description
 * This file contains the core business logic for the transaction-service. The
 * `Service` struct orchestrates one payment attempt: it relays the request to
 * the ledger for authorization, records the verdict in the transaction log,
 * and publishes an event for asynchronous consumers.
 *
 * Key features:
 * - Exactly one ledger call per orchestration attempt.
 * - A transport failure records nothing: there is no verdict to log.
 * - The stored card number is masked before it ever reaches the repository.
 * - Event publishing is best-effort and never blocks the caller's answer.
 *
 * @dependencies
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/ledgerclient, pkg/rabbitmq: For external service communication.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/transaction-service/internal/domain"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/transaction-service/internal/store"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/transaction-service/pkg/ledgerclient"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/transaction-service/pkg/rabbitmq"
)

var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrMissingCardNumber = errors.New("card number is required")
	// ErrLedgerUnavailable means the ledger never delivered a verdict. The
	// caller must treat the outcome as unknown; nothing was recorded.
	ErrLedgerUnavailable = errors.New("ledger service unavailable")
)

// LedgerClient is the interface to the ledger's authorization endpoint.
type LedgerClient interface {
	Authorize(ctx context.Context, req ledgerclient.AuthorizationRequest) (*ledgerclient.AuthorizationResult, error)
}

// Service provides the core business logic for payment orchestration.
type Service struct {
	repo          store.Repository
	ledgerClient  LedgerClient
	eventProducer rabbitmq.Publisher
}

// NewService creates a new transaction service instance.
func NewService(repo store.Repository, ledger LedgerClient, producer rabbitmq.Publisher) *Service {
	return &Service{
		repo:          repo,
		ledgerClient:  ledger,
		eventProducer: producer,
	}
}

// Process runs one payment attempt end to end: validate, ask the ledger for a
// verdict, record the outcome, publish the event. The ledger is called exactly
// once; a retry is the caller's decision and arrives as a new call.
func (s *Service) Process(ctx context.Context, req domain.PaymentRequest) (*domain.TransactionResponse, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	cardNumber := strings.TrimSpace(req.CardNumber)
	if cardNumber == "" {
		return nil, ErrMissingCardNumber
	}

	verdict, err := s.ledgerClient.Authorize(ctx, ledgerclient.AuthorizationRequest{
		CardNumber:     cardNumber,
		Expiration:     strings.TrimSpace(req.Expiration),
		CVV:            strings.TrimSpace(req.CVV),
		Amount:         req.Amount,
		IdempotencyKey: strings.TrimSpace(req.IdempotencyKey),
	})
	if err != nil {
		// No verdict, no record. Logging the full PAN is never acceptable.
		log.Printf("level=error component=transaction msg=\"ledger call failed\" card=%s err=%v", domain.MaskCardNumber(cardNumber), err)
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}

	status := domain.StatusFailed
	if verdict.Success {
		status = domain.StatusSuccess
	}

	tx := &domain.Transaction{
		Amount:      req.Amount,
		CardNumber:  domain.MaskCardNumber(cardNumber),
		CardHolder:  strings.TrimSpace(req.CardHolder),
		Expiration:  strings.TrimSpace(req.Expiration),
		Status:      status,
		BankCode:    verdict.Code,
		BankMessage: verdict.Message,
		PayerID:     req.PayerID,
	}
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	log.Printf("level=info component=transaction msg=\"transaction recorded\" transaction_id=%d status=%s code=%s amount=%d", tx.ID, tx.Status, tx.BankCode, tx.Amount)

	// Best-effort: the verdict is already durable, a publish failure only
	// delays downstream consumers.
	if err := s.eventProducer.PublishTransactionRecordedEvent(ctx, rabbitmq.TransactionRecordedEvent{
		TransactionID: tx.ID,
		Amount:        tx.Amount,
		Status:        tx.Status,
		BankCode:      tx.BankCode,
		Timestamp:     time.Now(),
	}); err != nil {
		log.Printf("level=warn component=transaction msg=\"failed to publish transaction recorded event\" transaction_id=%d err=%v", tx.ID, err)
	}

	return &domain.TransactionResponse{
		Success:       verdict.Success,
		Code:          verdict.Code,
		Message:       verdict.Message,
		TransactionID: tx.ID,
	}, nil
}

// ListTransactions returns the full transaction log, newest first.
func (s *Service) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return s.repo.ListTransactions(ctx)
}

// GetTransaction returns one transaction record by ID.
func (s *Service) GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	return s.repo.FindTransactionByID(ctx, id)
}
