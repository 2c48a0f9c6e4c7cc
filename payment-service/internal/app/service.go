/**
 * @description
 * This file contains the core business logic of the payment-service gateway.
 * A submission is persisted in CREATED before anything leaves the process, so
 * a crash or an unreachable orchestrator can never lose a payment: it stays
 * visible as CREATED until the reconciler or an operator deals with it.
 *
 * Key features:
 * - Persist first, call out second: the CREATED row is the durable intent.
 * - One generated idempotency key per payment, forwarded downstream so a
 *   gateway retry can never double-debit the card.
 * - A transport failure leaves the payment in CREATED and returns an error;
 *   the verdict path finalizes the status exactly once.
 *
 * @dependencies
 * - github.com/google/uuid: idempotency key generation.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/transactionclient, pkg/rabbitmq: For external service communication.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/payment-service/internal/domain"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/payment-service/internal/store"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/payment-service/pkg/rabbitmq"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/payment-service/pkg/transactionclient"
)

var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrMissingCardNumber = errors.New("card number is required")
	// ErrOrchestratorUnavailable means the transaction-service never answered.
	// The payment stays in CREATED; its fate is unknown.
	ErrOrchestratorUnavailable = errors.New("transaction service unavailable")
)

// TransactionClient is the interface to the orchestrator.
type TransactionClient interface {
	Process(ctx context.Context, req transactionclient.PaymentRequest) (*transactionclient.TransactionResponse, error)
}

// PaymentService provides the gateway's payment logic.
type PaymentService struct {
	repo              store.Repository
	transactionClient TransactionClient
	eventProducer     rabbitmq.Publisher
}

// NewPaymentService creates a new payment service instance.
func NewPaymentService(repo store.Repository, client TransactionClient, producer rabbitmq.Publisher) *PaymentService {
	return &PaymentService{
		repo:              repo,
		transactionClient: client,
		eventProducer:     producer,
	}
}

// SubmitPayment runs one payment submission: persist the intent, hand it to
// the orchestrator under a fresh idempotency key, finalize with the verdict.
func (s *PaymentService) SubmitPayment(ctx context.Context, req domain.SubmitPaymentRequest, payerID *int64) (*domain.PaymentResponse, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	cardNumber := strings.TrimSpace(req.CardNumber)
	if cardNumber == "" {
		return nil, ErrMissingCardNumber
	}

	payment := &domain.Payment{
		Amount:     req.Amount,
		CardLast4:  lastFour(cardNumber),
		CardHolder: strings.TrimSpace(req.CardHolder),
		PayerID:    payerID,
		Status:     domain.PaymentStatusCreated,
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to persist payment: %w", err)
	}

	idempotencyKey := uuid.New().String()
	log.Printf("level=info component=payment msg=\"payment accepted\" payment_id=%d amount=%d idempotency_key=%s", payment.ID, payment.Amount, idempotencyKey)

	verdict, err := s.transactionClient.Process(ctx, transactionclient.PaymentRequest{
		Amount:         req.Amount,
		CardNumber:     cardNumber,
		Expiration:     strings.TrimSpace(req.Expiration),
		CVV:            strings.TrimSpace(req.CVV),
		CardHolder:     strings.TrimSpace(req.CardHolder),
		PayerID:        payerID,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		// The payment stays CREATED for the reconciler to find.
		log.Printf("level=error component=payment msg=\"orchestrator call failed; payment left pending\" payment_id=%d err=%v", payment.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrOrchestratorUnavailable, err)
	}

	status := domain.PaymentStatusFailed
	if verdict.Success {
		status = domain.PaymentStatusSuccess
	}
	transactionID := verdict.TransactionID

	if err := s.repo.FinalizePaymentStatus(ctx, payment.ID, status, verdict.Code, verdict.Message, &transactionID); err != nil {
		if !errors.Is(err, store.ErrPaymentNotPending) {
			return nil, fmt.Errorf("failed to finalize payment: %w", err)
		}
		log.Printf("level=warn component=payment msg=\"payment already finalized\" payment_id=%d", payment.ID)
	}

	// Best-effort: the verdict is already durable.
	if err := s.eventProducer.PublishPaymentCompletedEvent(ctx, rabbitmq.PaymentCompletedEvent{
		PaymentID:     payment.ID,
		TransactionID: &transactionID,
		Amount:        payment.Amount,
		Status:        status,
		Timestamp:     time.Now(),
	}); err != nil {
		log.Printf("level=warn component=payment msg=\"failed to publish payment completed event\" payment_id=%d err=%v", payment.ID, err)
	}

	return &domain.PaymentResponse{
		PaymentID:     payment.ID,
		Success:       verdict.Success,
		Status:        status,
		Code:          verdict.Code,
		Message:       verdict.Message,
		TransactionID: &transactionID,
	}, nil
}

// ListPayments returns all payments, newest first.
func (s *PaymentService) ListPayments(ctx context.Context) ([]domain.Payment, error) {
	return s.repo.ListPayments(ctx)
}

// GetPayment returns one payment by ID.
func (s *PaymentService) GetPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	return s.repo.FindPaymentByID(ctx, id)
}

func lastFour(cardNumber string) string {
	if len(cardNumber) < 4 {
		return cardNumber
	}
	return cardNumber[len(cardNumber)-4:]
}
