package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/payment-service/internal/domain"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/payment-service/internal/store"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/payment-service/pkg/rabbitmq"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/payment-service/pkg/transactionclient"
)

// stubRepository is an in-memory implementation of store.Repository.
type stubRepository struct {
	payments      map[int64]*domain.Payment
	tokens        map[int64]*domain.MobileToken
	nextPaymentID int64
	nextTokenID   int64
}

func newStubRepository() *stubRepository {
	return &stubRepository{
		payments: make(map[int64]*domain.Payment),
		tokens:   make(map[int64]*domain.MobileToken),
	}
}

func (r *stubRepository) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	r.nextPaymentID++
	payment.ID = r.nextPaymentID
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt
	copied := *payment
	r.payments[payment.ID] = &copied
	return nil
}

func (r *stubRepository) FinalizePaymentStatus(ctx context.Context, paymentID int64, status, bankCode, bankMessage string, transactionID *int64) error {
	p, ok := r.payments[paymentID]
	if !ok {
		return store.ErrPaymentNotFound
	}
	if p.Status != domain.PaymentStatusCreated {
		return store.ErrPaymentNotPending
	}
	p.Status = status
	p.BankCode = bankCode
	p.BankMessage = bankMessage
	p.TransactionID = transactionID
	p.UpdatedAt = time.Now()
	return nil
}

func (r *stubRepository) ListPayments(ctx context.Context) ([]domain.Payment, error) {
	out := make([]domain.Payment, 0, len(r.payments))
	for _, p := range r.payments {
		out = append(out, *p)
	}
	return out, nil
}

func (r *stubRepository) FindPaymentByID(ctx context.Context, id int64) (*domain.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, store.ErrPaymentNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *stubRepository) CreateMobileToken(ctx context.Context, token *domain.MobileToken) error {
	r.nextTokenID++
	token.ID = r.nextTokenID
	token.CreatedAt = time.Now()
	copied := *token
	r.tokens[token.ID] = &copied
	return nil
}

func (r *stubRepository) FindActiveMobileTokenByHash(ctx context.Context, tokenHash string) (*domain.MobileToken, error) {
	for _, t := range r.tokens {
		if t.TokenHash == tokenHash && t.Status == domain.MobileTokenStatusActive && t.ExpiresAt.After(time.Now()) {
			copied := *t
			return &copied, nil
		}
	}
	return nil, store.ErrMobileTokenNotFound
}

func (r *stubRepository) BindMobileTokenInstallation(ctx context.Context, tokenID int64, installationID string) error {
	t, ok := r.tokens[tokenID]
	if !ok || t.InstallationID != nil {
		return store.ErrMobileTokenNotFound
	}
	t.InstallationID = &installationID
	return nil
}

func (r *stubRepository) TouchMobileTokenLastUsed(ctx context.Context, tokenID int64, usedAt time.Time) error {
	t, ok := r.tokens[tokenID]
	if !ok {
		return store.ErrMobileTokenNotFound
	}
	t.LastUsedAt = &usedAt
	return nil
}

func (r *stubRepository) RevokeMobileToken(ctx context.Context, tokenID, userID int64) error {
	t, ok := r.tokens[tokenID]
	if !ok || t.UserID != userID || t.Status != domain.MobileTokenStatusActive {
		return store.ErrMobileTokenNotFound
	}
	now := time.Now()
	t.Status = domain.MobileTokenStatusRevoked
	t.RevokedAt = &now
	return nil
}

func (r *stubRepository) ListMobileTokensByUser(ctx context.Context, userID int64) ([]domain.MobileToken, error) {
	var out []domain.MobileToken
	for _, t := range r.tokens {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

// fakeTransactionClient returns a canned orchestrator answer.
type fakeTransactionClient struct {
	response *transactionclient.TransactionResponse
	err      error
	calls    int
	lastReq  transactionclient.PaymentRequest
}

func (c *fakeTransactionClient) Process(ctx context.Context, req transactionclient.PaymentRequest) (*transactionclient.TransactionResponse, error) {
	c.calls++
	c.lastReq = req
	if c.err != nil {
		return nil, c.err
	}
	return c.response, nil
}

type recordingPublisher struct {
	events []rabbitmq.PaymentCompletedEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	return nil
}

func (p *recordingPublisher) PublishPaymentCompletedEvent(ctx context.Context, event rabbitmq.PaymentCompletedEvent) error {
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() {}

func TestSubmitPayment_ApprovedFinalizesAsSuccess(t *testing.T) {
	repo := newStubRepository()
	client := &fakeTransactionClient{response: &transactionclient.TransactionResponse{
		Success:       true,
		Code:          "OK",
		Message:       "Paiement autorisé",
		TransactionID: 42,
	}}
	publisher := &recordingPublisher{}
	service := NewPaymentService(repo, client, publisher)

	payerID := int64(7)
	resp, err := service.SubmitPayment(context.Background(), domain.SubmitPaymentRequest{
		Amount:     100,
		CardNumber: "4123456789012345",
		Expiration: "2027-09",
		CVV:        "123",
	}, &payerID)
	if err != nil {
		t.Fatalf("SubmitPayment returned error: %v", err)
	}
	if !resp.Success || resp.Status != domain.PaymentStatusSuccess {
		t.Fatalf("expected SUCCESS, got %+v", resp)
	}
	if resp.TransactionID == nil || *resp.TransactionID != 42 {
		t.Errorf("expected transaction ID 42, got %v", resp.TransactionID)
	}

	stored := repo.payments[resp.PaymentID]
	if stored.Status != domain.PaymentStatusSuccess {
		t.Errorf("expected stored payment SUCCESS, got %s", stored.Status)
	}
	if stored.CardLast4 != "2345" {
		t.Errorf("expected only last four digits stored, got %q", stored.CardLast4)
	}
	if stored.PayerID == nil || *stored.PayerID != 7 {
		t.Errorf("expected payer ID preserved, got %v", stored.PayerID)
	}

	if len(publisher.events) != 1 || publisher.events[0].Status != domain.PaymentStatusSuccess {
		t.Errorf("expected one SUCCESS event, got %+v", publisher.events)
	}
}

func TestSubmitPayment_DenialFinalizesAsFailed(t *testing.T) {
	repo := newStubRepository()
	client := &fakeTransactionClient{response: &transactionclient.TransactionResponse{
		Success:       false,
		Code:          "CVV_INVALIDE",
		Message:       "CVV invalide",
		TransactionID: 43,
	}}
	service := NewPaymentService(repo, client, &recordingPublisher{})

	resp, err := service.SubmitPayment(context.Background(), domain.SubmitPaymentRequest{
		Amount:     100,
		CardNumber: "4123456789012345",
	}, nil)
	if err != nil {
		t.Fatalf("a denial is a result, not an error: %v", err)
	}
	if resp.Success || resp.Status != domain.PaymentStatusFailed {
		t.Fatalf("expected FAILED, got %+v", resp)
	}
	if repo.payments[resp.PaymentID].Status != domain.PaymentStatusFailed {
		t.Errorf("expected stored payment FAILED")
	}
}

func TestSubmitPayment_OrchestratorFailureLeavesCreated(t *testing.T) {
	repo := newStubRepository()
	client := &fakeTransactionClient{err: errors.New("connection refused")}
	service := NewPaymentService(repo, client, &recordingPublisher{})

	_, err := service.SubmitPayment(context.Background(), domain.SubmitPaymentRequest{
		Amount:     100,
		CardNumber: "4123456789012345",
	}, nil)
	if !errors.Is(err, ErrOrchestratorUnavailable) {
		t.Fatalf("expected ErrOrchestratorUnavailable, got %v", err)
	}

	if len(repo.payments) != 1 {
		t.Fatalf("the intent must be persisted before the call, got %d payments", len(repo.payments))
	}
	for _, p := range repo.payments {
		if p.Status != domain.PaymentStatusCreated {
			t.Errorf("expected payment left in CREATED, got %s", p.Status)
		}
	}
}

func TestSubmitPayment_GeneratesIdempotencyKey(t *testing.T) {
	repo := newStubRepository()
	client := &fakeTransactionClient{response: &transactionclient.TransactionResponse{Success: true, Code: "OK", TransactionID: 1}}
	service := NewPaymentService(repo, client, &recordingPublisher{})

	if _, err := service.SubmitPayment(context.Background(), domain.SubmitPaymentRequest{
		Amount:     100,
		CardNumber: "4123456789012345",
	}, nil); err != nil {
		t.Fatalf("SubmitPayment returned error: %v", err)
	}

	first := client.lastReq.IdempotencyKey
	if first == "" {
		t.Fatal("expected a generated idempotency key")
	}

	if _, err := service.SubmitPayment(context.Background(), domain.SubmitPaymentRequest{
		Amount:     100,
		CardNumber: "4123456789012345",
	}, nil); err != nil {
		t.Fatalf("SubmitPayment returned error: %v", err)
	}
	if client.lastReq.IdempotencyKey == first {
		t.Error("each submission must carry a fresh idempotency key")
	}
}

func TestSubmitPayment_ValidationNeverCallsOrchestrator(t *testing.T) {
	repo := newStubRepository()
	client := &fakeTransactionClient{response: &transactionclient.TransactionResponse{Success: true}}
	service := NewPaymentService(repo, client, &recordingPublisher{})

	_, err := service.SubmitPayment(context.Background(), domain.SubmitPaymentRequest{Amount: 0, CardNumber: "4123456789012345"}, nil)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
	_, err = service.SubmitPayment(context.Background(), domain.SubmitPaymentRequest{Amount: 100, CardNumber: " "}, nil)
	if !errors.Is(err, ErrMissingCardNumber) {
		t.Errorf("expected ErrMissingCardNumber, got %v", err)
	}

	if client.calls != 0 {
		t.Errorf("validation failures must never reach the orchestrator, got %d calls", client.calls)
	}
	if len(repo.payments) != 0 {
		t.Errorf("validation failures must not persist anything, got %d payments", len(repo.payments))
	}
}
