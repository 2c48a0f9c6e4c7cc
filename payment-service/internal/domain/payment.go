/**
 * @description
 * This file defines the core domain models for the payment-service, the public
 * gateway of the platform. The gateway accepts payment submissions, tracks
 * their lifecycle, and owns the mobile token credentials used by devices that
 * cannot carry a browser session.
 *
 * @notes
 * - Amounts are stored as `int64` in the smallest currency unit.
 * - The gateway never stores a full PAN: only the last four digits survive
 *   the call into the orchestrator.
 * - Mobile tokens are stored hashed; the plaintext is shown exactly once.
 */

package domain

import "time"

// Payment statuses. CREATED means the payment was accepted but the
// orchestrator has not (yet) delivered a verdict.
const (
	PaymentStatusCreated = "CREATED"
	PaymentStatusSuccess = "SUCCESS"
	PaymentStatusFailed  = "FAILED"
)

// Mobile token statuses.
const (
	MobileTokenStatusActive  = "ACTIVE"
	MobileTokenStatusRevoked = "REVOKED"
)

// SubmitPaymentRequest is the DTO for an incoming payment submission.
type SubmitPaymentRequest struct {
	Amount     int64  `json:"amount"` // in minor units
	CardNumber string `json:"card_number"`
	Expiration string `json:"expiration,omitempty"` // YYYY-MM
	CVV        string `json:"cvv,omitempty"`
	CardHolder string `json:"card_holder,omitempty"`
}

// Payment is the gateway's durable record of one submission. A payment stuck
// in CREATED means the orchestrator never answered; the reconciler reports
// those for manual review.
type Payment struct {
	ID            int64     `json:"id"`
	Amount        int64     `json:"amount"`
	CardLast4     string    `json:"card_last4"`
	CardHolder    string    `json:"card_holder,omitempty"`
	PayerID       *int64    `json:"payer_id,omitempty"`
	Status        string    `json:"status"`
	BankCode      string    `json:"bank_code,omitempty"`
	BankMessage   string    `json:"bank_message,omitempty"`
	TransactionID *int64    `json:"transaction_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PaymentResponse is what the gateway returns to its caller.
type PaymentResponse struct {
	PaymentID     int64  `json:"payment_id"`
	Success       bool   `json:"success"`
	Status        string `json:"status"`
	Code          string `json:"code,omitempty"`
	Message       string `json:"message,omitempty"`
	TransactionID *int64 `json:"transaction_id,omitempty"`
}

// MobileToken is the durable record of one device credential. Only the
// SHA-256 hash of the token is stored.
type MobileToken struct {
	ID             int64      `json:"id"`
	TokenHash      string     `json:"-"`
	UserID         int64      `json:"user_id"`
	InstallationID *string    `json:"installation_id,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpiresAt      time.Time  `json:"expires_at"`
	LastUsedAt     *time.Time `json:"last_used_at,omitempty"`
	RevokedAt      *time.Time `json:"revoked_at,omitempty"`
}

// GeneratedMobileToken carries the plaintext token back to the caller. This
// is the only moment the plaintext exists outside the device.
type GeneratedMobileToken struct {
	ID        int64     `json:"id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
