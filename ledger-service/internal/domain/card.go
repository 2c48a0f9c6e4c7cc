/**
 * @description
 * This file defines the core domain models for the ledger-service. The ledger
 * is the authoritative owner of card records and balances: it is the only
 * component allowed to mutate a card balance, and it does so exclusively
 * through the authorization flow or an explicit administrative top-up.
 *
 * @notes
 * - Amounts and balances are stored as `int64` in the smallest currency unit,
 *   which avoids floating-point inaccuracies with financial data.
 * - The CVV is never serialized in API responses.
 */

package domain

import "time"

// Authorization outcome codes returned by the ledger. These are a stable wire
// contract consumed by the transaction-service and ultimately by callers of
// the payment gateway.
const (
	CodeApproved          = "OK"
	CodeCardNotFound      = "CARTE_INEXISTANTE"
	CodeCardBlocked       = "CARTE_BLOQUEE"
	CodeCardExpired       = "CARTE_EXPIREE"
	CodeInvalidCVV        = "CVV_INVALIDE"
	CodeInsufficientFunds = "SOLDE_INSUFFISANT"
)

// Card represents a bank card account. The card number is the primary key and
// is never regenerated for the life of the record.
type Card struct {
	CardNumber string    `json:"card_number"`
	Expiration string    `json:"expiration"` // YYYY-MM
	CVV        string    `json:"-"`
	Balance    int64     `json:"balance"` // in minor units
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AuthorizationRequest is the DTO for an incoming authorization call.
// Expiration and CVV are optional: a blank value means "skip this check",
// which supports the reduced-friction flow where the caller already proved
// possession of the card some other way.
type AuthorizationRequest struct {
	CardNumber     string `json:"card_number"`
	Expiration     string `json:"expiration,omitempty"`
	CVV            string `json:"cvv,omitempty"`
	Amount         int64  `json:"amount"` // in minor units
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// AuthorizationResult is the outcome of an authorization call. Business
// denials are results, not errors: they always carry a code and a message.
type AuthorizationResult struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Authorization is the ledger's durable record of one authorization attempt
// keyed by the caller-supplied idempotency key. It lets a retried request be
// recognized and answered with the recorded outcome instead of re-executed.
type Authorization struct {
	ID             int64     `json:"id"`
	IdempotencyKey *string   `json:"idempotency_key,omitempty"`
	CardNumber     string    `json:"card_number"`
	Amount         int64     `json:"amount"`
	Success        bool      `json:"success"`
	Code           string    `json:"code"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateCardRequest is the DTO for the administrative card creation endpoint.
type CreateCardRequest struct {
	CardNumber string `json:"card_number"`
	Expiration string `json:"expiration"`
	CVV        string `json:"cvv"`
	Balance    int64  `json:"balance"`
	Active     bool   `json:"active"`
}

// UpdateCardRequest carries optional administrative updates. Nil fields are
// left untouched.
type UpdateCardRequest struct {
	Expiration *string `json:"expiration,omitempty"`
	CVV        *string `json:"cvv,omitempty"`
	Balance    *int64  `json:"balance,omitempty"`
	Active     *bool   `json:"active,omitempty"`
}
