/**
 * @description
 * This file defines the core domain models for the transaction-service, the
 * orchestrator between the payment gateway and the ledger. The service never
 * owns balances: it relays authorization requests to the ledger and keeps the
 * durable log of attempted transactions.
 *
 * @notes
 * - Amounts are stored as `int64` in the smallest currency unit.
 * - The stored card number is always masked; the full PAN and CVV only
 *   transit in memory on their way to the ledger.
 */

package domain

import "time"

// Transaction statuses. A transaction is only ever recorded after the ledger
// answered, so there is no pending state at this layer.
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// PaymentRequest is the DTO for an incoming payment orchestration call.
type PaymentRequest struct {
	Amount         int64  `json:"amount"` // in minor units
	CardNumber     string `json:"card_number"`
	Expiration     string `json:"expiration,omitempty"` // YYYY-MM
	CVV            string `json:"cvv,omitempty"`
	CardHolder     string `json:"card_holder,omitempty"`
	PayerID        *int64 `json:"payer_id,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// Transaction is the durable record of one orchestrated payment attempt. The
// bank code and message are the ledger's verdict, kept verbatim for audit.
type Transaction struct {
	ID          int64     `json:"id"`
	Amount      int64     `json:"amount"`
	CardNumber  string    `json:"card_number"` // masked
	CardHolder  string    `json:"card_holder,omitempty"`
	Expiration  string    `json:"expiration,omitempty"`
	Status      string    `json:"status"`
	BankCode    string    `json:"bank_code"`
	BankMessage string    `json:"bank_message"`
	PayerID     *int64    `json:"payer_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TransactionResponse is what the orchestrator returns to its caller: the
// ledger's verdict plus the identifier of the recorded transaction.
type TransactionResponse struct {
	Success       bool   `json:"success"`
	Code          string `json:"code"`
	Message       string `json:"message"`
	TransactionID int64  `json:"transaction_id"`
}

// MaskCardNumber reduces a PAN to its last four digits for storage and
// display. Numbers shorter than four characters are fully masked.
func MaskCardNumber(cardNumber string) string {
	if len(cardNumber) < 4 {
		return "****"
	}
	return "**** **** **** " + cardNumber[len(cardNumber)-4:]
}
