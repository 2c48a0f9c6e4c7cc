/**
 * @description
 * This file defines the domain models the reconciler-service reads. The
 * reconciler never mutates payment state: it only reports payments that were
 * accepted by the gateway but never received a verdict.
 */
package domain

import "time"

// StalePayment is a payment stuck in CREATED past the staleness cutoff.
type StalePayment struct {
	ID         int64     `json:"id"`
	Amount     int64     `json:"amount"`
	CardLast4  string    `json:"card_last4"`
	PayerID    *int64    `json:"payer_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
