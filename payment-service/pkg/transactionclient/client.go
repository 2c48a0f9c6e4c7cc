/**
 * @description
 * This package provides a client for communicating with the transaction-service.
 * It encapsulates the logic for handing a payment off to the orchestrator and
 * reading back the verdict.
 */
package transactionclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client is a client for the transaction service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new transaction service client.
func NewClient(baseURL string, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// PaymentRequest defines the request payload for a payment orchestration call.
type PaymentRequest struct {
	Amount         int64  `json:"amount"`
	CardNumber     string `json:"card_number"`
	Expiration     string `json:"expiration,omitempty"`
	CVV            string `json:"cvv,omitempty"`
	CardHolder     string `json:"card_holder,omitempty"`
	PayerID        *int64 `json:"payer_id,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// TransactionResponse defines the orchestrator's answer: the ledger verdict
// plus the identifier of the recorded transaction.
type TransactionResponse struct {
	Success       bool   `json:"success"`
	Code          string `json:"code"`
	Message       string `json:"message"`
	TransactionID int64  `json:"transaction_id"`
}

// Process hands one payment to the transaction-service. An error return means
// no verdict was obtained; the payment's fate is unknown to the caller.
func (c *Client) Process(ctx context.Context, req PaymentRequest) (*TransactionResponse, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("transaction service base url is empty")
	}

	url := fmt.Sprintf("%s/transactions", c.baseURL)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(c.apiKey) != "" {
		httpReq.Header.Set("X-Internal-API-Key", strings.TrimSpace(c.apiKey))
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request to transaction service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transaction service returned error status %d", resp.StatusCode)
	}

	var response TransactionResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode transaction response: %w", err)
	}

	return &response, nil
}
