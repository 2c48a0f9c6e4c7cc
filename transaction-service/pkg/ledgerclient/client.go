/**
 * @description
 * This package provides a client for communicating with the ledger-service.
 * It encapsulates the logic for making the authorization API call that decides
 * whether a card payment is approved.
 */
package ledgerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client is a client for the ledger service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new ledger service client.
func NewClient(baseURL string, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// AuthorizationRequest defines the request payload for an authorization call.
type AuthorizationRequest struct {
	CardNumber     string `json:"card_number"`
	Expiration     string `json:"expiration,omitempty"`
	CVV            string `json:"cvv,omitempty"`
	Amount         int64  `json:"amount"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// AuthorizationResult defines the ledger's verdict. A denial is a normal
// result with Success=false, not an error.
type AuthorizationResult struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Authorize calls the ledger-service to authorize and debit one payment.
// An error return means the ledger could not be reached or did not answer
// with a verdict; the caller must not record any outcome in that case.
func (c *Client) Authorize(ctx context.Context, req AuthorizationRequest) (*AuthorizationResult, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("ledger service base url is empty")
	}

	url := fmt.Sprintf("%s/authorize", c.baseURL)

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
		return nil, fmt.Errorf("failed to execute request to ledger service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ledger service returned error status %d", resp.StatusCode)
	}

	var result AuthorizationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode ledger response: %w", err)
	}

	return &result, nil
}
