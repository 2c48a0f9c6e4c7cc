/**
 * @description
 * This file contains the mobile token logic of the payment-service. Mobile
 * tokens are long-lived device credentials for clients that cannot carry a
 * browser session. The plaintext token is generated once, handed to the
 * caller, and only its SHA-256 hash is ever stored or compared.
 *
 * Key features:
 * - Trust-on-first-use device binding: the first installation that presents
 *   the token owns it; later presentations from other devices are rejected.
 * - A blank installation id is treated as absent and neither binds nor
 *   invalidates an existing binding.
 * - Optional distributed rate limiting per token hash, backed by Redis.
 */

package app

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/payment-service/internal/domain"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/payment-service/internal/store"
)

const (
	mobileTokenByteLength  = 32
	defaultMobileTokenTTL  = 90 * 24 * time.Hour
	maxMobileTokenTTLDays  = 365
	mobileTokenRateScope   = "mobile_token"
	mobileTokenRateLimit   = 60
	mobileTokenRateWindow  = time.Minute
)

var (
	ErrMobileTokenInvalid     = errors.New("mobile token is invalid or expired")
	ErrInstallationMismatch   = errors.New("mobile token is bound to another installation")
	ErrMobileTokenRateLimited = errors.New("mobile token rate limit exceeded")
)

// RateLimiter is the optional limiter applied to token validations.
type RateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// MobileTokenService provides generation, validation and revocation of
// mobile tokens.
type MobileTokenService struct {
	repo    store.Repository
	limiter RateLimiter
}

// NewMobileTokenService creates a new mobile token service instance. The
// limiter may be nil, in which case validations are not rate limited.
func NewMobileTokenService(repo store.Repository, limiter RateLimiter) *MobileTokenService {
	return &MobileTokenService{repo: repo, limiter: limiter}
}

// Generate creates a fresh token for the user. ttlDays <= 0 selects the
// default lifetime. The returned plaintext is never reconstructable.
func (s *MobileTokenService) Generate(ctx context.Context, userID int64, ttlDays int) (*domain.GeneratedMobileToken, error) {
	ttl := defaultMobileTokenTTL
	if ttlDays > 0 {
		if ttlDays > maxMobileTokenTTLDays {
			ttlDays = maxMobileTokenTTLDays
		}
		ttl = time.Duration(ttlDays) * 24 * time.Hour
	}

	raw := make([]byte, mobileTokenByteLength)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	plaintext := base64.RawURLEncoding.EncodeToString(raw)

	token := &domain.MobileToken{
		TokenHash: HashMobileToken(plaintext),
		UserID:    userID,
		Status:    domain.MobileTokenStatusActive,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.repo.CreateMobileToken(ctx, token); err != nil {
		return nil, err
	}

	log.Printf("level=info component=mobile_token msg=\"token generated\" token_id=%d user_id=%d expires_at=%s", token.ID, userID, token.ExpiresAt.Format(time.RFC3339))

	return &domain.GeneratedMobileToken{
		ID:        token.ID,
		Token:     plaintext,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

// Validate authenticates a presented token and returns its record. The
// installation id implements trust-on-first-use binding; blank means absent.
func (s *MobileTokenService) Validate(ctx context.Context, plaintext, installationID string) (*domain.MobileToken, error) {
	plaintext = strings.TrimSpace(plaintext)
	if plaintext == "" {
		return nil, ErrMobileTokenInvalid
	}

	hash := HashMobileToken(plaintext)

	if s.limiter != nil {
		count, retryAfter, err := s.limiter.ConsumeRateLimit(ctx, mobileTokenRateScope, hash, mobileTokenRateLimit, mobileTokenRateWindow)
		if err != nil {
			// A limiter outage must not lock every device out.
			log.Printf("level=warn component=mobile_token msg=\"rate limiter unavailable; allowing request\" err=%v", err)
		} else if count > mobileTokenRateLimit {
			log.Printf("level=warn component=mobile_token msg=\"rate limit exceeded\" retry_after=%d", retryAfter)
			return nil, ErrMobileTokenRateLimited
		}
	}

	token, err := s.repo.FindActiveMobileTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrMobileTokenNotFound) {
			return nil, ErrMobileTokenInvalid
		}
		return nil, err
	}

	installationID = strings.TrimSpace(installationID)
	switch {
	case token.InstallationID == nil && installationID != "":
		if err := s.repo.BindMobileTokenInstallation(ctx, token.ID, installationID); err != nil {
			// Lost the first-use race: someone else bound the token first.
			log.Printf("level=warn component=mobile_token msg=\"installation binding race lost\" token_id=%d", token.ID)
			return nil, ErrInstallationMismatch
		}
		token.InstallationID = &installationID
	case token.InstallationID != nil && installationID != "" && *token.InstallationID != installationID:
		log.Printf("level=warn component=mobile_token msg=\"installation mismatch\" token_id=%d", token.ID)
		return nil, ErrInstallationMismatch
	}

	now := time.Now()
	if err := s.repo.TouchMobileTokenLastUsed(ctx, token.ID, now); err != nil {
		log.Printf("level=warn component=mobile_token msg=\"failed to touch last used\" token_id=%d err=%v", token.ID, err)
	}
	token.LastUsedAt = &now

	return token, nil
}

// Revoke permanently disables a token. Only the owner may revoke it.
func (s *MobileTokenService) Revoke(ctx context.Context, tokenID, userID int64) error {
	if err := s.repo.RevokeMobileToken(ctx, tokenID, userID); err != nil {
		return err
	}
	log.Printf("level=info component=mobile_token msg=\"token revoked\" token_id=%d user_id=%d", tokenID, userID)
	return nil
}

// ListForUser returns the user's tokens, hashes excluded from serialization.
func (s *MobileTokenService) ListForUser(ctx context.Context, userID int64) ([]domain.MobileToken, error) {
	return s.repo.ListMobileTokensByUser(ctx, userID)
}

// HashMobileToken derives the stored lookup key from a plaintext token.
func HashMobileToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
