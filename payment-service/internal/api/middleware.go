/**
 * @description
 * This file contains the authentication middleware for the payment-service.
 * Two credentials are accepted: a mobile token presented by a bound device,
 * or an HS256 session JWT issued by the identity provider. Either way the
 * authenticated user id ends up in the request context.
 *
 * @dependencies
 * - github.com/golang-jwt/jwt/v5: JWT parsing and validation.
 */

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kamalnj/Distributed-Bank-Card-Payment-Verification-System/payment-service/internal/app"
)

// UserIDContextKey is a custom type for the context key to avoid collisions.
type UserIDContextKey string

const userIDKey UserIDContextKey = "userID"

// AuthMiddleware authenticates a request via mobile token or session JWT and
// injects the user id into the request context.
func AuthMiddleware(tokens *app.MobileTokenService, jwtSecret string) func(http.Handler) http.Handler {
	secret := []byte(strings.TrimSpace(jwtSecret))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if mobileToken := strings.TrimSpace(r.Header.Get("X-Mobile-Token")); mobileToken != "" {
				installationID := r.Header.Get("X-Installation-Id")
				token, err := tokens.Validate(r.Context(), mobileToken, installationID)
				if err != nil {
					if errors.Is(err, app.ErrMobileTokenRateLimited) {
						http.Error(w, "Too many requests", http.StatusTooManyRequests)
						return
					}
					http.Error(w, "Invalid mobile token", http.StatusUnauthorized)
					return
				}
				ctx := context.WithValue(r.Context(), userIDKey, token.UserID)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
			if authHeader == "" {
				http.Error(w, "Authorization required", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			userID, err := validateSessionToken(tokenString, secret)
			if err != nil {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionAuthMiddleware authenticates via session JWT only. Token management
// endpoints use it so a stolen mobile token can never mint or revoke tokens.
func SessionAuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	secret := []byte(strings.TrimSpace(jwtSecret))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
			if authHeader == "" {
				http.Error(w, "Authorization required", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			userID, err := validateSessionToken(tokenString, secret)
			if err != nil {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validateSessionToken(tokenString string, secret []byte) (int64, error) {
	if len(secret) == 0 {
		return 0, errors.New("session secret is not configured")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, errors.New("invalid token claims")
	}

	switch v := claims["user_id"].(type) {
	case float64:
		return int64(v), nil
	case string:
		var id int64
		if _, err := fmt.Sscanf(v, "%d", &id); err != nil {
			return 0, errors.New("invalid user_id claim")
		}
		return id, nil
	default:
		return 0, errors.New("missing user_id claim")
	}
}

// GetUserID extracts the authenticated user id from the request context.
func GetUserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}
