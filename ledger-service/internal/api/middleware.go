/**
 * @description
 * This file contains custom middleware for the ledger-service HTTP router.
 * The ledger is an internal service: every caller must present the shared
 * internal API key. Key material comes from configuration, never from code.
 */

package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// InternalAPIKeyMiddleware rejects requests that do not carry the expected
// X-Internal-API-Key header. The comparison is constant-time.
func InternalAPIKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	expected := []byte(strings.TrimSpace(apiKey))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := []byte(strings.TrimSpace(r.Header.Get("X-Internal-API-Key")))
			if len(expected) == 0 || subtle.ConstantTimeCompare(expected, presented) != 1 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
