package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	logpkg "github.com/benvon/saas-core/internal/logger"
	"github.com/benvon/saas-core/internal/models"
	"github.com/benvon/saas-core/internal/services/auth"
)

type contextKey string

const identityContextKey contextKey = "identity"

// IdentityFromContext extracts the verified identity from the request
// context, or nil if the request did not pass the Auth middleware.
func IdentityFromContext(r *http.Request) *models.IdentityRecord {
	identity, ok := r.Context().Value(identityContextKey).(*models.IdentityRecord)
	if !ok {
		return nil
	}
	return identity
}

// Auth creates authentication middleware that verifies bearer tokens and
// places the resulting identity in the request context.
//
// Error mapping: authentication failures are 401, the email-verification
// policy is 403, and a key-endpoint outage is still a 401 to the client but
// logged distinctly because it indicates infrastructure trouble rather than
// a bad token.
func Auth(verifier *auth.Verifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusUnauthorized, "Missing Authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}
			token := parts[1]

			ctx := r.Context()
			identity, err := verifier.VerifyUser(ctx, token)
			if err != nil {
				if auth.IsEmailNotVerified(err) {
					respondError(w, http.StatusForbidden, "Email verification required")
					return
				}
				if auth.IsKeySetUnavailable(err) {
					logger.Error("signing_keys_unavailable",
						zap.String("error", logpkg.SanitizeError(err)),
					)
					respondError(w, http.StatusUnauthorized, "Invalid or expired token")
					return
				}
				logger.Info("token_verification_failed",
					zap.String("reason", string(auth.FailureReason(err))),
					zap.String("token", logpkg.TokenPreview(token)),
					zap.String("error", logpkg.SanitizeError(err)),
				)
				respondError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success": false,
		"error":   message,
	}
	_ = json.NewEncoder(w).Encode(response)
}
