package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/benvon/saas-core/internal/middleware"
)

// UserHandler serves the example protected endpoints. It only reads the
// verified identity placed in the context by the auth middleware; there is
// no user storage.
type UserHandler struct {
	logger *zap.Logger
}

// NewUserHandler creates a user handler.
func NewUserHandler(logger *zap.Logger) *UserHandler {
	return &UserHandler{logger: logger}
}

// Protected demonstrates a minimal protected endpoint.
func (h *UserHandler) Protected(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r)
	if identity == nil {
		respondJSON(w, http.StatusUnauthorized, map[string]any{
			"success": false,
			"error":   "Not authenticated",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":        "Access granted!",
		"user_id":        identity.UID,
		"email":          identity.Email,
		"email_verified": identity.EmailVerified,
	})
}

// Profile returns the authenticated user's profile.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r)
	if identity == nil {
		respondJSON(w, http.StatusUnauthorized, map[string]any{
			"success": false,
			"error":   "Not authenticated",
		})
		return
	}

	resp := map[string]any{
		"user_id":        identity.UID,
		"email":          identity.Email,
		"email_verified": identity.EmailVerified,
	}
	if identity.AuthTime != nil {
		resp["authenticated_at"] = *identity.AuthTime
	}
	respondJSON(w, http.StatusOK, resp)
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
