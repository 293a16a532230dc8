package middleware

import (
	"context"
	"net/http"

	"github.com/benvon/saas-core/internal/models"
)

// WithIdentity returns a copy of the request carrying the given identity,
// as if it had passed the Auth middleware. Test helper for handler tests.
func WithIdentity(r *http.Request, identity *models.IdentityRecord) *http.Request {
	ctx := context.WithValue(r.Context(), identityContextKey, identity)
	return r.WithContext(ctx)
}
