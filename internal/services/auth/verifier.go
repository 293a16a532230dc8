package auth

import (
	"context"

	"github.com/benvon/saas-core/internal/config"
	"github.com/benvon/saas-core/internal/models"
)

// Verifier is the single public entry point for token verification. It owns
// its key store and resolved configuration, so multiple independently
// configured verifiers can coexist in one process and tests stay isolated.
type Verifier struct {
	cfg       *config.Config
	keys      *KeyStore
	validator *ClaimValidator
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithKeyStore overrides the key store, e.g. to share one across verifiers
// or to inject a test double.
func WithKeyStore(keys *KeyStore) VerifierOption {
	return func(v *Verifier) { v.keys = keys }
}

// NewVerifier creates a verifier from a resolved configuration.
func NewVerifier(cfg *config.Config, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		cfg:       cfg,
		validator: NewClaimValidator(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.keys == nil {
		v.keys = NewKeyStore(cfg.KeysEndpoint, cfg.KeyCacheTTL)
	}
	return v
}

// VerifyUser verifies a raw bearer token and returns the normalized
// identity. The caller is responsible for stripping any "Bearer " prefix.
//
// Failures are *AuthenticationError (bad or unverifiable token),
// *EmailNotVerifiedError (cryptographically valid but policy-rejected), or
// nothing else. Verification never retries: a bad token will not become
// valid by retrying.
func (v *Verifier) VerifyUser(ctx context.Context, token string) (*models.IdentityRecord, error) {
	if token == "" {
		return nil, authErr(ReasonMalformedToken, "token must be a non-empty string", nil)
	}

	claims, err := v.validator.Validate(ctx, []byte(token), v.keys, v.cfg)
	if err != nil {
		return nil, err
	}

	if claims.Email == "" {
		return nil, authErr(ReasonInvalidClaims, "token missing email claim", nil)
	}

	// Policy runs only after signature and claim validation succeed.
	if v.cfg.RequireEmailVerified && !claims.EmailVerified {
		return nil, &EmailNotVerifiedError{Email: claims.Email}
	}

	return &models.IdentityRecord{
		UID:           claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		AuthTime:      claims.AuthTime,
	}, nil
}

// KeyStore exposes the verifier's key store for operational tooling (key
// listing, cache reset).
func (v *Verifier) KeyStore() *KeyStore {
	return v.keys
}
