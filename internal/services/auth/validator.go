package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/benvon/saas-core/internal/config"
	"github.com/benvon/saas-core/internal/models"
)

// KeyProvider resolves a signing key by its key id. Implemented by KeyStore;
// a lookup may trigger a refresh of the cached key set.
type KeyProvider interface {
	Key(ctx context.Context, keyID string) (jwk.Key, error)
}

// ClaimValidator checks a token's signature and claims against a resolved
// configuration. Checks run in a fixed order so a token broken in multiple
// ways always reports the same first-encountered failure: structural decode,
// algorithm, key lookup, signature, time bounds, issuer, audience, subject.
type ClaimValidator struct {
	now func() time.Time
}

// NewClaimValidator creates a claim validator.
func NewClaimValidator() *ClaimValidator {
	return &ClaimValidator{now: time.Now}
}

// Validate verifies the token cryptographically and semantically and returns
// its parsed claims. Every failure carries a Reason; see errors.go.
func (v *ClaimValidator) Validate(ctx context.Context, token []byte, keys KeyProvider, cfg *config.Config) (*models.TokenClaims, error) {
	msg, err := jws.Parse(token)
	if err != nil {
		return nil, authErr(ReasonMalformedToken, "token is not a valid signed JWT", err)
	}
	sigs := msg.Signatures()
	if len(sigs) != 1 {
		return nil, authErr(ReasonMalformedToken, fmt.Sprintf("expected exactly one signature, got %d", len(sigs)), nil)
	}
	hdr := sigs[0].ProtectedHeaders()

	if alg := hdr.Algorithm(); alg != jwa.RS256 {
		return nil, authErr(ReasonUnsupportedAlgorithm, fmt.Sprintf("token algorithm %q is not accepted, only RS256", alg), nil)
	}

	keyID := hdr.KeyID()
	if keyID == "" {
		return nil, authErr(ReasonMalformedToken, "token header missing kid (key id)", nil)
	}

	key, err := keys.Key(ctx, keyID)
	if err != nil {
		return nil, err
	}

	if _, err := jws.Verify(token, jws.WithKey(jwa.RS256, key)); err != nil {
		return nil, authErr(ReasonInvalidSignature, "token signature is invalid", err)
	}

	// Signature is good; decode the payload without re-verifying.
	tok, err := jwt.Parse(token, jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return nil, authErr(ReasonMalformedToken, "token payload is not a valid claim set", err)
	}

	now := v.now()
	leeway := cfg.Leeway

	exp := tok.Expiration()
	if exp.IsZero() {
		return nil, authErr(ReasonInvalidClaims, "token missing exp claim", nil)
	}
	if !now.Before(exp.Add(leeway)) {
		return nil, authErr(ReasonInvalidClaims, "token has expired", nil)
	}

	if iat := tok.IssuedAt(); !iat.IsZero() && iat.Add(-leeway).After(now) {
		return nil, authErr(ReasonInvalidClaims, "token issued in the future", nil)
	}
	if nbf := tok.NotBefore(); !nbf.IsZero() && nbf.Add(-leeway).After(now) {
		return nil, authErr(ReasonInvalidClaims, "token is not yet valid", nil)
	}

	if iss := tok.Issuer(); iss != cfg.IssuerURL() {
		return nil, authErr(ReasonInvalidClaims, fmt.Sprintf("token issuer mismatch: expected %s, got %s", cfg.IssuerURL(), iss), nil)
	}

	aud := tok.Audience()
	if len(aud) != 1 || aud[0] != cfg.Audience {
		return nil, authErr(ReasonInvalidClaims, fmt.Sprintf("token audience mismatch: expected %s", cfg.Audience), nil)
	}

	sub := tok.Subject()
	if sub == "" {
		return nil, authErr(ReasonInvalidClaims, "token missing sub (subject) claim", nil)
	}

	claims := &models.TokenClaims{
		Subject:    sub,
		Issuer:     tok.Issuer(),
		Audience:   aud[0],
		IssuedAt:   tok.IssuedAt(),
		Expiration: exp,
		NotBefore:  tok.NotBefore(),
	}

	if email, ok := tok.Get("email"); ok {
		if emailStr, ok := email.(string); ok {
			claims.Email = emailStr
		}
	}
	if verified, ok := tok.Get("email_verified"); ok {
		if verifiedBool, ok := verified.(bool); ok {
			claims.EmailVerified = verifiedBool
		}
	}
	if authTime, ok := tok.Get("auth_time"); ok {
		if seconds, ok := numericClaim(authTime); ok {
			claims.AuthTime = &seconds
		}
	}

	return claims, nil
}

// numericClaim converts a JSON numeric claim to Unix seconds. jwx decodes
// private claims as float64 but some paths yield int64.
func numericClaim(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}
