package auth

import (
	"errors"
	"fmt"
)

// Reason identifies the internal cause of an authentication failure. Callers
// see a single AuthenticationError kind; the reason exists for logs and
// metrics so validation internals are not leaked to clients.
type Reason string

const (
	// ReasonMalformedToken: the token is not structurally a signed JWT.
	ReasonMalformedToken Reason = "malformed_token"
	// ReasonUnsupportedAlgorithm: the token header requests anything other
	// than RS256. Rejected outright to prevent algorithm-confusion attacks.
	ReasonUnsupportedAlgorithm Reason = "unsupported_algorithm"
	// ReasonInvalidSignature: signature does not verify against the key
	// matching the token's kid.
	ReasonInvalidSignature Reason = "invalid_signature"
	// ReasonInvalidClaims: a semantic claim check failed (time bounds,
	// issuer, audience, or subject).
	ReasonInvalidClaims Reason = "invalid_claims"
	// ReasonUnknownKey: the token's kid is absent even after a refresh of
	// the provider's key set.
	ReasonUnknownKey Reason = "unknown_key"
	// ReasonKeySetUnavailable: the key endpoint is unreachable or
	// unparsable and no cached key set can serve the request. Indicates
	// infrastructure trouble rather than a bad token.
	ReasonKeySetUnavailable Reason = "keyset_unavailable"
)

// AuthenticationError is the public failure kind for any token that does not
// verify. The Reason distinguishes causes internally.
type AuthenticationError struct {
	Reason  Reason
	Message string
	Err     error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed (%s): %s: %v", e.Reason, e.Message, e.Err)
	}
	return fmt.Sprintf("authentication failed (%s): %s", e.Reason, e.Message)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

func authErr(reason Reason, message string, err error) *AuthenticationError {
	return &AuthenticationError{Reason: reason, Message: message, Err: err}
}

// EmailNotVerifiedError is returned when a token is cryptographically valid
// but the configured email-verification policy rejects it. Callers typically
// map this to a different HTTP status than AuthenticationError.
type EmailNotVerifiedError struct {
	Email string
}

func (e *EmailNotVerifiedError) Error() string {
	return "email verification is required but email is not verified"
}

// IsAuthenticationError reports whether err is (or wraps) an
// AuthenticationError.
func IsAuthenticationError(err error) bool {
	var authError *AuthenticationError
	return errors.As(err, &authError)
}

// IsEmailNotVerified reports whether err is (or wraps) an
// EmailNotVerifiedError.
func IsEmailNotVerified(err error) bool {
	var policyErr *EmailNotVerifiedError
	return errors.As(err, &policyErr)
}

// FailureReason extracts the internal reason from an authentication error,
// or "" if err is not one.
func FailureReason(err error) Reason {
	var authError *AuthenticationError
	if errors.As(err, &authError) {
		return authError.Reason
	}
	return ""
}

// IsKeySetUnavailable reports whether err indicates the signing-key endpoint
// could not serve a usable key set. Worth logging distinctly: it signals
// infrastructure trouble, not a bad token.
func IsKeySetUnavailable(err error) bool {
	return FailureReason(err) == ReasonKeySetUnavailable
}
