package models

import "time"

// IdentityRecord is the normalized result of a successful token verification.
// It is a plain value; callers may copy it freely.
type IdentityRecord struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	AuthTime      *int64 `json:"auth_time,omitempty"` // Unix seconds, if the token carried auth_time
}

// TokenClaims is the parsed payload of an identity token. It exists only for
// the duration of a single verification call.
type TokenClaims struct {
	Subject       string    `json:"sub"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	Issuer        string    `json:"iss"`
	Audience      string    `json:"aud"`
	IssuedAt      time.Time `json:"iat"`
	Expiration    time.Time `json:"exp"`
	NotBefore     time.Time `json:"nbf,omitempty"`
	AuthTime      *int64    `json:"auth_time,omitempty"`
}
