package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/benvon/saas-core/internal/config"
)

const testProjectID = "test-project"

// testConfig returns a resolved configuration pointing at the given key
// endpoint. Built directly rather than through the environment so tests
// stay isolated.
func testConfig(endpoint string) *config.Config {
	return &config.Config{
		ProjectID:            testProjectID,
		Audience:             testProjectID,
		RequireEmailVerified: true,
		KeyCacheTTL:          config.DefaultKeyCacheTTL,
		Leeway:               config.DefaultLeeway,
		KeysEndpoint:         endpoint,
	}
}

// newSigningKey generates an RSA key pair as jwk keys, kid attached.
func newSigningKey(t *testing.T, kid string) (jwk.Key, jwk.Key) {
	t.Helper()

	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	priv, err := jwk.FromRaw(raw)
	if err != nil {
		t.Fatalf("failed to convert private key: %v", err)
	}
	if err := priv.Set(jwk.KeyIDKey, kid); err != nil {
		t.Fatalf("failed to set kid: %v", err)
	}
	if err := priv.Set(jwk.AlgorithmKey, jwa.RS256); err != nil {
		t.Fatalf("failed to set alg: %v", err)
	}
	pub, err := jwk.PublicKeyOf(priv)
	if err != nil {
		t.Fatalf("failed to derive public key: %v", err)
	}
	return priv, pub
}

// jwksBody serializes public keys as a standard JWKS document.
func jwksBody(t *testing.T, pubs ...jwk.Key) []byte {
	t.Helper()

	set := jwk.NewSet()
	for _, pub := range pubs {
		if err := set.AddKey(pub); err != nil {
			t.Fatalf("failed to add key to set: %v", err)
		}
	}
	body, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("failed to marshal JWKS: %v", err)
	}
	return body
}

// certMapBody serializes keys in Google's securetoken format: a flat JSON
// map of kid to self-signed X.509 certificate PEM.
func certMapBody(t *testing.T, keys map[string]*rsa.PrivateKey) []byte {
	t.Helper()

	certs := make(map[string]string, len(keys))
	for kid, key := range keys {
		tmpl := x509.Certificate{
			SerialNumber: big.NewInt(1),
			Subject:      pkix.Name{CommonName: "securetoken@system.gserviceaccount.com"},
			NotBefore:    time.Now().Add(-1 * time.Hour),
			NotAfter:     time.Now().Add(24 * time.Hour),
		}
		der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &key.PublicKey, key)
		if err != nil {
			t.Fatalf("failed to create certificate: %v", err)
		}
		certs[kid] = string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
	}
	body, err := json.Marshal(certs)
	if err != nil {
		t.Fatalf("failed to marshal certificate map: %v", err)
	}
	return body
}

// defaultClaims is the claim set for a valid test token. Callers
// override entries or set them to nil to drop the claim.
func defaultClaims() map[string]any {
	now := time.Now()
	return map[string]any{
		"iss":            "https://securetoken.google.com/" + testProjectID,
		"aud":            testProjectID,
		"sub":            "user-123",
		"email":          "user@example.com",
		"email_verified": true,
		"iat":            now.Add(-1 * time.Minute),
		"exp":            now.Add(1 * time.Hour),
		"auth_time":      now.Add(-1 * time.Minute).Unix(),
	}
}

// signToken builds and signs a token with the given claims.
func signToken(t *testing.T, priv jwk.Key, claims map[string]any) string {
	t.Helper()

	builder := jwt.NewBuilder()
	for name, value := range claims {
		if value == nil {
			continue
		}
		builder.Claim(name, value)
	}
	tok, err := builder.Build()
	if err != nil {
		t.Fatalf("failed to build token: %v", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256, priv))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return string(signed)
}
