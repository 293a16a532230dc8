package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.uber.org/zap"

	"github.com/benvon/saas-core/internal/config"
	"github.com/benvon/saas-core/internal/models"
	"github.com/benvon/saas-core/internal/services/auth"
)

// authFixture wires a verifier against a fake key endpoint and returns a
// token signer for it.
type authFixture struct {
	verifier *auth.Verifier
	sign     func(t *testing.T, claims map[string]any) string
	close    func()
}

func newAuthFixture(t *testing.T, requireEmailVerified bool) *authFixture {
	t.Helper()

	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	priv, err := jwk.FromRaw(raw)
	if err != nil {
		t.Fatalf("failed to convert key: %v", err)
	}
	if err := priv.Set(jwk.KeyIDKey, "test-key"); err != nil {
		t.Fatalf("failed to set kid: %v", err)
	}
	pub, err := jwk.PublicKeyOf(priv)
	if err != nil {
		t.Fatalf("failed to derive public key: %v", err)
	}
	set := jwk.NewSet()
	if err := set.AddKey(pub); err != nil {
		t.Fatalf("failed to build key set: %v", err)
	}
	body, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("failed to marshal key set: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))

	cfg := &config.Config{
		ProjectID:            "mw-project",
		Audience:             "mw-project",
		RequireEmailVerified: requireEmailVerified,
		KeyCacheTTL:          time.Hour,
		Leeway:               60 * time.Second,
		KeysEndpoint:         server.URL,
	}

	sign := func(t *testing.T, claims map[string]any) string {
		t.Helper()
		builder := jwt.NewBuilder().
			Issuer("https://securetoken.google.com/mw-project").
			Audience([]string{"mw-project"}).
			Subject("user-42").
			IssuedAt(time.Now().Add(-1*time.Minute)).
			Expiration(time.Now().Add(1*time.Hour)).
			Claim("email", "user@example.com").
			Claim("email_verified", true)
		for name, value := range claims {
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

	return &authFixture{
		verifier: auth.NewVerifier(cfg),
		sign:     sign,
		close:    server.Close,
	}
}

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	fixture := newAuthFixture(t, true)
	defer fixture.close()

	var gotIdentity *models.IdentityRecord
	handler := Auth(fixture.verifier, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIdentity = IdentityFromContext(r)
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{
			name:       "missing header",
			header:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			header:     "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "garbage token",
			header:     "Bearer not-a-token",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid token",
			header:     "Bearer " + fixture.sign(t, nil),
			wantStatus: http.StatusOK,
		},
		{
			name:       "unverified email",
			header:     "Bearer " + fixture.sign(t, map[string]any{"email_verified": false}),
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "expired token",
			header:     "Bearer " + fixture.sign(t, map[string]any{"exp": time.Now().Add(-2 * time.Hour)}),
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotIdentity = nil
			req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d (body: %s)", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				if gotIdentity == nil {
					t.Fatal("Expected identity in context")
				}
				if gotIdentity.UID != "user-42" {
					t.Errorf("Expected uid user-42, got %q", gotIdentity.UID)
				}
			} else if gotIdentity != nil {
				t.Error("Handler must not run with an identity on failure")
			}
		})
	}
}

func TestIdentityFromContextAbsent(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if identity := IdentityFromContext(req); identity != nil {
		t.Errorf("Expected nil identity, got %+v", identity)
	}
}
