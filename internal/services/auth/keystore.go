package auth

import (
	"context"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/pquerna/cachecontrol"
	"golang.org/x/sync/singleflight"
)

// keySnapshot is an immutable view of the provider's signing keys. Refresh
// replaces the whole snapshot atomically; readers never observe a
// half-updated key set.
type keySnapshot struct {
	keys      map[string]jwk.Key
	fetchedAt time.Time
	expires   time.Time
}

// KeyStore fetches and caches the identity provider's public signing keys.
// Reads are lock-free; concurrent refreshes collapse into a single in-flight
// fetch so a cache expiry under load produces one outbound request.
type KeyStore struct {
	endpoint string
	ttl      time.Duration
	client   *http.Client
	now      func() time.Time

	snapshot atomic.Pointer[keySnapshot]
	group    singleflight.Group
}

// KeyStoreOption configures a KeyStore.
type KeyStoreOption func(*KeyStore)

// WithHTTPClient overrides the HTTP client used for key fetches.
func WithHTTPClient(client *http.Client) KeyStoreOption {
	return func(s *KeyStore) { s.client = client }
}

// WithClock overrides the time source. Used in tests to exercise TTL expiry.
func WithClock(now func() time.Time) KeyStoreOption {
	return func(s *KeyStore) { s.now = now }
}

// NewKeyStore creates a key store for the given endpoint. The TTL is a
// ceiling on key reuse; a missing key id forces a refresh before it elapses
// because rotation can introduce new key ids at any time.
func NewKeyStore(endpoint string, ttl time.Duration, opts ...KeyStoreOption) *KeyStore {
	s := &KeyStore{
		endpoint: endpoint,
		ttl:      ttl,
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the public key for keyID, refreshing the cached set if it has
// expired or does not contain keyID. If the refresh fails but a previously
// cached set still holds keyID, the stale key is served rather than
// hard-failing; a keyID absent from a successfully refreshed set is a
// genuinely unknown key and always fails.
func (s *KeyStore) Key(ctx context.Context, keyID string) (jwk.Key, error) {
	snap := s.snapshot.Load()
	if snap != nil && s.now().Before(snap.expires) {
		if key, ok := snap.keys[keyID]; ok {
			return key, nil
		}
	}

	fresh, err := s.refresh(ctx)
	if err != nil {
		if snap != nil {
			if key, ok := snap.keys[keyID]; ok {
				return key, nil
			}
		}
		return nil, authErr(ReasonKeySetUnavailable, "could not fetch signing keys", err)
	}

	if key, ok := fresh.keys[keyID]; ok {
		return key, nil
	}
	return nil, authErr(ReasonUnknownKey, fmt.Sprintf("no signing key with id %q", keyID), nil)
}

// Keys returns all currently cached keys, fetching a set first if none is
// cached or the cache has expired.
func (s *KeyStore) Keys(ctx context.Context) (map[string]jwk.Key, error) {
	snap := s.snapshot.Load()
	if snap == nil || !s.now().Before(snap.expires) {
		var err error
		snap, err = s.refresh(ctx)
		if err != nil {
			return nil, authErr(ReasonKeySetUnavailable, "could not fetch signing keys", err)
		}
	}
	return snap.keys, nil
}

// Reset discards the cached key set. The next lookup fetches a fresh one.
func (s *KeyStore) Reset() {
	s.snapshot.Store(nil)
}

// refresh coalesces concurrent refresh attempts into one fetch; every
// concurrent caller observes the same resulting snapshot or the same error.
func (s *KeyStore) refresh(ctx context.Context) (*keySnapshot, error) {
	v, err, _ := s.group.Do("refresh", func() (any, error) {
		snap, err := s.fetch(ctx)
		if err != nil {
			return nil, err
		}
		s.snapshot.Store(snap)
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*keySnapshot), nil
}

func (s *KeyStore) fetch(ctx context.Context) (*keySnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create key request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch signing keys: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("key endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read key response: %w", err)
	}

	keys, err := parseKeyResponse(body)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expires := now.Add(s.ttl)
	// Honor an explicit Cache-Control freshness lifetime when it is shorter
	// than the configured TTL.
	if _, ccExpires, ccErr := cachecontrol.CachableResponse(req, resp, cachecontrol.Options{}); ccErr == nil {
		if !ccExpires.IsZero() && ccExpires.After(now) && ccExpires.Before(expires) {
			expires = ccExpires
		}
	}

	return &keySnapshot{keys: keys, fetchedAt: now, expires: expires}, nil
}

// parseKeyResponse accepts either a standard JWKS document or Google's
// securetoken format, a flat JSON map of key id to X.509 certificate PEM.
func parseKeyResponse(body []byte) (map[string]jwk.Key, error) {
	keys := make(map[string]jwk.Key)

	var probe struct {
		Keys []json.RawMessage `json:"keys"`
	}
	if err := json.Unmarshal(body, &probe); err == nil && len(probe.Keys) > 0 {
		set, err := jwk.Parse(body)
		if err != nil {
			return nil, fmt.Errorf("failed to parse JWKS: %w", err)
		}
		for i := 0; i < set.Len(); i++ {
			key, ok := set.Key(i)
			if !ok || key.KeyID() == "" {
				continue
			}
			keys[key.KeyID()] = key
		}
	} else {
		var certs map[string]string
		if err := json.Unmarshal(body, &certs); err != nil {
			return nil, fmt.Errorf("key response is neither a JWKS nor a certificate map: %w", err)
		}
		for kid, certPEM := range certs {
			key, err := certToKey(kid, certPEM)
			if err != nil {
				// Skip unparsable entries; a partially bad response should
				// not take down the keys that did parse.
				continue
			}
			keys[kid] = key
		}
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("key response contained no usable keys")
	}
	return keys, nil
}

func certToKey(kid, certPEM string) (jwk.Key, error) {
	block, _ := pem.Decode([]byte(certPEM))
	if block == nil {
		return nil, fmt.Errorf("no PEM block in certificate for key %q", kid)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate for key %q: %w", kid, err)
	}
	key, err := jwk.FromRaw(cert.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to convert public key for key %q: %w", kid, err)
	}
	if err := key.Set(jwk.KeyIDKey, kid); err != nil {
		return nil, err
	}
	return key, nil
}
