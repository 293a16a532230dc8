package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultKeysEndpoint is Google's public signing-key endpoint for tokens
// issued by Identity Platform / Firebase Authentication. The response is a
// JSON map of key id to X.509 certificate PEM.
const DefaultKeysEndpoint = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

const (
	// DefaultKeyCacheTTL bounds how long fetched signing keys are reused.
	DefaultKeyCacheTTL = 1 * time.Hour
	// DefaultLeeway is the clock-skew tolerance for time-bound claims.
	DefaultLeeway = 60 * time.Second
)

// ConfigurationError indicates missing or invalid environment configuration.
// It is fatal at startup and never retried.
type ConfigurationError struct {
	msg string
	err error
}

func (e *ConfigurationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.msg, e.err)
	}
	return fmt.Sprintf("configuration error: %s", e.msg)
}

func (e *ConfigurationError) Unwrap() error { return e.err }

func configErr(msg string, err error) *ConfigurationError {
	return &ConfigurationError{msg: msg, err: err}
}

// ServiceAccount is the subset of a Google service-account credentials
// document that the verifier needs. The full document carries private key
// material; it is parsed but never logged or persisted.
type ServiceAccount struct {
	Type        string `json:"type" validate:"required,eq=service_account"`
	ProjectID   string `json:"project_id" validate:"required"`
	ClientEmail string `json:"client_email" validate:"omitempty,email"`
}

// Config holds the resolved verification configuration. It is constructed
// once by Load and read-only afterwards.
type Config struct {
	ProjectID            string
	Audience             string
	RequireEmailVerified bool
	KeyCacheTTL          time.Duration
	Leeway               time.Duration
	KeysEndpoint         string

	// Example server settings (not used by the verification core).
	ServerPort   string
	FrontendURL  string
	EnableHSTS   bool
	DebugMode    bool
	OTELEnabled  bool
	OTELEndpoint string
}

// IssuerURL returns the exact issuer expected in verified tokens.
func (c *Config) IssuerURL() string {
	return "https://securetoken.google.com/" + c.ProjectID
}

// Load resolves configuration from SAAS_CORE_-prefixed environment
// variables. Exactly one credential source is used, by precedence:
// inline credentials JSON, then a credentials file path, then a bare
// project id. Load fails with ConfigurationError if none is present.
func Load() (*Config, error) {
	projectID, err := resolveProjectID()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ProjectID:    projectID,
		Audience:     getEnv("SAAS_CORE_AUDIENCE", projectID),
		KeysEndpoint: getEnv("SAAS_CORE_JWKS_ENDPOINT", DefaultKeysEndpoint),
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:3000"),
		OTELEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	cfg.RequireEmailVerified, err = getEnvBoolStrict("SAAS_CORE_REQUIRE_EMAIL_VERIFIED", true)
	if err != nil {
		return nil, err
	}
	cfg.EnableHSTS, err = getEnvBoolStrict("ENABLE_HSTS", false)
	if err != nil {
		return nil, err
	}
	cfg.DebugMode, err = getEnvBoolStrict("SERVER_DEBUG_MODE", false)
	if err != nil {
		return nil, err
	}
	cfg.OTELEnabled, err = getEnvBoolStrict("OTEL_ENABLED", false)
	if err != nil {
		return nil, err
	}

	cfg.KeyCacheTTL, err = getEnvSeconds("SAAS_CORE_JWKS_CACHE_TTL", DefaultKeyCacheTTL)
	if err != nil {
		return nil, err
	}
	cfg.Leeway, err = getEnvSeconds("SAAS_CORE_JWT_LEEWAY", DefaultLeeway)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveProjectID picks the first present credential source and extracts
// the project id from it.
func resolveProjectID() (string, error) {
	if raw := os.Getenv("SAAS_CORE_FIREBASE_CREDENTIALS_JSON"); raw != "" {
		sa, err := parseServiceAccount([]byte(raw))
		if err != nil {
			return "", configErr("SAAS_CORE_FIREBASE_CREDENTIALS_JSON", err)
		}
		return sa.ProjectID, nil
	}

	if path := os.Getenv("SAAS_CORE_FIREBASE_CREDENTIALS_PATH"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", configErr("reading SAAS_CORE_FIREBASE_CREDENTIALS_PATH", err)
		}
		sa, err := parseServiceAccount(raw)
		if err != nil {
			return "", configErr(fmt.Sprintf("SAAS_CORE_FIREBASE_CREDENTIALS_PATH (%s)", path), err)
		}
		return sa.ProjectID, nil
	}

	if projectID := os.Getenv("SAAS_CORE_GOOGLE_PROJECT_ID"); projectID != "" {
		return projectID, nil
	}

	return "", configErr(
		"one of SAAS_CORE_FIREBASE_CREDENTIALS_JSON, SAAS_CORE_FIREBASE_CREDENTIALS_PATH, or SAAS_CORE_GOOGLE_PROJECT_ID must be set",
		nil,
	)
}

func parseServiceAccount(raw []byte) (*ServiceAccount, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return nil, fmt.Errorf("credentials are not valid JSON: %w", err)
	}
	if err := validator.New().Struct(&sa); err != nil {
		return nil, fmt.Errorf("credentials are not a valid service account document: %w", err)
	}
	return &sa, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBoolStrict parses boolean-like values. Unrecognized values are a
// configuration error rather than a silent default.
func getEnvBoolStrict(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, configErr(fmt.Sprintf("%s must be a boolean-like value, got %q", key, value), nil)
}

func getEnvSeconds(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return 0, configErr(fmt.Sprintf("%s must be a positive integer of seconds, got %q", key, value), nil)
	}
	return time.Duration(seconds) * time.Second, nil
}
