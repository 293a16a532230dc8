package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxErrorMessageLength caps error messages in logs.
	MaxErrorMessageLength = 1000
	// MaxUserIDLength caps user ids in logs.
	MaxUserIDLength = 128
	// tokenPreviewLength is how much of a bearer token may ever appear in a
	// log line. Enough to correlate, never enough to replay.
	tokenPreviewLength = 8
)

// TokenPreview redacts a bearer token for logging. Token contents are never
// logged in full.
func TokenPreview(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= tokenPreviewLength {
		return "..."
	}
	return token[:tokenPreviewLength] + "..."
}

// SanitizeError sanitizes an error message for safe logging.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

// SanitizeUserID sanitizes a user id for safe logging.
func SanitizeUserID(userID string) string {
	return SanitizeString(userID, MaxUserIDLength)
}

// SanitizeString validates UTF-8, strips control characters to prevent log
// injection, and truncates to maxLength.
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	var builder strings.Builder
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' {
			builder.WriteRune(r)
		}
	}
	s = builder.String()
	if len(s) > maxLength {
		s = s[:maxLength] + "..."
	}
	return s
}
