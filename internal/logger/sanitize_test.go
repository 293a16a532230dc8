package logger

import (
	"errors"
	"strings"
	"testing"
)

func TestTokenPreview(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{name: "empty", token: "", want: ""},
		{name: "short token fully redacted", token: "abc", want: "..."},
		{name: "long token keeps prefix only", token: "eyJhbGciOiJSUzI1NiJ9.payload.signature", want: "eyJhbGci..."},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := TokenPreview(tt.token)
			if got != tt.want {
				t.Errorf("TokenPreview(%q) = %q, want %q", tt.token, got, tt.want)
			}
			if len(tt.token) > 20 && strings.Contains(got, tt.token[10:]) {
				t.Error("TokenPreview leaked token body")
			}
		})
	}
}

func TestSanitizeString(t *testing.T) {
	t.Parallel()

	got := SanitizeString("line1\nline2\x00evil", 100)
	if strings.ContainsAny(got, "\n\x00") {
		t.Errorf("Expected control characters removed, got %q", got)
	}

	long := strings.Repeat("a", 50)
	got = SanitizeString(long, 10)
	if got != strings.Repeat("a", 10)+"..." {
		t.Errorf("Expected truncation to 10 chars, got %q", got)
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	if SanitizeError(nil) != "" {
		t.Error("Expected empty string for nil error")
	}
	if SanitizeError(errors.New("bad\nthing")) != "badthing" {
		t.Errorf("Expected newline stripped, got %q", SanitizeError(errors.New("bad\nthing")))
	}
}
