package handlers

import (
	"net/http"
	"time"
)

// Health is the public liveness endpoint.
func Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Root is the public index, listing the example endpoints.
func Root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "saas-core backend example",
		"status":  "running",
		"endpoints": map[string]string{
			"public":    "/",
			"health":    "/healthz",
			"protected": "/api/protected",
			"profile":   "/api/user/profile",
		},
	})
}
