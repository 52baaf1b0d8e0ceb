package middleware

import (
	"net/http"
	"strings"
)

// RequireAdminToken validates a static operator token (ADMIN_TOKEN). It is separate from
// caller JWTs and guards operational endpoints such as the manual sweep trigger.
// Missing or mismatch → 403.
func RequireAdminToken(adminToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminToken == "" {
				respondWithError(w, http.StatusForbidden, "Forbidden", "Admin access not configured")
				return
			}
			authHeader := r.Header.Get("X-Admin-Token")
			if authHeader == "" {
				respondWithError(w, http.StatusForbidden, "Forbidden", "X-Admin-Token header required")
				return
			}
			if strings.TrimSpace(authHeader) != adminToken {
				respondWithError(w, http.StatusForbidden, "Forbidden", "Invalid admin token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
