package telemetry

import (
	"crypto/subtle"
	"net/http"
)

// AdminTokenHeader carries the admin token on flag and metrics requests.
const AdminTokenHeader = "X-Admin-Token"

// requireAdminToken rejects requests whose token header does not match the
// configured token. The comparison is constant time so the token cannot be
// recovered byte by byte from response timing. An empty configured token
// disables the check.
func requireAdminToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" {
				presented := r.Header.Get(AdminTokenHeader)
				if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
					respondError(w, http.StatusUnauthorized, "invalid admin token")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
