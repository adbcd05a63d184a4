package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ealicense/license-server-go/internal/audit"
	"github.com/ealicense/license-server-go/internal/util"
)

// AdminAuthMiddleware guards the admin API with a shared password compared
// against a bcrypt hash. An empty hash leaves the API open.
type AdminAuthMiddleware struct {
	passwordHash string
}

func NewAdminAuthMiddleware(passwordHash string) *AdminAuthMiddleware {
	if passwordHash == "" {
		log.Warn().Msg("ADMIN_PASSWORD_HASH not set, admin API is unauthenticated")
	}
	return &AdminAuthMiddleware{passwordHash: passwordHash}
}

func (m *AdminAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.passwordHash == "" || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token := extractToken(r)
		if token == "" {
			writeFailure(w, http.StatusUnauthorized, "Missing authentication token")
			return
		}

		if !util.CheckPasswordHash(token, m.passwordHash) {
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventAuthFailure,
				Details: map[string]interface{}{"path": r.URL.Path},
			})
			writeFailure(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}
