package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAdminAuthMiddleware(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name   string
		hash   string
		method string
		header string
		want   int
	}{
		{"open when no hash configured", "", http.MethodGet, "", http.StatusOK},
		{"missing token", string(hash), http.MethodGet, "", http.StatusUnauthorized},
		{"non bearer scheme", string(hash), http.MethodGet, "Basic s3cret", http.StatusUnauthorized},
		{"wrong password", string(hash), http.MethodPost, "Bearer nope", http.StatusUnauthorized},
		{"correct password", string(hash), http.MethodPost, "Bearer s3cret", http.StatusOK},
		{"preflight skips auth", string(hash), http.MethodOptions, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAdminAuthMiddleware(tt.hash).Handler(okHandler())

			req := httptest.NewRequest(tt.method, "/api/admin/dashboard", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.JSONEq(t, `{"success":false,"message":"`+failureMessage(tt.header)+`"}`, rec.Body.String())
			}
		})
	}
}

func failureMessage(header string) string {
	if extractToken(&http.Request{Header: http.Header{"Authorization": []string{header}}}) == "" {
		return "Missing authentication token"
	}
	return "Invalid credentials"
}
