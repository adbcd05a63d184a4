package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name      string
		hops      int
		forwarded []string
		want      string
	}{
		{"no header keeps peer", 1, nil, "10.0.0.1:4000"},
		{"single proxy entry", 1, []string{"203.0.113.7"}, "203.0.113.7"},
		{"client prefix ignored", 1, []string{"1.2.3.4, 203.0.113.7"}, "203.0.113.7"},
		{"repeated headers are joined", 1, []string{"1.2.3.4", "203.0.113.7"}, "203.0.113.7"},
		{"two proxies", 2, []string{"1.2.3.4, 203.0.113.7, 10.0.0.9"}, "203.0.113.7"},
		{"fewer entries than hops", 2, []string{"203.0.113.7"}, "10.0.0.1:4000"},
		{"zero hops never trusts header", 0, []string{"203.0.113.7"}, "10.0.0.1:4000"},
		{"garbage entry keeps peer", 1, []string{"not-an-ip"}, "10.0.0.1:4000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			handler := TrustedRealIP(tt.hops)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/auto-register", nil)
			req.RemoteAddr = "10.0.0.1:4000"
			for _, v := range tt.forwarded {
				req.Header.Add("X-Forwarded-For", v)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.want, got)
		})
	}
}
