package middleware

import (
	"net/http"

	"github.com/ealicense/license-server-go/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, httputil.ErrorResponse{Message: message})
}
