package handler

import (
	"net/http"

	"github.com/ealicense/license-server-go/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// checkinFailure is what the EA receives when the server cannot decide.
type checkinFailure struct {
	Valid   bool   `json:"valid"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, httputil.ErrorResponse{Message: "Method not allowed"})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, httputil.ErrorResponse{Message: "Not found"})
}

func passThrough(next http.Handler) http.Handler {
	return next
}
