package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// NewCORS allows any origin to call the license API. Preflight requests are
// answered with 200 and never reach the handlers.
func NewCORS() *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:       []string{"*"},
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:       []string{"Content-Type", "Authorization"},
		OptionsSuccessStatus: http.StatusOK,
	})
}
