package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// AnyOrigin allows every browser origin, without credentials.
const AnyOrigin = "*"

// CORS lets browser code on origin call the wrapped handler. A single origin
// may send credentials; AnyOrigin may not. An empty origin disables CORS.
// Preflight requests are answered directly.
func CORS(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		return func(next http.Handler) http.Handler { return next }
	}
	c := cors.New(cors.Options{
		AllowedOrigins: []string{origin},
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:       []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:       []string{"Content-Length", "X-Request-ID"},
		AllowCredentials:     origin != AnyOrigin,
		MaxAge:               600,
		OptionsSuccessStatus: http.StatusNoContent,
	})
	return c.Handler
}
