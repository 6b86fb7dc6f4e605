package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/Bahjat/living-memory/internal/platform/errs"
	"github.com/Bahjat/living-memory/internal/platform/requestid"
)

// Recover converts a panicking handler into a server_error response in the
// wire error format and logs the stack.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("handler panicked",
					"panic", fmt.Sprint(rec),
					"path", r.URL.Path,
					"request_id", requestid.FromContext(r.Context()),
					"stack", string(debug.Stack()),
				)

				body, _ := json.Marshal(errs.NewServerError("An unexpected error occurred.").Wire())
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write(body)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// Chain applies middlewares so the first one listed is the outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
