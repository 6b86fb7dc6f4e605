package requestid

import (
	"context"
	"net/http"
)

// Header is the HTTP header carrying the request ID between hops.
const Header = "X-Request-ID"

type ctxKey struct{}

// NewContext returns a context that carries the given request ID.
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the request ID stored in ctx, or an empty string.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Propagate copies the request ID from ctx onto an outgoing header set unless
// the header already carries one.
func Propagate(ctx context.Context, h http.Header) {
	if h.Get(Header) != "" {
		return
	}
	if id := FromContext(ctx); id != "" {
		h.Set(Header, id)
	}
}
