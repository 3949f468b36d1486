// Package requestid assigns every request an ID and carries it through the
// context, so one generation run can be followed across handler, pipeline,
// and notifier logs.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Header is the request and response header carrying the ID.
const Header = "X-Request-ID"

type ctxKey struct{}

// ID returns the request ID, or "" outside a request.
func ID(ctx context.Context) string {
	v, _ := ctx.Value(ctxKey{}).(string)
	return v
}

// NewContext returns a context carrying the given request ID.
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// NewHandler propagates an incoming X-Request-ID or generates a UUID when
// the client sent none. The ID is echoed on the response so the wizard can
// show it alongside failures.
func NewHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = uuid.New().String()
		}

		// クライアント側でも追跡できるようレスポンスに載せる
		w.Header().Set(Header, id)

		ctx := NewContext(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
