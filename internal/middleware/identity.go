// Package middleware ...
package middleware

import (
	"context"
	"net/http"
)

// IdentityHeader carries the opaque caller key resolved by the external
// identity provider. The service trusts it per call and performs no
// authentication itself.
const IdentityHeader = "X-Chainfeed-Identity"

type callerKey struct{}

// Identity extracts the caller key from the identity header and stores it on
// the request context.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if caller := r.Header.Get(IdentityHeader); caller != "" {
			r = r.WithContext(context.WithValue(r.Context(), callerKey{}, caller))
		}

		next.ServeHTTP(w, r)
	})
}

// Caller returns the caller key resolved for the request, if any.
func Caller(ctx context.Context) (string, bool) {
	caller, ok := ctx.Value(callerKey{}).(string)
	return caller, ok
}
