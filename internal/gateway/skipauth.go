package gateway

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// SkipAuthHeader marks a request that must be sent without credentials, such as
// login and signup. It is interpreted and removed by Transport.
const SkipAuthHeader = "skipAuth"

type skipAuthKey struct{}

// WithSkipAuth returns a context marking requests made with it as skip-auth.
func WithSkipAuth(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipAuthKey{}, true)
}

// stripSkipAuth removes every spelling of the skip-auth header from h and
// reports whether the request opted out of authentication.
func stripSkipAuth(ctx context.Context, h http.Header) bool {
	skip, _ := ctx.Value(skipAuthKey{}).(bool)

	for key, values := range h {
		if !strings.EqualFold(key, SkipAuthHeader) {
			continue
		}
		for _, v := range values {
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil && b {
				skip = true
			}
		}
		delete(h, key)
	}

	return skip
}
