/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"net/http"

	"github.com/rs/xid"
)

const (
	headerRequestID         = "X-Request-ID"
	headerInternalRequestID = "X-Int-Request-ID"
)

// RequestIDOpts configures ID generation of the RequestID middleware. xid is used for nil generators.
type RequestIDOpts struct {
	GenerateID         func() string
	GenerateInternalID func() string
}

func newXID() string {
	return xid.New().String()
}

// RequestID is a middleware that assigns two IDs to each request.
// The external one is taken from the X-Request-ID header or generated if the header is empty,
// so it may be propagated by clients. The internal one is always generated.
// Both are put into the request context and echoed in the X-Request-ID and X-Int-Request-ID response headers.
func RequestID() func(next http.Handler) http.Handler {
	return RequestIDWithOpts(RequestIDOpts{})
}

// RequestIDWithOpts is RequestID with custom ID generators.
func RequestIDWithOpts(opts RequestIDOpts) func(next http.Handler) http.Handler {
	if opts.GenerateID == nil {
		opts.GenerateID = newXID
	}
	if opts.GenerateInternalID == nil {
		opts.GenerateInternalID = newXID
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(headerRequestID)
			if requestID == "" {
				requestID = opts.GenerateID()
			}
			internalRequestID := opts.GenerateInternalID()

			rw.Header().Set(headerRequestID, requestID)
			rw.Header().Set(headerInternalRequestID, internalRequestID)
			ctx := NewContextWithInternalRequestID(NewContextWithRequestID(r.Context(), requestID), internalRequestID)
			next.ServeHTTP(rw, r.WithContext(ctx))
		})
	}
}
