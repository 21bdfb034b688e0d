/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"net/http"

	"github.com/acronis/go-lookupcache/restapi"
)

// RequestBodyLimit rejects requests with a body larger than maxSizeBytes with 413 (Request Entity Too Large).
// A declared Content-Length is checked before the handler is called.
// A body without it (or with a false one) fails while the handler decodes it,
// restapi.DecodeRequestJSON reports it as the same 413 error.
func RequestBodyLimit(maxSizeBytes uint64, errDomain string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			if r.ContentLength > 0 && uint64(r.ContentLength) > maxSizeBytes {
				reqErr := restapi.NewTooLargeMalformedRequestError(maxSizeBytes)
				restapi.RespondMalformedRequestError(rw, errDomain, reqErr, GetLoggerFromContext(r.Context()))
				return
			}
			restapi.SetRequestMaxBodySize(rw, r, maxSizeBytes)
			next.ServeHTTP(rw, r)
		})
	}
}
