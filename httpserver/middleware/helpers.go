/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"net"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

const (
	headerForwardedFor = "X-Forwarded-For"
	headerRealIP       = "X-Real-IP"
)

// RoutePatternGetterFunc is a function for getting route pattern from the request.
// Usually it depends on the router that is used in HTTP server (e.g. httpserver.GetChiRoutePattern).
type RoutePatternGetterFunc func(r *http.Request) string

// WrapResponseWriter is a proxy around http.ResponseWriter that allows to get the status code
// and the number of written bytes after the handler is finished.
type WrapResponseWriter = chimiddleware.WrapResponseWriter

// WrapResponseWriterIfNeeded wraps an http.ResponseWriter (if it is not already wrapped).
func WrapResponseWriterIfNeeded(rw http.ResponseWriter, protoMajor int) WrapResponseWriter {
	if wrw, ok := rw.(WrapResponseWriter); ok {
		return wrw
	}
	return chimiddleware.NewWrapResponseWriter(rw, protoMajor)
}

// getOriginAddr returns the client address passed by the proxy (if any).
func getOriginAddr(r *http.Request) string {
	if forwardFor := r.Header.Get(headerForwardedFor); forwardFor != "" {
		if first := strings.IndexByte(forwardFor, ','); first != -1 {
			forwardFor = forwardFor[:first]
		}
		return strings.TrimSpace(forwardFor)
	}
	return strings.TrimSpace(r.Header.Get(headerRealIP))
}

// GetClientIP returns IP of the client.
// The address passed by the proxy in X-Forwarded-For or X-Real-IP headers takes precedence over the remote address.
func GetClientIP(r *http.Request) string {
	if originAddr := getOriginAddr(r); originAddr != "" {
		return originAddr
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func isEndpointExcluded(urlPath string, endpoints []string) bool {
	for _, endpoint := range endpoints {
		if urlPath == endpoint {
			return true
		}
	}
	return false
}

// responseStatus returns the status code written by the handler, 200 is implied if nothing was written.
func responseStatus(wrw WrapResponseWriter) int {
	if status := wrw.Status(); status != 0 {
		return status
	}
	return http.StatusOK
}
