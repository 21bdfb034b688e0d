/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/acronis/go-lookupcache/log"
	"github.com/acronis/go-lookupcache/restapi"
)

// RecoveryDefaultStackSize is the default number of bytes of the goroutine stack that are logged on panic.
const RecoveryDefaultStackSize = 8192

// RecoveryOpts configures the Recovery middleware. Zero StackSize disables stack logging.
type RecoveryOpts struct {
	StackSize int
}

// Recovery is a middleware that turns a panic in the handler into the 500 internal error of errDomain.
// The panic value and the stack are logged with the request-scoped logger.
func Recovery(errDomain string) func(next http.Handler) http.Handler {
	return RecoveryWithOpts(errDomain, RecoveryOpts{StackSize: RecoveryDefaultStackSize})
}

// RecoveryWithOpts is Recovery with custom options.
func RecoveryWithOpts(errDomain string, opts RecoveryOpts) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					handlePanic(rw, r, p, errDomain, opts.StackSize)
				}
			}()
			next.ServeHTTP(rw, r)
		})
	}
}

func handlePanic(rw http.ResponseWriter, r *http.Request, p interface{}, errDomain string, stackSize int) {
	logger := GetLoggerFromContext(r.Context())

	// http.ErrAbortHandler is the sentinel used to abort the response.
	// net/http suppresses its stack, so it is only noted and passed on.
	if p == http.ErrAbortHandler { //nolint:errorlint
		if logger != nil {
			logger.Warn("request has been aborted", log.Error(http.ErrAbortHandler))
		}
		panic(p)
	}

	if logger != nil {
		var fields []log.Field
		if stackSize > 0 {
			stack := make([]byte, stackSize)
			fields = append(fields, log.Bytes("stack", stack[:runtime.Stack(stack, false)]))
		}
		logger.Error(fmt.Sprintf("Panic: %+v", p), fields...)
	}
	restapi.RespondError(rw, http.StatusInternalServerError, restapi.NewInternalError(errDomain), logger)
}
