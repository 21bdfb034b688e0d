/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/vasayxtx/go-glob"

	"github.com/acronis/go-lookupcache/internal/ratelimit"
	"github.com/acronis/go-lookupcache/log"
	"github.com/acronis/go-lookupcache/restapi"
)

// DefaultRateLimitMaxKeys is a default value of maximum keys number for the RateLimit middleware.
const DefaultRateLimitMaxKeys = 10000

// RateLimitErrCode is an error code that is used in a response body
// if the request is rejected by the middleware that limits the rate of HTTP requests.
const RateLimitErrCode = "tooManyRequests"

// RateLimitLogFieldKey it is the name of the logged field that contains a key for the requests rate limiter.
const RateLimitLogFieldKey = "rate_limit_key"

// Rate describes the frequency of requests.
type Rate = ratelimit.Rate

// RateLimitAlg represents a type for specifying rate-limiting algorithm.
type RateLimitAlg = ratelimit.Alg

// Supported rate-limiting algorithms.
const (
	RateLimitAlgLeakyBucket   = ratelimit.AlgLeakyBucket
	RateLimitAlgSlidingWindow = ratelimit.AlgSlidingWindow
)

// RateLimitGetKeyFunc is a function that is called for getting key for rate limiting.
// If bypass is true, the request is not limited at all.
type RateLimitGetKeyFunc func(r *http.Request) (key string, bypass bool, err error)

// RateLimitOpts represents an options for the RateLimit middleware.
type RateLimitOpts struct {
	Alg RateLimitAlg

	// MaxBurst is used by the leaky bucket algorithm only.
	MaxBurst int

	// GetKey returns the key by which requests are limited. If nil, the limit is global.
	GetKey RateLimitGetKeyFunc

	// MaxKeys is the maximum number of tracked keys. DefaultRateLimitMaxKeys is used if it's 0.
	MaxKeys int

	// ResponseStatusCode is sent when the request is rejected. 429 is used if it's 0.
	ResponseStatusCode int

	// DryRun enables the mode when rejected requests are only logged but served anyway.
	DryRun bool

	// ExcludedEndpoints is a list of URL paths which are never limited.
	ExcludedEndpoints []string

	// ExcludedKeys are glob patterns ("10.0.*") matched against the key returned by GetKey.
	// Requests with a matching key are never limited. GetKey must be set.
	ExcludedKeys []string
}

type rateLimitHandler struct {
	next         http.Handler
	limiter      ratelimit.Limiter
	errDomain    string
	opts         RateLimitOpts
	excludedKeys []func(key string) bool
}

// RateLimit is a middleware that limits the rate of HTTP requests.
// Rejected requests get the error response with Retry-After header.
func RateLimit(maxRate Rate, errDomain string, opts RateLimitOpts) (func(next http.Handler) http.Handler, error) {
	if opts.Alg == "" {
		opts.Alg = RateLimitAlgLeakyBucket
	}
	maxKeys := 0
	if opts.GetKey != nil {
		maxKeys = opts.MaxKeys
		if maxKeys == 0 {
			maxKeys = DefaultRateLimitMaxKeys
		}
	}
	if opts.ResponseStatusCode == 0 {
		opts.ResponseStatusCode = http.StatusTooManyRequests
	}
	if len(opts.ExcludedKeys) != 0 && opts.GetKey == nil {
		return nil, fmt.Errorf("excluded keys cannot be used without GetKey")
	}
	excludedKeys := make([]func(key string) bool, 0, len(opts.ExcludedKeys))
	for _, pattern := range opts.ExcludedKeys {
		excludedKeys = append(excludedKeys, glob.Compile(pattern))
	}

	limiter, err := ratelimit.NewLimiter(opts.Alg, maxRate, opts.MaxBurst, maxKeys)
	if err != nil {
		return nil, fmt.Errorf("new rate limiter: %w", err)
	}

	return func(next http.Handler) http.Handler {
		return &rateLimitHandler{
			next: next, limiter: limiter, errDomain: errDomain, opts: opts, excludedKeys: excludedKeys,
		}
	}, nil
}

// MustRateLimit is a version of RateLimit that panics if an error occurs.
func MustRateLimit(maxRate Rate, errDomain string, opts RateLimitOpts) func(next http.Handler) http.Handler {
	mw, err := RateLimit(maxRate, errDomain, opts)
	if err != nil {
		panic(err)
	}
	return mw
}

// RateLimitKeyByClientIP may be used as RateLimitOpts.GetKey to limit requests of each client separately.
func RateLimitKeyByClientIP(r *http.Request) (key string, bypass bool, err error) {
	return GetClientIP(r), false, nil
}

func (h *rateLimitHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if isEndpointExcluded(r.URL.Path, h.opts.ExcludedEndpoints) {
		h.next.ServeHTTP(rw, r)
		return
	}

	logger := GetLoggerFromContext(r.Context())

	var key string
	if h.opts.GetKey != nil {
		var bypass bool
		var err error
		if key, bypass, err = h.opts.GetKey(r); err != nil {
			h.respondError(rw, logger, fmt.Errorf("get rate limit key: %w", err), key)
			return
		}
		if bypass || h.isKeyExcluded(key) {
			h.next.ServeHTTP(rw, r)
			return
		}
	}

	allow, retryAfter, err := h.limiter.Allow(r.Context(), key)
	if err != nil {
		h.respondError(rw, logger, fmt.Errorf("rate limit: %w", err), key)
		return
	}
	if allow {
		h.next.ServeHTTP(rw, r)
		return
	}

	if h.opts.DryRun {
		if logger != nil {
			logger.Warn("too many requests, serving will be continued because of dry run mode",
				log.String(RateLimitLogFieldKey, key), log.String(userAgentLogFieldKey, r.UserAgent()))
		}
		h.next.ServeHTTP(rw, r)
		return
	}

	if logger != nil {
		logger = logger.With(log.String(RateLimitLogFieldKey, key), log.String(userAgentLogFieldKey, r.UserAgent()))
	}
	rw.Header().Set("Retry-After", formatRetryAfter(retryAfter))
	apiErr := restapi.NewError(h.errDomain, RateLimitErrCode, "Too many requests.")
	restapi.RespondError(rw, h.opts.ResponseStatusCode, apiErr, logger)
}

func (h *rateLimitHandler) isKeyExcluded(key string) bool {
	for _, match := range h.excludedKeys {
		if match(key) {
			return true
		}
	}
	return false
}

func (h *rateLimitHandler) respondError(rw http.ResponseWriter, logger log.FieldLogger, err error, key string) {
	if logger != nil {
		logger.Error(err.Error(), log.String(RateLimitLogFieldKey, key))
	}
	restapi.RespondInternalError(rw, h.errDomain, logger)
}

// formatRetryAfter returns the number of seconds (at least 1) for Retry-After header.
func formatRetryAfter(retryAfter time.Duration) string {
	secs := int(math.Ceil(retryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
