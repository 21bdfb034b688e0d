/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/acronis/go-lookupcache/httpserver/middleware"
	"github.com/acronis/go-lookupcache/log"
	"github.com/acronis/go-lookupcache/restapi"
)

// StatusClientClosedRequest is the non-standard status (introduced by Nginx) written
// when the client goes away before the response is ready.
const StatusClientClosedRequest = 499

// HealthCheckStatus is the health of a single component.
type HealthCheckStatus int

const (
	HealthCheckStatusOK HealthCheckStatus = iota
	HealthCheckStatusFail
)

// HealthCheckResult maps component names to their statuses.
type HealthCheckResult = map[string]HealthCheckStatus

// HealthCheck checks the components of the service.
// A returned error means the check itself could not be done and results in 500.
type HealthCheck = func(ctx context.Context) (HealthCheckResult, error)

type healthCheckResponseData struct {
	Components map[string]bool `json:"components"`
}

// HealthCheckHandler serves GET /healthz.
// It responds 200 when all components are healthy and 503 when at least one of them fails.
type HealthCheckHandler struct {
	check HealthCheck
}

// NewHealthCheckHandler creates a HealthCheckHandler. A nil check reports no components.
func NewHealthCheckHandler(check HealthCheck) *HealthCheckHandler {
	if check == nil {
		check = func(ctx context.Context) (HealthCheckResult, error) {
			return HealthCheckResult{}, ctx.Err()
		}
	}
	return &HealthCheckHandler{check: check}
}

func (h *HealthCheckHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.GetLoggerFromContext(ctx)

	result, err := h.check(ctx)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			rw.WriteHeader(StatusClientClosedRequest)
			return
		}
		if logger != nil {
			logger.Error("error while checking health", log.Error(err))
		}
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	resp := healthCheckResponseData{Components: make(map[string]bool, len(result))}
	for name, componentStatus := range result {
		resp.Components[name] = componentStatus == HealthCheckStatusOK
		if componentStatus != HealthCheckStatusOK {
			status = http.StatusServiceUnavailable
		}
	}
	restapi.RespondCodeAndJSON(rw, status, resp, logger)
}
