/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/acronis/go-lookupcache/log"
)

// ContentTypeAppJSON represents MIME media type for JSON.
const ContentTypeAppJSON = "application/json"

// marshalJSON encodes v without HTML escaping and without the trailing newline added by json.Encoder.
func marshalJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// RespondJSON writes respData as JSON with 200 status code.
func RespondJSON(rw http.ResponseWriter, respData interface{}, logger log.FieldLogger) {
	RespondCodeAndJSON(rw, http.StatusOK, respData, logger)
}

// RespondCodeAndJSON writes respData as JSON with the given status code.
// Content-Type is set to application/json unless the handler has already set it.
// A nil respData produces a response without body.
// If respData cannot be marshaled, 500 is written instead and the error is logged.
func RespondCodeAndJSON(rw http.ResponseWriter, statusCode int, respData interface{}, logger log.FieldLogger) {
	if respData == nil {
		rw.WriteHeader(statusCode)
		return
	}
	if rw.Header().Get("Content-Type") == "" {
		rw.Header().Set("Content-Type", ContentTypeAppJSON)
	}

	body, err := marshalJSON(respData)
	if err != nil {
		logError(logger, "error while marshaling json for response body", err)
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}
	rw.WriteHeader(statusCode)
	if _, err = rw.Write(body); err != nil {
		logError(logger, "error while writing response body", err)
	}
}

func logError(logger log.FieldLogger, msg string, err error) {
	if logger != nil {
		logger.Error(msg, log.Error(err))
	}
}

// ErrorResponseData is the body of an error response in the wrapped form: {"error": {...}}.
type ErrorResponseData struct {
	Err *Error `json:"error"`
}

func (e *ErrorResponseData) Error() string {
	return fmt.Sprintf("HTTP error occurs: %v", e.Err)
}

var respondError = RespondWrappedError

// DisableWrappingErrorInResponse makes RespondError write the Error object itself
// instead of wrapping it into {"error": ...}. It affects the whole process.
func DisableWrappingErrorInResponse() {
	respondError = RespondNoWrappedError
}

// RespondError writes err with the given status code, logs it and counts it in the response errors metric.
func RespondError(rw http.ResponseWriter, httpStatusCode int, err *Error, logger log.FieldLogger) {
	respondError(rw, httpStatusCode, err, logger)
}

// RespondWrappedError is RespondError that always uses the {"error": ...} form.
func RespondWrappedError(rw http.ResponseWriter, httpStatusCode int, err *Error, logger log.FieldLogger) {
	reportResponseError(err, logger)
	RespondCodeAndJSON(rw, httpStatusCode, ErrorResponseData{err}, logger)
}

// RespondNoWrappedError is RespondError that always writes the Error object itself.
func RespondNoWrappedError(rw http.ResponseWriter, httpStatusCode int, err *Error, logger log.FieldLogger) {
	reportResponseError(err, logger)
	RespondCodeAndJSON(rw, httpStatusCode, err, logger)
}

// RespondInternalError writes a 500 response with the internal error of the domain.
func RespondInternalError(rw http.ResponseWriter, domain string, logger log.FieldLogger) {
	RespondError(rw, http.StatusInternalServerError, NewInternalError(domain), logger)
}

// RespondMalformedRequestError writes reqErr using its status code, the code is derived from the status.
func RespondMalformedRequestError(rw http.ResponseWriter, domain string, reqErr *MalformedRequestError, logger log.FieldLogger) {
	apiErr := NewError(domain, errorCodeFromStatus(reqErr.HTTPStatusCode), reqErr.Message)
	RespondError(rw, reqErr.HTTPStatusCode, apiErr, logger)
}

// RespondMalformedRequestOrInternalError responds with the malformed request error if err wraps one,
// and with the internal error otherwise.
func RespondMalformedRequestOrInternalError(rw http.ResponseWriter, domain string, err error, logger log.FieldLogger) {
	var reqErr *MalformedRequestError
	if errors.As(err, &reqErr) {
		RespondMalformedRequestError(rw, domain, reqErr, logger)
		return
	}
	RespondInternalError(rw, domain, logger)
}

func reportResponseError(err *Error, logger log.FieldLogger) {
	responseErrorsCounter(err.Domain, err.Code).Inc()
	if logger == nil {
		return
	}
	fields := []log.Field{log.String("error_code", err.Code), log.String("error_message", err.Message)}
	if len(err.Context) != 0 {
		lines := make([]string, 0, len(err.Context))
		for k, v := range err.Context {
			lines = append(lines, fmt.Sprintf("%s: %v", k, v))
		}
		sort.Strings(lines)
		fields = append(fields, log.Strings("error_context", lines))
	}
	logger.Error("error in response", fields...)
}
