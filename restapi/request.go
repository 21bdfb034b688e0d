/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"code.cloudfoundry.org/bytefmt"
)

// RequestBodyTooLargeError is returned by the body reader when the request body exceeds the limit
// set by SetRequestMaxBodySize.
type RequestBodyTooLargeError struct {
	MaxSizeBytes uint64
	Err          error
}

func (e *RequestBodyTooLargeError) Error() string {
	return e.Err.Error()
}

func (e *RequestBodyTooLargeError) Unwrap() error {
	return e.Err
}

type limitedBody struct {
	io.ReadCloser
	limit uint64
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		err = &RequestBodyTooLargeError{MaxSizeBytes: b.limit, Err: err}
	}
	return n, err
}

// SetRequestMaxBodySize limits the number of bytes that may be read from the request body.
// Reading past the limit fails with *RequestBodyTooLargeError.
func SetRequestMaxBodySize(w http.ResponseWriter, r *http.Request, maxSizeBytes uint64) {
	r.Body = &limitedBody{ReadCloser: http.MaxBytesReader(w, r.Body, int64(maxSizeBytes)), limit: maxSizeBytes}
}

// MalformedRequestError describes a request that cannot be processed because of its content.
// Message is safe to return to the client.
type MalformedRequestError struct {
	HTTPStatusCode int
	Message        string
}

func (e *MalformedRequestError) Error() string {
	return e.Message
}

func malformed(statusCode int, format string, args ...interface{}) *MalformedRequestError {
	return &MalformedRequestError{HTTPStatusCode: statusCode, Message: fmt.Sprintf(format, args...)}
}

// NewTooLargeMalformedRequestError returns the error reported when the request body exceeds maxSizeBytes.
func NewTooLargeMalformedRequestError(maxSizeBytes uint64) *MalformedRequestError {
	return malformed(http.StatusRequestEntityTooLarge,
		"Request body must not be larger than %s.", bytefmt.ByteSize(maxSizeBytes))
}

// DecodeRequestJSONStrict decodes a single JSON object from the request body into dst.
// An empty Content-Type is treated as JSON. If disallowUnknownFields is true,
// fields that dst does not declare make the request malformed.
func DecodeRequestJSONStrict(r *http.Request, dst interface{}, disallowUnknownFields bool) error {
	if err := checkJSONContentType(r.Header.Get("Content-Type")); err != nil {
		return err
	}

	decoder := json.NewDecoder(r.Body)
	if disallowUnknownFields {
		decoder.DisallowUnknownFields()
	}
	if err := decoder.Decode(dst); err != nil {
		return convertDecodeError(err)
	}
	if decoder.More() {
		return malformed(http.StatusBadRequest, "Request body must only contain a single JSON object.")
	}
	return nil
}

// DecodeRequestJSON is DecodeRequestJSONStrict that accepts unknown fields.
func DecodeRequestJSON(r *http.Request, dst interface{}) error {
	return DecodeRequestJSONStrict(r, dst, false)
}

func checkJSONContentType(headerValue string) error {
	if headerValue == "" {
		return nil
	}
	contentType, _, err := mime.ParseMediaType(headerValue)
	if err != nil {
		return malformed(http.StatusUnsupportedMediaType, "failed to parse Content-Type header for request: %s", err)
	}
	if contentType != ContentTypeAppJSON {
		return malformed(http.StatusUnsupportedMediaType, "Content-Type %q is not supported.", contentType)
	}
	return nil
}

func convertDecodeError(err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var tooLargeErr *RequestBodyTooLargeError

	switch {
	case errors.Is(err, io.EOF):
		return malformed(http.StatusBadRequest, "Request body must not be empty.")
	case errors.Is(err, io.ErrUnexpectedEOF):
		return malformed(http.StatusBadRequest, "Request body contains badly-formed JSON.")
	case errors.As(err, &syntaxErr):
		return malformed(http.StatusBadRequest,
			"Request body contains badly-formed JSON (at position %d).", syntaxErr.Offset)
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return malformed(http.StatusBadRequest,
			"Request body contains an invalid value for the %q field (at position %d).", typeErr.Field, typeErr.Offset)
	case errors.As(err, &typeErr):
		return malformed(http.StatusBadRequest,
			"Request body contains an invalid value of type %q for the field of type %s.", typeErr.Value, typeErr.Type)
	case errors.As(err, &tooLargeErr):
		return NewTooLargeMalformedRequestError(tooLargeErr.MaxSizeBytes)
	case strings.HasPrefix(err.Error(), "json: unknown field"):
		return malformed(http.StatusBadRequest, "Payload does not match the scheme")
	}
	return err
}
