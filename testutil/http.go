/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/stretchr/testify/require"
)

const contentTypeAppJSON = "application/json"

type tHelper interface {
	Helper()
}

func markHelper(t interface{}) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
}

type errorRespData struct {
	Domain string `json:"domain"`
	Code   string `json:"code"`
}

// responseParts is a common view of httptest.ResponseRecorder and http.Response.
type responseParts struct {
	code   int
	header http.Header
	body   io.Reader
}

func fromRecorder(rec *httptest.ResponseRecorder) responseParts {
	return responseParts{rec.Code, rec.Header(), rec.Body}
}

func fromResponse(resp *http.Response) responseParts {
	return responseParts{resp.StatusCode, resp.Header, resp.Body}
}

// errorsAreWrapped defines whether RequireErrorIn* helpers expect the {"error": {...}} envelope.
// It should be switched together with restapi.DisableWrappingErrorInResponse.
var errorsAreWrapped = true

// DisableWrappingErrorInResponse makes RequireErrorIn* helpers expect not wrapped errors ({"domain": ..., "code": ...}).
func DisableWrappingErrorInResponse() {
	errorsAreWrapped = false
}

// EnableWrappingErrorInResponse makes RequireErrorIn* helpers expect wrapped errors ({"error": {"domain": ..., "code": ...}}).
func EnableWrappingErrorInResponse() {
	errorsAreWrapped = true
}

// RequireErrorInRecorder asserts that the recorded response contains the error with the passed status, domain and code.
func RequireErrorInRecorder(t require.TestingT, rec *httptest.ResponseRecorder, wantHTTPCode int, wantErrDomain, wantErrCode string) {
	markHelper(t)
	requireError(t, fromRecorder(rec), errorsAreWrapped, wantHTTPCode, wantErrDomain, wantErrCode)
}

// RequireErrorInResponse asserts that the response contains the error with the passed status, domain and code.
func RequireErrorInResponse(t require.TestingT, resp *http.Response, wantHTTPCode int, wantErrDomain, wantErrCode string) {
	markHelper(t)
	requireError(t, fromResponse(resp), errorsAreWrapped, wantHTTPCode, wantErrDomain, wantErrCode)
}

// RequireWrappedErrorInRecorder is like RequireErrorInRecorder but always expects the wrapped error.
func RequireWrappedErrorInRecorder(
	t require.TestingT, rec *httptest.ResponseRecorder, wantHTTPCode int, wantErrDomain, wantErrCode string,
) {
	markHelper(t)
	requireError(t, fromRecorder(rec), true, wantHTTPCode, wantErrDomain, wantErrCode)
}

// RequireNoWrappedErrorInRecorder is like RequireErrorInRecorder but always expects the not wrapped error.
func RequireNoWrappedErrorInRecorder(
	t require.TestingT, rec *httptest.ResponseRecorder, wantHTTPCode int, wantErrDomain, wantErrCode string,
) {
	markHelper(t)
	requireError(t, fromRecorder(rec), false, wantHTTPCode, wantErrDomain, wantErrCode)
}

func requireError(t require.TestingT, resp responseParts, wrapped bool, wantHTTPCode int, wantErrDomain, wantErrCode string) {
	markHelper(t)
	require.Equal(t, wantHTTPCode, resp.code)
	require.Equal(t, contentTypeAppJSON, resp.header.Get("Content-Type"))

	var errResp errorRespData
	if wrapped {
		var envelope struct {
			Error errorRespData `json:"error"`
		}
		require.NoError(t, json.NewDecoder(resp.body).Decode(&envelope))
		errResp = envelope.Error
	} else {
		require.NoError(t, json.NewDecoder(resp.body).Decode(&errResp))
	}
	require.Equal(t, wantErrDomain, errResp.Domain)
	require.Equal(t, wantErrCode, errResp.Code)
}

// RequireEmptyBodyInRecorder asserts that the recorded response has no body.
func RequireEmptyBodyInRecorder(t require.TestingT, rec *httptest.ResponseRecorder) {
	markHelper(t)
	bodyBytes, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Empty(t, bodyBytes)
}

// RequireJSONInRecorder decodes the recorded JSON body into dest and compares it with want.
func RequireJSONInRecorder(t require.TestingT, rec *httptest.ResponseRecorder, want, dest interface{}) {
	markHelper(t)
	bodyBytes := readJSONBody(t, fromRecorder(rec))
	require.NoError(t, json.Unmarshal(bodyBytes, dest))
	require.Equal(t, want, dest)
}

// RequireStringJSONInResponse asserts that the response body is exactly the passed JSON string.
func RequireStringJSONInResponse(t require.TestingT, resp *http.Response, want string) {
	markHelper(t)
	require.Equal(t, want, string(readJSONBody(t, fromResponse(resp))))
}

func readJSONBody(t require.TestingT, resp responseParts) []byte {
	markHelper(t)
	require.Equal(t, contentTypeAppJSON, resp.header.Get("Content-Type"))
	bodyBytes, err := io.ReadAll(resp.body)
	require.NoError(t, err)
	return bodyBytes
}
