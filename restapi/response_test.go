/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/acronis/go-lookupcache/log"
	"github.com/acronis/go-lookupcache/log/logtest"
	"github.com/acronis/go-lookupcache/testutil"
)

const testDomain = "LookupCache"

type failingWriter struct {
	*httptest.ResponseRecorder
}

func (w failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

type user struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func stringsField(t *testing.T, entry logtest.RecordedEntry, key string) []string {
	t.Helper()
	field, found := entry.FindField(key)
	require.True(t, found, "field %q is not found", key)
	return reflect.ValueOf(field.Any).Convert(reflect.TypeOf([]string(nil))).Interface().([]string)
}

func TestRespondCodeAndJSON(t *testing.T) {
	t.Run("object", func(t *testing.T) {
		resp := httptest.NewRecorder()
		logRecorder := logtest.NewRecorder()
		u := &user{ID: 1, Name: "Alice <admin>", Email: "alice@example.com"}
		RespondCodeAndJSON(resp, http.StatusCreated, u, logRecorder)

		require.Equal(t, http.StatusCreated, resp.Code)
		require.Equal(t, ContentTypeAppJSON, resp.Header().Get("Content-Type"))
		require.Equal(t, `{"id":1,"name":"Alice <admin>","email":"alice@example.com"}`, resp.Body.String())
		require.Empty(t, logRecorder.Entries())
	})

	t.Run("RespondJSON uses 200", func(t *testing.T) {
		resp := httptest.NewRecorder()
		u := &user{ID: 2, Name: "Bob"}
		RespondJSON(resp, u, nil)
		testutil.RequireJSONInRecorder(t, resp, u, &user{})
	})

	t.Run("nil data", func(t *testing.T) {
		resp := httptest.NewRecorder()
		RespondCodeAndJSON(resp, http.StatusNoContent, nil, nil)
		require.Equal(t, http.StatusNoContent, resp.Code)
		require.Empty(t, resp.Header().Get("Content-Type"))
		testutil.RequireEmptyBodyInRecorder(t, resp)
	})

	t.Run("content type set by handler is kept", func(t *testing.T) {
		resp := httptest.NewRecorder()
		resp.Header().Set("Content-Type", "application/problem+json")
		RespondJSON(resp, map[string]string{"status": "ok"}, nil)
		require.Equal(t, "application/problem+json", resp.Header().Get("Content-Type"))
	})

	t.Run("marshaling error", func(t *testing.T) {
		resp := httptest.NewRecorder()
		RespondJSON(resp, make(chan int), nil)
		require.Equal(t, http.StatusInternalServerError, resp.Code)
		testutil.RequireEmptyBodyInRecorder(t, resp)

		resp = httptest.NewRecorder()
		logRecorder := logtest.NewRecorder()
		RespondJSON(resp, func() {}, logRecorder)
		require.Equal(t, http.StatusInternalServerError, resp.Code)
		_, found := logRecorder.FindEntry("error while marshaling json for response body")
		require.True(t, found)
	})

	t.Run("writing error", func(t *testing.T) {
		logRecorder := logtest.NewRecorder()
		RespondJSON(failingWriter{httptest.NewRecorder()}, "ok", logRecorder)
		entry, found := logRecorder.FindEntry("error while writing response body")
		require.True(t, found)
		require.Equal(t, log.LevelError, entry.Level)
	})
}

func TestRespondError(t *testing.T) {
	MustInitAndRegisterMetrics("")
	defer UnregisterMetrics()

	tests := []struct {
		name        string
		status      int
		apiErr      *Error
		wantContext []string
	}{
		{
			name:   "internal error",
			status: http.StatusInternalServerError,
			apiErr: NewInternalError(testDomain),
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			apiErr: NewError(testDomain, ErrCodeNotFound, "User not found."),
		},
		{
			name:   "conflict with context",
			status: http.StatusConflict,
			apiErr: NewError(testDomain, "conflict", "User already exists.").
				AddContext("email", "alice@example.com").
				AddContext("attempt", 2),
			wantContext: []string{"attempt: 2", "email: alice@example.com"},
		},
	}

	respond := func(t *testing.T, wrapped bool) {
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				counter := metricsResponseErrors.WithLabelValues(tt.apiErr.Domain, tt.apiErr.Code)
				countBefore := promtestutil.ToFloat64(counter)

				resp := httptest.NewRecorder()
				logRecorder := logtest.NewRecorder()
				RespondError(resp, tt.status, tt.apiErr, logRecorder)

				if wrapped {
					testutil.RequireWrappedErrorInRecorder(t, resp, tt.status, tt.apiErr.Domain, tt.apiErr.Code)
				} else {
					testutil.RequireNoWrappedErrorInRecorder(t, resp, tt.status, tt.apiErr.Domain, tt.apiErr.Code)
				}
				require.Equal(t, countBefore+1, promtestutil.ToFloat64(counter))

				entry, found := logRecorder.FindEntry("error in response")
				require.True(t, found)
				require.Equal(t, log.LevelError, entry.Level)
				code, _ := entry.FindField("error_code")
				require.Equal(t, tt.apiErr.Code, string(code.Bytes))
				if tt.wantContext == nil {
					_, found = entry.FindField("error_context")
					require.False(t, found)
				} else {
					require.Equal(t, tt.wantContext, stringsField(t, entry, "error_context"))
				}
			})
		}
	}

	t.Run("wrapped", func(t *testing.T) { respond(t, true) })

	t.Run("not wrapped", func(t *testing.T) {
		DisableWrappingErrorInResponse()
		testutil.DisableWrappingErrorInResponse()
		defer func() {
			respondError = RespondWrappedError
			testutil.EnableWrappingErrorInResponse()
		}()
		respond(t, false)
	})
}

func TestRespondError_WithoutLoggerAndMetrics(t *testing.T) {
	resp := httptest.NewRecorder()
	RespondError(resp, http.StatusNotFound, NewError(testDomain, ErrCodeNotFound, ErrMessageNotFound), nil)
	testutil.RequireErrorInRecorder(t, resp, http.StatusNotFound, testDomain, ErrCodeNotFound)
}

func TestRespondMalformedRequestOrInternalError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "too large body",
			err:        NewTooLargeMalformedRequestError(1024 * 1024),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   "requestEntityTooLarge",
		},
		{
			name:       "wrapped malformed request",
			err:        errors.Join(errors.New("decode user"), &MalformedRequestError{http.StatusBadRequest, "Bad email."}),
			wantStatus: http.StatusBadRequest,
			wantCode:   "badRequest",
		},
		{
			name:       "unexpected error",
			err:        errors.New("store is down"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   ErrCodeInternal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			RespondMalformedRequestOrInternalError(resp, testDomain, tt.err, nil)
			testutil.RequireErrorInRecorder(t, resp, tt.wantStatus, testDomain, tt.wantCode)
		})
	}
}
