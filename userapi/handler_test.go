/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package userapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/acronis/go-lookupcache/httpserver/middleware"
	"github.com/acronis/go-lookupcache/log/logtest"
	"github.com/acronis/go-lookupcache/lookup"
	"github.com/acronis/go-lookupcache/restapi"
	"github.com/acronis/go-lookupcache/userstore"
)

type failingStore struct {
	userstore.Store
	err error
}

func (s *failingStore) Fetch(context.Context, string) (userstore.User, error) {
	return userstore.User{}, s.err
}

func (s *failingStore) Create(context.Context, string, string) (userstore.User, error) {
	return userstore.User{}, s.err
}

func newTestRouter(t *testing.T, store userstore.Store) (chi.Router, *lookup.Service[userstore.User]) {
	t.Helper()
	svc, err := lookup.New[userstore.User](store, nil, nil, lookup.Opts{})
	require.NoError(t, err)
	router := chi.NewRouter()
	NewHandler(svc, store).Routes(router)
	return router, svc
}

func newMemoryStore(t *testing.T) *userstore.MemoryStore {
	t.Helper()
	store, err := userstore.NewMemoryStore(0, userstore.DefaultSeedUsers)
	require.NoError(t, err)
	return store
}

func doRequest(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", restapi.ContentTypeAppJSON)
	} else {
		req = httptest.NewRequest(method, target, http.NoBody)
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func requireErrorResponse(t *testing.T, resp *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()
	require.Equal(t, wantStatus, resp.Code)
	var respData restapi.ErrorResponseData
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &respData))
	require.Equal(t, ErrorDomain, respData.Err.Domain)
	require.Equal(t, wantCode, respData.Err.Code)
}

func TestHandler_GetUser(t *testing.T) {
	router, _ := newTestRouter(t, newMemoryStore(t))

	var respData struct {
		User         userstore.User `json:"user"`
		Cached       bool           `json:"cached"`
		ResponseTime string         `json:"responseTime"`
	}

	resp := doRequest(t, router, http.MethodGet, "/users/1", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, restapi.ContentTypeAppJSON, resp.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &respData))
	require.Equal(t, userstore.User{ID: 1, Name: "John Doe", Email: "john@example.com"}, respData.User)
	require.False(t, respData.Cached)
	require.Regexp(t, `^\d+ms$`, respData.ResponseTime)

	resp = doRequest(t, router, http.MethodGet, "/users/1", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &respData))
	require.Equal(t, int64(1), respData.User.ID)
	require.True(t, respData.Cached)
}

func TestHandler_GetUser_LoggingParams(t *testing.T) {
	router, _ := newTestRouter(t, newMemoryStore(t))
	logger := logtest.NewRecorder()
	handler := middleware.Logging(logger)(router)

	for _, wantSource := range []string{"backing", "cache"} {
		logger.Reset()
		resp := doRequest(t, handler, http.MethodGet, "/users/2", "")
		require.Equal(t, http.StatusOK, resp.Code)

		entry, found := logger.FindEntryByFilter(func(entry logtest.RecordedEntry) bool {
			return strings.HasPrefix(entry.Text, "response completed in ")
		})
		require.True(t, found)
		field, ok := entry.FindField("lookup_source")
		require.True(t, ok)
		require.Equal(t, wantSource, string(field.Bytes))
		_, ok = entry.FindField("lookup_shared")
		require.True(t, ok)
	}
}

func TestHandler_GetUser_Errors(t *testing.T) {
	tests := []struct {
		name       string
		store      userstore.Store
		target     string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "not a number",
			target:     "/users/abc",
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeInvalidUserID,
		},
		{
			name:       "zero id",
			target:     "/users/0",
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeInvalidUserID,
		},
		{
			name:       "negative id",
			target:     "/users/-5",
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeInvalidUserID,
		},
		{
			name:       "unknown user",
			target:     "/users/999",
			wantStatus: http.StatusNotFound,
			wantCode:   restapi.ErrCodeNotFound,
		},
		{
			name:       "backing store failure",
			store:      &failingStore{err: errors.New("connection refused")},
			target:     "/users/1",
			wantStatus: http.StatusInternalServerError,
			wantCode:   restapi.ErrCodeInternal,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			store := tt.store
			if store == nil {
				store = newMemoryStore(t)
			}
			router, svc := newTestRouter(t, store)
			resp := doRequest(t, router, http.MethodGet, tt.target, "")
			requireErrorResponse(t, resp, tt.wantStatus, tt.wantCode)
			require.Equal(t, 0, svc.StatsSnapshot().Cache.Size, "errors must not be cached")
		})
	}
}

func TestHandler_CreateUser(t *testing.T) {
	store := newMemoryStore(t)
	router, svc := newTestRouter(t, store)

	resp := doRequest(t, router, http.MethodPost, "/users", `{"name":"Alice","email":"alice@example.com"}`)
	require.Equal(t, http.StatusCreated, resp.Code)
	var respData struct {
		User userstore.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &respData))
	require.Equal(t, userstore.User{ID: 4, Name: "Alice", Email: "alice@example.com"}, respData.User)

	// Created user is put into the cache, so the next read is a hit.
	res, err := svc.Lookup(context.Background(), "4")
	require.NoError(t, err)
	require.True(t, res.Cached())
	require.Equal(t, respData.User, res.Value)

	resp = doRequest(t, router, http.MethodPost, "/users", `{"name":"Alice 2","email":"ALICE@example.com"}`)
	requireErrorResponse(t, resp, http.StatusConflict, ErrCodeEmailTaken)
	require.Equal(t, 4, store.Len())
}

func TestHandler_CreateUser_Errors(t *testing.T) {
	tests := []struct {
		name       string
		store      userstore.Store
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "empty body",
			wantStatus: http.StatusBadRequest,
			wantCode:   "badRequest",
		},
		{
			name:       "malformed json",
			body:       `{"name":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "badRequest",
		},
		{
			name:       "unknown field",
			body:       `{"name":"Alice","email":"alice@example.com","age":30}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "badRequest",
		},
		{
			name:       "missing name",
			body:       `{"email":"alice@example.com"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeInvalidUser,
		},
		{
			name:       "blank email",
			body:       `{"name":"Alice","email":"  "}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeInvalidUser,
		},
		{
			name:       "invalid email",
			body:       `{"name":"Alice","email":"alice@example"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeInvalidUser,
		},
		{
			name:       "email with spaces",
			body:       `{"name":"Alice","email":"ali ce@example.com"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeInvalidUser,
		},
		{
			name:       "backing store failure",
			store:      &failingStore{err: errors.New("connection refused")},
			body:       `{"name":"Alice","email":"alice@example.com"}`,
			wantStatus: http.StatusInternalServerError,
			wantCode:   restapi.ErrCodeInternal,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			store := tt.store
			if store == nil {
				store = newMemoryStore(t)
			}
			router, svc := newTestRouter(t, store)
			req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", restapi.ContentTypeAppJSON)
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)
			requireErrorResponse(t, resp, tt.wantStatus, tt.wantCode)
			require.Equal(t, 0, svc.StatsSnapshot().Cache.Size)
		})
	}
}

func TestHandler_CacheStatusAndClear(t *testing.T) {
	router, _ := newTestRouter(t, newMemoryStore(t))

	for _, target := range []string{"/users/1", "/users/1", "/users/2"} {
		require.Equal(t, http.StatusOK, doRequest(t, router, http.MethodGet, target, "").Code)
	}

	type statusResponse struct {
		Cache struct {
			Size    int    `json:"size"`
			Hits    uint64 `json:"hits"`
			Misses  uint64 `json:"misses"`
			HitRate string `json:"hitRate"`
		} `json:"cache"`
		Queue struct {
			TotalRequests        uint64 `json:"totalRequests"`
			DeduplicatedRequests uint64 `json:"deduplicatedRequests"`
			CurrentPending       int    `json:"currentPendingRequests"`
		} `json:"queue"`
		Performance struct {
			Count         int    `json:"count"`
			TotalRecorded uint64 `json:"totalRecorded"`
		} `json:"performance"`
	}

	resp := doRequest(t, router, http.MethodGet, "/users/cache/status", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var status statusResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &status))
	require.Equal(t, 2, status.Cache.Size)
	require.Equal(t, uint64(1), status.Cache.Hits)
	require.Equal(t, uint64(2), status.Cache.Misses)
	require.Equal(t, "33.33%", status.Cache.HitRate)
	require.Equal(t, uint64(2), status.Queue.TotalRequests)
	require.Equal(t, uint64(0), status.Queue.DeduplicatedRequests)
	require.Equal(t, 0, status.Queue.CurrentPending)
	require.Equal(t, 3, status.Performance.Count)
	require.Equal(t, uint64(3), status.Performance.TotalRecorded)

	for i := 0; i < 2; i++ {
		resp = doRequest(t, router, http.MethodDelete, "/users/cache", "")
		require.Equal(t, http.StatusOK, resp.Code)
		require.JSONEq(t, `{"cleared":true}`, resp.Body.String())
	}

	resp = doRequest(t, router, http.MethodGet, "/users/cache/status", "")
	require.Equal(t, http.StatusOK, resp.Code)
	status = statusResponse{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &status))
	require.Equal(t, 0, status.Cache.Size)
	require.Equal(t, uint64(1), status.Cache.Hits, "clearing keeps cumulative statistics")
}
