/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorCodeFromStatus(t *testing.T) {
	tests := map[int]string{
		http.StatusInternalServerError:   "internalError",
		http.StatusNotFound:              "notFound",
		http.StatusBadRequest:            "badRequest",
		http.StatusConflict:              "conflict",
		http.StatusMethodNotAllowed:      "methodNotAllowed",
		http.StatusRequestEntityTooLarge: "requestEntityTooLarge",
		http.StatusTooManyRequests:       "tooManyRequests",
		http.StatusServiceUnavailable:    "serviceUnavailable",
	}
	for status, want := range tests {
		t.Run(want, func(t *testing.T) {
			require.Equal(t, want, errorCodeFromStatus(status))
		})
	}
}

func TestError_AddContext(t *testing.T) {
	err := NewError("LookupCache", "conflict", "User already exists.").
		AddContext("email", "alice@example.com").
		AddContext("id", 7)
	require.Equal(t, map[string]interface{}{"email": "alice@example.com", "id": 7}, err.Context)

	internal := NewInternalError("LookupCache")
	require.Equal(t, ErrCodeInternal, internal.Code)
	require.Equal(t, ErrMessageInternal, internal.Message)
	require.Nil(t, internal.Context)
}
