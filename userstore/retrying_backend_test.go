/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package userstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/acronis/go-lookupcache/log/logtest"
)

type flakyStore struct {
	*MemoryStore
	failures atomic.Int32 // number of first calls that fail
	calls    atomic.Int32
	err      error
}

func (s *flakyStore) Fetch(ctx context.Context, key string) (User, error) {
	if s.calls.Inc() <= s.failures.Load() {
		return User{}, s.err
	}
	return s.MemoryStore.Fetch(ctx, key)
}

func newFlakyStore(t *testing.T, failures int32) *flakyStore {
	t.Helper()
	ms, err := NewMemoryStore(0, DefaultSeedUsers)
	require.NoError(t, err)
	s := &flakyStore{MemoryStore: ms, err: errors.New("connection reset")}
	s.failures.Store(failures)
	return s
}

var testRetryPolicy = ExponentialBackoffPolicy{InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond, MaxAttempts: 3}

func TestRetryingBackend_Fetch(t *testing.T) {
	t.Run("transient failures are retried", func(t *testing.T) {
		store := newFlakyStore(t, 2)
		logRecorder := logtest.NewRecorder()
		backend := NewRetryingBackend(store, testRetryPolicy, logRecorder)

		u, err := backend.Fetch(context.Background(), "1")
		require.NoError(t, err)
		require.Equal(t, DefaultSeedUsers[0], u)
		require.Equal(t, int32(3), store.calls.Load())
		require.Len(t, logRecorder.Entries(), 2)
	})

	t.Run("attempts are exhausted", func(t *testing.T) {
		store := newFlakyStore(t, 100)
		backend := NewRetryingBackend(store, testRetryPolicy, nil)

		_, err := backend.Fetch(context.Background(), "1")
		require.ErrorIs(t, err, store.err)
		require.Equal(t, int32(testRetryPolicy.MaxAttempts+1), store.calls.Load())
	})

	t.Run("not found is not retried", func(t *testing.T) {
		store := newFlakyStore(t, 0)
		backend := NewRetryingBackend(store, testRetryPolicy, nil)

		_, err := backend.Fetch(context.Background(), "100500")
		require.ErrorIs(t, err, ErrUserNotFound)
		require.Equal(t, int32(1), store.calls.Load())
	})

	t.Run("canceled context stops retries", func(t *testing.T) {
		store := newFlakyStore(t, 100)
		backend := NewRetryingBackend(store, RetryPolicyFunc(func() backoff.BackOff {
			return backoff.NewConstantBackOff(time.Hour)
		}), nil)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := backend.Fetch(ctx, "1")
		require.Error(t, err)
		require.Equal(t, int32(1), store.calls.Load())
	})
}

func TestRetryingBackend_CreateIsNotRetried(t *testing.T) {
	store := newFlakyStore(t, 0)
	backend := NewRetryingBackend(store, testRetryPolicy, nil)
	u, err := backend.Create(context.Background(), "Name", "name@example.com")
	require.NoError(t, err)
	require.Equal(t, int64(4), u.ID)
	require.NoError(t, backend.Ping(context.Background()))
}
