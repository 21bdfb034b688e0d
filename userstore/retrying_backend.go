/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/acronis/go-lookupcache/log"
	"github.com/acronis/go-lookupcache/lookup"
)

// RetryPolicy defines backoff strategy.
type RetryPolicy interface {
	NewBackOff() backoff.BackOff
}

// RetryPolicyFunc is an adapter to allow the use of ordinary functions as RetryPolicy.
type RetryPolicyFunc func() backoff.BackOff

// NewBackOff implements RetryPolicy.
func (f RetryPolicyFunc) NewBackOff() backoff.BackOff {
	return f()
}

// ExponentialBackoffPolicy repeats up to maxAttempts times with exponentially growing delays.
type ExponentialBackoffPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxAttempts     int
}

// NewBackOff implements RetryPolicy.
func (p ExponentialBackoffPolicy) NewBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	}
	eb.MaxElapsedTime = 0 // limited by attempts only
	var bf backoff.BackOff = eb
	if p.MaxAttempts > 0 {
		bf = backoff.WithMaxRetries(eb, uint64(p.MaxAttempts))
	}
	bf.Reset()
	return bf
}

// RetryingBackend retries failed fetches of the underlying store.
// Absence of the user and context errors are never retried.
type RetryingBackend struct {
	store  Store
	policy RetryPolicy
	logger log.FieldLogger
}

var _ Store = (*RetryingBackend)(nil)

// NewRetryingBackend wraps the store with retries according to the policy.
func NewRetryingBackend(store Store, policy RetryPolicy, logger log.FieldLogger) *RetryingBackend {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	return &RetryingBackend{store: store, policy: policy, logger: logger}
}

// Fetch fetches the user from the underlying store with retries.
func (b *RetryingBackend) Fetch(ctx context.Context, key string) (User, error) {
	var u User
	bctx := backoff.WithContext(b.policy.NewBackOff(), ctx)
	op := func() error {
		var err error
		if u, err = b.store.Fetch(bctx.Context(), key); err != nil {
			if !isRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}
	notify := func(err error, delay time.Duration) {
		b.logger.Warn("fetching user failed, retrying", log.String("key", key),
			log.Duration("delay", delay), log.Error(err))
	}
	if err := backoff.RetryNotify(op, bctx, notify); err != nil {
		return User{}, err
	}
	return u, nil
}

// Create creates the user in the underlying store. It is not retried since it's not idempotent.
func (b *RetryingBackend) Create(ctx context.Context, name, email string) (User, error) {
	return b.store.Create(ctx, name, email)
}

// Ping checks the underlying store.
func (b *RetryingBackend) Ping(ctx context.Context) error {
	return b.store.Ping(ctx)
}

func isRetryable(err error) bool {
	return !errors.Is(err, lookup.ErrNotFound) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
