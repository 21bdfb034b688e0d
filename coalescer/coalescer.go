/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package coalescer

import (
	"sync"
)

// FetchFunc performs the actual (expensive) fetching of the value by the key.
type FetchFunc[K comparable, V any] func(key K) (V, error)

type call[V any] struct {
	wg      sync.WaitGroup
	val     V
	err     error
	joiners int // guarded by Coalescer.mu
}

// Coalescer collapses concurrent fetches of the same key into a single call of FetchFunc.
// All callers that arrive while the call is in flight receive its value or error.
// Once the call settles, the key is forgotten and the next Fetch starts a new call.
type Coalescer[K comparable, V any] struct {
	mu    sync.Mutex
	calls map[K]*call[V]

	// Both counters are guarded by mu, so a snapshot never has more deduplicated requests than total ones.
	totalRequests        uint64
	deduplicatedRequests uint64

	metricsCollector MetricsCollector
}

// New creates a new Coalescer.
// Metrics collector may be nil, in this case, metrics will be disabled.
func New[K comparable, V any](metricsCollector MetricsCollector) *Coalescer[K, V] {
	if metricsCollector == nil {
		metricsCollector = disabledMetrics{}
	}
	return &Coalescer[K, V]{calls: make(map[K]*call[V]), metricsCollector: metricsCollector}
}

// Fetch returns the result of fetch for the passed key.
// If there is a call for the same key in flight, Fetch waits for it and returns its result without calling fetch.
// The shared flag reports whether the result was delivered to more than one caller.
//
// If fetch panics, the panic is re-raised in the goroutine that started the call,
// and other callers receive *PanicError. If fetch calls runtime.Goexit, other callers receive ErrGoexit.
func (c *Coalescer[K, V]) Fetch(key K, fetch FetchFunc[K, V]) (v V, shared bool, err error) {
	c.metricsCollector.IncRequests()

	c.mu.Lock()
	c.totalRequests++
	if cl, ok := c.calls[key]; ok {
		cl.joiners++
		c.deduplicatedRequests++
		c.mu.Unlock()
		c.metricsCollector.IncDeduplicated()
		cl.wg.Wait()
		return cl.val, true, cl.err
	}
	cl := &call[V]{}
	cl.wg.Add(1)
	c.calls[key] = cl
	c.metricsCollector.SetInFlight(len(c.calls))
	c.mu.Unlock()

	return c.doCall(cl, key, fetch)
}

func (c *Coalescer[K, V]) doCall(cl *call[V], key K, fetch FetchFunc[K, V]) (v V, shared bool, err error) {
	normalReturn := false
	recovered := false

	// double-defer to distinguish panic from runtime.Goexit
	defer func() {
		if !normalReturn && !recovered {
			cl.err = ErrGoexit
		}

		// The key must be forgotten before waiters are released,
		// so a caller that observed the result never joins the settled call.
		c.mu.Lock()
		delete(c.calls, key)
		shared = cl.joiners > 0
		c.metricsCollector.SetInFlight(len(c.calls))
		c.mu.Unlock()

		cl.wg.Done()

		if recovered {
			panic(cl.err.(*PanicError).Value) // re-panic on the same goroutine
		}

		v, err = cl.val, cl.err
	}()

	defer func() {
		if !normalReturn {
			if r := recover(); r != nil {
				cl.err = newPanicError(r)
				recovered = true
			}
		}
	}()

	cl.val, cl.err = fetch(key)
	normalReturn = true

	return cl.val, false, cl.err // will be set in the defer
}

// Pending returns the number of keys with a call in flight.
func (c *Coalescer[K, V]) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// Stats returns a snapshot of the coalescer statistics.
func (c *Coalescer[K, V]) Stats() Stats {
	c.mu.Lock()
	total, deduplicated, pending := c.totalRequests, c.deduplicatedRequests, len(c.calls)
	c.mu.Unlock()
	return Stats{
		TotalRequests:        total,
		DeduplicatedRequests: deduplicated,
		CurrentPending:       pending,
		DeduplicationRate:    formatRate(deduplicated, total),
	}
}

// ResetStats resets the request counters. Calls in flight are not affected.
func (c *Coalescer[K, V]) ResetStats() {
	c.mu.Lock()
	c.totalRequests, c.deduplicatedRequests = 0, 0
	c.mu.Unlock()
}
