/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import (
	"fmt"
	"log"
	"time"
)

func Example() {
	type User struct {
		ID   int
		Name string
	}

	metrics := NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{Namespace: "myservice"})
	metrics.MustRegister()
	defer metrics.Unregister()

	// The clock is injected only to show expiration without sleeping.
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache, err := NewWithOpts[string, User](2, time.Minute, metrics, Options{Now: func() time.Time { return now }})
	if err != nil {
		log.Fatal(err)
	}

	cache.Add("user:1", User{1, "John"})
	cache.Add("user:2", User{2, "Jane"})

	if user, found := cache.Get("user:1"); found {
		fmt.Printf("%d, %s\n", user.ID, user.Name)
	}

	// The cache is full, so the least recently used "user:2" is evicted.
	cache.Add("user:3", User{3, "Jack"})
	if _, found := cache.Get("user:2"); !found {
		fmt.Println("user:2 is evicted")
	}

	now = now.Add(2 * time.Minute)
	if _, found := cache.Get("user:1"); !found {
		fmt.Println("user:1 is expired")
	}

	stats := cache.Stats()
	fmt.Printf("size=%d hits=%d misses=%d evictions=%d expirations=%d hitRate=%s\n",
		stats.Size, stats.Hits, stats.Misses, stats.Evictions, stats.Expirations, stats.HitRate)

	// Output:
	// 1, John
	// user:2 is evicted
	// user:1 is expired
	// size=1 hits=1 misses=2 evictions=1 expirations=1 hitRate=33.33%
}
