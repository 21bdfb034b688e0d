/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package userapi

import (
	"github.com/acronis/go-lookupcache/coalescer"
	"github.com/acronis/go-lookupcache/latency"
	"github.com/acronis/go-lookupcache/lookup"
	"github.com/acronis/go-lookupcache/lrucache"
)

// cacheStatusResponse is the body of the cache status endpoint.
// Coalescer statistics are exposed as "queue" and latencies as "performance".
type cacheStatusResponse struct {
	Cache       lrucache.Stats  `json:"cache"`
	Queue       coalescer.Stats `json:"queue"`
	Performance latency.Summary `json:"performance"`
}

func newCacheStatusResponse(snapshot lookup.StatsSnapshot) cacheStatusResponse {
	return cacheStatusResponse{
		Cache:       snapshot.Cache,
		Queue:       snapshot.Coalescer,
		Performance: snapshot.Latency,
	}
}
