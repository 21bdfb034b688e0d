/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package lookup

import (
	"github.com/acronis/go-lookupcache/coalescer"
	"github.com/acronis/go-lookupcache/latency"
	"github.com/acronis/go-lookupcache/lrucache"
)

// StatsSnapshot represents statistics of the lookup Service.
type StatsSnapshot struct {
	Cache     lrucache.Stats  `json:"cache"`
	Coalescer coalescer.Stats `json:"coalescer"`
	Latency   latency.Summary `json:"metrics"`
}

// StatsProvider provides a snapshot of the lookup statistics.
type StatsProvider interface {
	StatsSnapshot() StatsSnapshot
}

var _ StatsProvider = (*Service[struct{}])(nil)
