package engine

import "go.uber.org/atomic"

// Stats holds lock-free engine counters.
type Stats struct {
	dispatched atomic.Int64
	succeeded  atomic.Int64
	failed     atomic.Int64
	cacheHits  atomic.Int64
	coalesced  atomic.Int64
	duplicates atomic.Int64
	redirects  atomic.Int64
	replaced   atomic.Int64
	rejected   atomic.Int64
	cancelled  atomic.Int64
	swept      atomic.Int64
	evicted    atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats plus debug counts.
type StatsSnapshot struct {
	Dispatched int64 `json:"dispatched"`
	Succeeded  int64 `json:"succeeded"`
	Failed     int64 `json:"failed"`
	CacheHits  int64 `json:"cacheHits"`
	Coalesced  int64 `json:"coalesced"`
	Duplicates int64 `json:"duplicates"`
	Redirects  int64 `json:"redirects"`
	Replaced   int64 `json:"replaced"`
	Rejected   int64 `json:"rejected"`
	Cancelled  int64 `json:"cancelled"`
	Swept      int64 `json:"swept"`
	Evicted    int64 `json:"evicted"`

	ActiveCalls          int `json:"activeCalls"`
	PendingPresentations int `json:"pendingPresentations"`
	InFlightAsync        int `json:"inFlightAsync"`
	CachedResults        int `json:"cachedResults"`
}

func (s *Stats) snapshot() StatsSnapshot {
	return StatsSnapshot{
		Dispatched: s.dispatched.Load(),
		Succeeded:  s.succeeded.Load(),
		Failed:     s.failed.Load(),
		CacheHits:  s.cacheHits.Load(),
		Coalesced:  s.coalesced.Load(),
		Duplicates: s.duplicates.Load(),
		Redirects:  s.redirects.Load(),
		Replaced:   s.replaced.Load(),
		Rejected:   s.rejected.Load(),
		Cancelled:  s.cancelled.Load(),
		Swept:      s.swept.Load(),
		Evicted:    s.evicted.Load(),
	}
}
