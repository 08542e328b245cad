/*
File Name:  Scheduler.go

Pure functions turning the datagrams collected during S3 into a
download order: PeerBlockView (per-peer announced rankings) becomes
BlockSources (per-block ordered source lists), which becomes a single
rarity-first block order. None of this touches the network; Requester.go
is the only caller.
*/

package core

import (
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// PeerBlockView maps a peer's IP to the ordered list of block IDs it
// announced, in arrival order across possibly multiple datagrams.
type PeerBlockView map[string][]uint64

// Extend appends blockIDs to peerIP's list, creating it if absent. This
// models a peer splitting its availability across multiple datagrams.
func (v PeerBlockView) Extend(peerIP string, blockIDs []uint64) {
	v[peerIP] = append(v[peerIP], blockIDs...)
}

// BlockSource is one peer's offer of a specific block, with the rank that
// peer assigned it (0 = best).
type BlockSource struct {
	PeerIP string
	Rank   int
}

// BlockSources holds, for every block_id in [0, len), the ordered list of
// peers that advertised it, sorted by ascending rank then ascending ping
// latency (unknown latency sorts last).
type BlockSources [][]BlockSource

// pingCache memoizes RTT lookups for one request so a peer that is a
// source for many blocks is probed only once while BlockSources is built.
type pingCache struct {
	cache *lru.Cache[string, pingResult]
	ping  func(peerIP string) (time.Duration, bool)
}

type pingResult struct {
	latency time.Duration
	ok      bool
}

// newPingCache creates a bounded ping-result cache for one Requester run,
// probing peers via Ping.
func newPingCache(size int) *pingCache {
	return newPingCacheWithProbe(size, Ping)
}

// newPingCacheWithProbe is the same, but with the probe function injected;
// used by tests to avoid real network dials.
func newPingCacheWithProbe(size int, probe func(peerIP string) (time.Duration, bool)) *pingCache {
	cache, _ := lru.New[string, pingResult](size)
	return &pingCache{cache: cache, ping: probe}
}

func (p *pingCache) probe(peerIP string) (time.Duration, bool) {
	if cached, ok := p.cache.Get(peerIP); ok {
		return cached.latency, cached.ok
	}

	latency, ok := p.ping(peerIP)
	p.cache.Add(peerIP, pingResult{latency: latency, ok: ok})
	return latency, ok
}

// BuildBlockSources implements §4.6 S4: for each peer, walk its announced
// list, assigning each block_id the index of its first occurrence as that
// peer's rank for it; then group by block_id.
func BuildBlockSources(view PeerBlockView, blockCount uint64, pings *pingCache) BlockSources {
	sources := make(BlockSources, blockCount)

	for peerIP, blockIDs := range view {
		seen := make(map[uint64]bool)
		for rank, blockID := range blockIDs {
			if blockID >= blockCount || seen[blockID] {
				continue
			}
			seen[blockID] = true
			sources[blockID] = append(sources[blockID], BlockSource{PeerIP: peerIP, Rank: rank})
		}
	}

	for blockID := range sources {
		sortSourcesByRankThenPing(sources[blockID], pings)
	}

	return sources
}

func sortSourcesByRankThenPing(list []BlockSource, pings *pingCache) {
	latency := make(map[string]time.Duration, len(list))
	known := make(map[string]bool, len(list))
	for _, s := range list {
		l, ok := pings.probe(s.PeerIP)
		latency[s.PeerIP] = l
		known[s.PeerIP] = ok
	}

	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}

		aKnown, bKnown := known[a.PeerIP], known[b.PeerIP]
		if aKnown != bKnown {
			return aKnown // known latency sorts before unknown
		}
		if !aKnown {
			return false // both unknown: stable, no further ordering
		}
		return latency[a.PeerIP] < latency[b.PeerIP]
	})
}

// RarityOrder implements §4.6 S5: block ids sorted by ascending source
// count, with zero-source blocks deferred after every block with at least
// one source.
func RarityOrder(sources BlockSources) []uint64 {
	order := make([]uint64, len(sources))
	for i := range order {
		order[i] = uint64(i)
	}

	sort.SliceStable(order, func(i, j int) bool {
		ci, cj := len(sources[order[i]]), len(sources[order[j]])
		switch {
		case ci == 0 && cj == 0:
			return false
		case ci == 0:
			return false // i has zero sources: never sorts before j
		case cj == 0:
			return true // j has zero sources: i (nonzero) always sorts first
		default:
			return ci < cj
		}
	})

	return order
}
