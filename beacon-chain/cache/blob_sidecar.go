package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	fieldparams "github.com/pharos-eth/pharos/config/fieldparams"
	"github.com/pharos-eth/pharos/consensus-types/blocks"
)

// DefaultBlobCacheSlots is the number of slots worth of sidecars the blob
// cache can hold before evicting.
const DefaultBlobCacheSlots = 10

var blobSidecarCacheMiss = promauto.NewCounter(prometheus.CounterOpts{
	Name: "blob_sidecar_cache_miss",
	Help: "The number of blob sidecar requests that aren't present in the cache.",
})

// BlobSidecarCache holds gossip-verified sidecars that arrived ahead of their
// block, keyed by (block root, index). Capacity is bounded; under eviction
// pressure the least recently touched sidecar is dropped, which only delays
// availability until the sidecars are re-fetched.
type BlobSidecarCache struct {
	lru *lru.Cache[blocks.BlobIdentifier, blocks.ROBlob]
}

// NewBlobSidecarCache creates a cache sized for DefaultBlobCacheSlots slots
// of full blob lists.
func NewBlobSidecarCache() (*BlobSidecarCache, error) {
	c, err := lru.New[blocks.BlobIdentifier, blocks.ROBlob](DefaultBlobCacheSlots * fieldparams.MaxBlobsPerBlock)
	if err != nil {
		return nil, err
	}
	return &BlobSidecarCache{lru: c}, nil
}

// Put inserts a sidecar under its identifier and returns the sidecar it
// displaced at that exact key, if any. Eviction of an unrelated key is not
// reported.
func (c *BlobSidecarCache) Put(sidecar blocks.ROBlob) (blocks.ROBlob, bool) {
	id := sidecar.ID()
	prev, had := c.lru.Peek(id)
	c.lru.Add(id, sidecar)
	return prev, had
}

// Pop removes and returns the sidecar stored under the identifier.
func (c *BlobSidecarCache) Pop(id blocks.BlobIdentifier) (blocks.ROBlob, bool) {
	sc, ok := c.lru.Peek(id)
	if !ok {
		blobSidecarCacheMiss.Inc()
		return blocks.ROBlob{}, false
	}
	c.lru.Remove(id)
	return sc, true
}

// Peek returns the sidecar stored under the identifier without removing it or
// refreshing its recency.
func (c *BlobSidecarCache) Peek(id blocks.BlobIdentifier) (blocks.ROBlob, bool) {
	sc, ok := c.lru.Peek(id)
	if !ok {
		blobSidecarCacheMiss.Inc()
		return blocks.ROBlob{}, false
	}
	return sc, true
}

// Len returns the number of cached sidecars.
func (c *BlobSidecarCache) Len() int {
	return c.lru.Len()
}
