package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	fieldparams "github.com/pharos-eth/pharos/config/fieldparams"
	"github.com/pharos-eth/pharos/consensus-types/primitives"
)

// maxProposerSize bounds the proposer cache. Entries are tiny, so a few
// epochs worth of (parent root, slot) pairs is plenty.
var maxProposerSize = 256

var (
	proposerCacheMiss = promauto.NewCounter(prometheus.CounterOpts{
		Name: "proposer_index_cache_miss",
		Help: "The number of proposer index requests that aren't present in the cache.",
	})
	proposerCacheHit = promauto.NewCounter(prometheus.CounterOpts{
		Name: "proposer_index_cache_hit",
		Help: "The number of proposer index requests that are present in the cache.",
	})
)

// proposerKey identifies a proposer computation: the same slot can have
// different proposers on different forks, so the parent root participates in
// the key.
type proposerKey struct {
	parentRoot [fieldparams.RootLength]byte
	slot       primitives.Slot
}

// ProposerIndexCache caches the expected proposer for a (parent root, slot)
// pair, avoiding a state replay on the gossip hot path.
type ProposerIndexCache struct {
	lru *lru.Cache[proposerKey, primitives.ValidatorIndex]
}

func NewProposerIndexCache() (*ProposerIndexCache, error) {
	c, err := lru.New[proposerKey, primitives.ValidatorIndex](maxProposerSize)
	if err != nil {
		return nil, err
	}
	return &ProposerIndexCache{lru: c}, nil
}

// Proposer returns the cached proposer index for the pair, if known.
func (p *ProposerIndexCache) Proposer(parentRoot [fieldparams.RootLength]byte, slot primitives.Slot) (primitives.ValidatorIndex, bool) {
	idx, ok := p.lru.Get(proposerKey{parentRoot: parentRoot, slot: slot})
	if !ok {
		proposerCacheMiss.Inc()
		return 0, false
	}
	proposerCacheHit.Inc()
	return idx, true
}

// SetProposer records the proposer index computed for the pair.
func (p *ProposerIndexCache) SetProposer(parentRoot [fieldparams.RootLength]byte, slot primitives.Slot, idx primitives.ValidatorIndex) {
	p.lru.Add(proposerKey{parentRoot: parentRoot, slot: slot}, idx)
}
