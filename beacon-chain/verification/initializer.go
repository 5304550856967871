package verification

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pharos-eth/pharos/beacon-chain/cache"
	"github.com/pharos-eth/pharos/beacon-chain/startup"
	fieldparams "github.com/pharos-eth/pharos/config/fieldparams"
	"github.com/pharos-eth/pharos/consensus-types/primitives"
)

// Forkchoicer represents the forkchoice methods that the verifiers need.
// Note that forkchoice is used here in a lock-free fashion, assuming that a
// version of forkchoice is given that internally handles the details of
// locking the underlying store.
type Forkchoicer interface {
	FinalizedSlot() primitives.Slot
	HasNode([fieldparams.RootLength]byte) bool
}

// BlockInformer reports whether a block root is known locally, either to
// forkchoice or to the early-attester cache.
type BlockInformer interface {
	HasBlock(root [fieldparams.RootLength]byte) bool
}

// ProposerResolver recomputes the expected proposer for a (parent root, slot)
// pair from the canonical head state. It is the slow path behind the
// proposer cache.
type ProposerResolver interface {
	SlotProposer(ctx context.Context, parentRoot [fieldparams.RootLength]byte, slot primitives.Slot) (primitives.ValidatorIndex, error)
}

// seenKey identifies a sidecar for equivocation tracking.
type seenKey struct {
	proposer primitives.ValidatorIndex
	slot     primitives.Slot
	index    uint64
}

// maxSeenSidecars bounds the equivocation tracking cache. Entries older than
// the finalized slot are rejected before this cache is consulted, so a few
// epochs of capacity is enough.
const maxSeenSidecars = 4096

// sharedResources provides access to resources that are required by
// different verification types, like the proposer cache shared between
// sidecar and block verification.
type sharedResources struct {
	clock    *startup.Clock
	fc       Forkchoicer
	bi       BlockInformer
	pc       *cache.ProposerIndexCache
	pk       *cache.ValidatorPubkeyCache
	pr       ProposerResolver
	seenSide *lru.Cache[seenKey, [fieldparams.KzgCommitmentLength]byte]
}

// Initializer is used to create different Verifiers. Verifiers require
// access to stateful data structures, like caches, and it is Initializer's
// job to provide access to those.
type Initializer struct {
	shared *sharedResources
}

// NewInitializer assembles the shared resources for verifier construction.
func NewInitializer(
	clock *startup.Clock,
	fc Forkchoicer,
	bi BlockInformer,
	pc *cache.ProposerIndexCache,
	pk *cache.ValidatorPubkeyCache,
	pr ProposerResolver,
) (*Initializer, error) {
	seen, err := lru.New[seenKey, [fieldparams.KzgCommitmentLength]byte](maxSeenSidecars)
	if err != nil {
		return nil, err
	}
	return &Initializer{shared: &sharedResources{
		clock:    clock,
		fc:       fc,
		bi:       bi,
		pc:       pc,
		pk:       pk,
		pr:       pr,
		seenSide: seen,
	}}, nil
}

// NewBlobValidator creates a validator for sidecars and sidecar-carrying
// blocks, with the shared resources it needs.
func (ini *Initializer) NewBlobValidator() *BlobValidator {
	return &BlobValidator{shared: ini.shared}
}
