package das

import (
	fieldparams "github.com/pharos-eth/pharos/config/fieldparams"
	"github.com/pharos-eth/pharos/consensus-types/blocks"
	"github.com/pharos-eth/pharos/consensus-types/primitives"
)

// BlockWrapper carries a block, and possibly its sidecars, between the
// network boundary and certification. It makes no availability claim: a
// wrapper holding sidecars has not had them verified.
type BlockWrapper struct {
	block    blocks.ROBlock
	blobs    []blocks.ROBlob
	hasBlobs bool
}

// NewBlockWrapper wraps a bare block.
func NewBlockWrapper(b blocks.ROBlock) BlockWrapper {
	return BlockWrapper{block: b}
}

// NewBlockAndBlobsWrapper wraps a block together with the sidecars that
// arrived with it. The sidecars are untrusted until certification.
func NewBlockAndBlobsWrapper(b blocks.ROBlock, blobs []blocks.ROBlob) BlockWrapper {
	return BlockWrapper{block: b, blobs: blobs, hasBlobs: true}
}

// Slot of the wrapped block.
func (w BlockWrapper) Slot() primitives.Slot {
	return w.block.Block().Slot()
}

// Epoch of the wrapped block.
func (w BlockWrapper) Epoch() primitives.Epoch {
	return w.block.Block().Epoch()
}

// ParentRoot of the wrapped block.
func (w BlockWrapper) ParentRoot() [fieldparams.RootLength]byte {
	return w.block.Block().ParentRoot()
}

// StateRoot of the wrapped block.
func (w BlockWrapper) StateRoot() [fieldparams.RootLength]byte {
	return w.block.Block().StateRoot()
}

// Root of the wrapped block.
func (w BlockWrapper) Root() [fieldparams.RootLength]byte {
	return w.block.Root()
}

// Header returns the signed header form of the wrapped block.
func (w BlockWrapper) Header() (*blocks.SignedBeaconBlockHeader, error) {
	return w.block.Header()
}

// Block returns the wrapped block.
func (w BlockWrapper) Block() blocks.ROBlock {
	return w.block
}

// Blobs returns the attached sidecars, if any. These are unverified.
func (w BlockWrapper) Blobs() ([]blocks.ROBlob, bool) {
	return w.blobs, w.hasBlobs
}

// AvailableBlock is a block whose data availability policy has been enforced
// for its era. The fields are private and the only constructors are
// IntoAvailableBlock and NewAvailableBlock, so holding an AvailableBlock is
// proof the check ran.
// When hasBlobs is set, the blobs passed the availability verifier (or the
// block declared no commitments and the bundle is the degenerate empty one).
type AvailableBlock struct {
	block    blocks.ROBlock
	blobs    []blocks.VerifiedROBlob
	hasBlobs bool
}

// Slot of the certified block.
func (a AvailableBlock) Slot() primitives.Slot {
	return a.block.Block().Slot()
}

// Epoch of the certified block.
func (a AvailableBlock) Epoch() primitives.Epoch {
	return a.block.Block().Epoch()
}

// ParentRoot of the certified block.
func (a AvailableBlock) ParentRoot() [fieldparams.RootLength]byte {
	return a.block.Block().ParentRoot()
}

// StateRoot of the certified block.
func (a AvailableBlock) StateRoot() [fieldparams.RootLength]byte {
	return a.block.Block().StateRoot()
}

// Root of the certified block.
func (a AvailableBlock) Root() [fieldparams.RootLength]byte {
	return a.block.Root()
}

// Header returns the signed header form of the certified block.
func (a AvailableBlock) Header() (*blocks.SignedBeaconBlockHeader, error) {
	return a.block.Header()
}

// Block returns the certified block.
func (a AvailableBlock) Block() blocks.ROBlock {
	return a.block
}

// Blobs returns the verified sidecar bundle, if this block carries one.
func (a AvailableBlock) Blobs() ([]blocks.VerifiedROBlob, bool) {
	return a.blobs, a.hasBlobs
}

// Deconstruct returns the wrapped parts. The returned blobs, when present,
// have passed availability checks for this block.
func (a AvailableBlock) Deconstruct() (blocks.ROBlock, []blocks.VerifiedROBlob) {
	return a.block, a.blobs
}
