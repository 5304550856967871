package blocks

import (
	"bytes"
	"sort"

	fieldparams "github.com/pharos-eth/pharos/config/fieldparams"
)

// ROBlock is a value that embeds a SignedBeaconBlock along with its block
// root ([32]byte). This allows the block root to be cached within a value
// that can be passed around like the block itself. Since the root and slot
// for each ROBlock is known, slices can be efficiently sorted using
// ROBlockSlice.
type ROBlock struct {
	*SignedBeaconBlock
	root [fieldparams.RootLength]byte
}

// Root returns the block hash_tree_root for the embedded SignedBeaconBlock.
func (b ROBlock) Root() [fieldparams.RootLength]byte {
	return b.root
}

// RootSlice returns the block root as a byte slice, convenient for logging
// and map keys built from slices.
func (b ROBlock) RootSlice() []byte {
	return b.root[:]
}

// NewROBlockWithRoot creates an ROBlock embedding the given block with its
// root. It accepts the root as parameter rather than computing it internally,
// because in some cases a block is retrieved by its root and recomputing it
// would be a waste.
func NewROBlockWithRoot(b *SignedBeaconBlock, root [fieldparams.RootLength]byte) (ROBlock, error) {
	if err := BeaconBlockIsNil(b); err != nil {
		return ROBlock{}, err
	}
	return ROBlock{SignedBeaconBlock: b, root: root}, nil
}

// NewROBlock creates an ROBlock from a SignedBeaconBlock, computing the
// cached root from the block's header form.
func NewROBlock(b *SignedBeaconBlock) (ROBlock, error) {
	if err := BeaconBlockIsNil(b); err != nil {
		return ROBlock{}, err
	}
	root, err := b.Block().HashTreeRoot()
	if err != nil {
		return ROBlock{}, err
	}
	return ROBlock{SignedBeaconBlock: b, root: root}, nil
}

// ROBlockSlice implements sort.Interface so that slices of ROBlocks can be
// easily sorted. A slice of ROBlock is sorted first by slot, with ties broken
// by cached block roots.
type ROBlockSlice []ROBlock

var _ sort.Interface = ROBlockSlice{}

// Less reports whether the element with index i must sort before the element
// with index j.
func (s ROBlockSlice) Less(i, j int) bool {
	si, sj := s[i].Block().Slot(), s[j].Block().Slot()

	// lower slot wins
	if si != sj {
		return si < sj
	}

	// break slot tie lexicographically comparing roots byte for byte
	ri, rj := s[i].Root(), s[j].Root()
	return bytes.Compare(ri[:], rj[:]) < 0
}

// Swap swaps the elements with indexes i and j.
func (s ROBlockSlice) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

// Len is the number of elements in the collection.
func (s ROBlockSlice) Len() int {
	return len(s)
}
