package blocks

import (
	"sort"

	fieldparams "github.com/pharos-eth/pharos/config/fieldparams"
	"github.com/pharos-eth/pharos/consensus-types/primitives"
	"github.com/pkg/errors"
)

var errNilBlob = errors.New("received nil blob sidecar")

// BlobIdentifier uniquely identifies a single blob: the root of the block
// that committed to it plus its position in that block's blob list.
// Identifiers order by Index alone.
type BlobIdentifier struct {
	BlockRoot [fieldparams.RootLength]byte
	Index     uint64
}

// AllBlobIdentifiers enumerates the full fixed set of identifiers
// 0..MaxBlobsPerBlock for a block root.
func AllBlobIdentifiers(root [fieldparams.RootLength]byte) []BlobIdentifier {
	ids := make([]BlobIdentifier, 0, fieldparams.MaxBlobsPerBlock)
	for i := uint64(0); i < fieldparams.MaxBlobsPerBlock; i++ {
		ids = append(ids, BlobIdentifier{BlockRoot: root, Index: i})
	}
	return ids
}

// BlobSidecar represents one blob and the proof of its inclusion in a
// specific block. The owning block's root is intentionally not a field; it is
// always recomputed from the embedded signed header, so the header and the
// root can never disagree.
type BlobSidecar struct {
	Index                    uint64
	Blob                     []byte
	KzgCommitment            []byte
	KzgProof                 []byte
	SignedBlockHeader        *SignedBeaconBlockHeader
	CommitmentInclusionProof [][]byte
}

// ROBlob embeds a BlobSidecar along with its block root, recomputed from the
// sidecar's signed header at construction time.
type ROBlob struct {
	*BlobSidecar
	root [fieldparams.RootLength]byte
}

// NewROBlob creates an ROBlob from a BlobSidecar, computing the block root
// from the embedded signed header.
func NewROBlob(b *BlobSidecar) (ROBlob, error) {
	if b == nil {
		return ROBlob{}, errNilBlob
	}
	if err := signedHeaderNilCheck(b.SignedBlockHeader); err != nil {
		return ROBlob{}, err
	}
	root, err := b.SignedBlockHeader.Header.HashTreeRoot()
	if err != nil {
		return ROBlob{}, err
	}
	return ROBlob{BlobSidecar: b, root: root}, nil
}

// ID returns the identifier of this sidecar.
func (b *ROBlob) ID() BlobIdentifier {
	return BlobIdentifier{BlockRoot: b.root, Index: b.Index}
}

// BlockRoot returns the root of the block the sidecar commits to.
func (b *ROBlob) BlockRoot() [fieldparams.RootLength]byte {
	return b.root
}

// BlockRootSlice returns the block root as a byte slice. This is often more
// convenient/concise than setting a tmp var to BlockRoot(), just so that it
// can be sliced.
func (b *ROBlob) BlockRootSlice() []byte {
	return b.root[:]
}

// Slot returns the slot of the blob sidecar's block header.
func (b *ROBlob) Slot() primitives.Slot {
	return b.SignedBlockHeader.Header.Slot
}

// ParentRoot returns the parent root of the blob sidecar's block header.
func (b *ROBlob) ParentRoot() [fieldparams.RootLength]byte {
	return b.SignedBlockHeader.Header.ParentRoot
}

// BodyRoot returns the body root of the blob sidecar's block header.
func (b *ROBlob) BodyRoot() [fieldparams.RootLength]byte {
	return b.SignedBlockHeader.Header.BodyRoot
}

// ProposerIndex returns the proposer index of the blob sidecar's block header.
func (b *ROBlob) ProposerIndex() primitives.ValidatorIndex {
	return b.SignedBlockHeader.Header.ProposerIndex
}

// ROBlobSlice implements sort.Interface, ordering sidecars by Index alone.
type ROBlobSlice []ROBlob

var _ sort.Interface = ROBlobSlice{}

// Less reports whether the element with index i must sort before the element
// with index j.
func (s ROBlobSlice) Less(i, j int) bool {
	return s[i].Index < s[j].Index
}

// Swap swaps the elements with indexes i and j.
func (s ROBlobSlice) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

// Len is the number of elements in the collection.
func (s ROBlobSlice) Len() int {
	return len(s)
}

// VerifiedROBlob represents an ROBlob that has undergone full verification
// (block sig, inclusion proof, commitment proof).
type VerifiedROBlob struct {
	ROBlob
}

// NewVerifiedROBlob "upgrades" an ROBlob to a VerifiedROBlob. This method
// should only be used by the verification package.
func NewVerifiedROBlob(rob ROBlob) VerifiedROBlob {
	return VerifiedROBlob{ROBlob: rob}
}
