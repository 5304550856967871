package blocks

import (
	ssz "github.com/ferranbt/fastssz"
	fieldparams "github.com/pharos-eth/pharos/config/fieldparams"
	"github.com/pharos-eth/pharos/consensus-types/primitives"
	"github.com/pkg/errors"
)

var (
	errNilBlockHeader        = errors.New("received nil beacon block header")
	errMissingBlockSignature = errors.New("missing beacon block header signature")
)

// BeaconBlockHeader is the summary of a beacon block: the block with its body
// replaced by the body's hash tree root. Sidecars embed the signed header so
// that the block root can always be recomputed from data the sidecar carries.
type BeaconBlockHeader struct {
	Slot          primitives.Slot
	ProposerIndex primitives.ValidatorIndex
	ParentRoot    [fieldparams.RootLength]byte
	StateRoot     [fieldparams.RootLength]byte
	BodyRoot      [fieldparams.RootLength]byte
}

// SignedBeaconBlockHeader is a BeaconBlockHeader plus the proposer signature
// over its signing root.
type SignedBeaconBlockHeader struct {
	Header    *BeaconBlockHeader
	Signature [fieldparams.BLSSignatureLength]byte
}

// HashTreeRoot ssz hashes the BeaconBlockHeader object.
func (h *BeaconBlockHeader) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(h)
}

// HashTreeRootWith ssz hashes the BeaconBlockHeader object with a hasher.
func (h *BeaconBlockHeader) HashTreeRootWith(hh ssz.HashWalker) error {
	indx := hh.Index()
	hh.PutUint64(uint64(h.Slot))
	hh.PutUint64(uint64(h.ProposerIndex))
	hh.PutBytes(h.ParentRoot[:])
	hh.PutBytes(h.StateRoot[:])
	hh.PutBytes(h.BodyRoot[:])
	hh.Merkleize(indx)
	return nil
}

// GetTree ssz hashes the BeaconBlockHeader object.
func (h *BeaconBlockHeader) GetTree() (*ssz.Node, error) {
	return ssz.ProofTree(h)
}

// Copy returns a deep copy of the signed header.
func (sh *SignedBeaconBlockHeader) Copy() *SignedBeaconBlockHeader {
	if sh == nil || sh.Header == nil {
		return nil
	}
	hc := *sh.Header
	return &SignedBeaconBlockHeader{Header: &hc, Signature: sh.Signature}
}

func signedHeaderNilCheck(sh *SignedBeaconBlockHeader) error {
	if sh == nil || sh.Header == nil {
		return errNilBlockHeader
	}
	if sh.Signature == [fieldparams.BLSSignatureLength]byte{} {
		return errMissingBlockSignature
	}
	return nil
}
