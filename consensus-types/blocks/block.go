package blocks

import (
	"crypto/sha256"

	fieldparams "github.com/pharos-eth/pharos/config/fieldparams"
	"github.com/pharos-eth/pharos/consensus-types/primitives"
	"github.com/pharos-eth/pharos/container/trie"
	"github.com/pharos-eth/pharos/runtime/version"
	"github.com/pharos-eth/pharos/time/slots"
	"github.com/pkg/errors"
)

const (
	// bodyLength is the number of top-level elements in the BeaconBlockBody container.
	bodyLength    = 12
	logBodyLength = 4
	// kzgPosition is the index of the blob_kzg_commitments list in the body.
	kzgPosition = 11
	// executionPosition is the index of the execution payload in the body.
	executionPosition = 9
	// txsTrieDepth is the depth of the transactions list trie inside the payload summary.
	txsTrieDepth = 20
)

var (
	// ErrUnsupportedField is returned when a getter is called for a field
	// that does not exist in the block's fork version.
	ErrUnsupportedField = errors.New("field is not supported for this fork version")
	// ErrNilObject is returned when a nil block or body is supplied.
	ErrNilObject            = errors.New("received nil object")
	errUnsupportedVersion   = errors.New("unsupported beacon block version")
	errCommitmentsPreDeneb  = errors.New("blob kzg commitments are not supported before deneb")
	errTransactionsPreMerge = errors.New("execution transactions are not supported before bellatrix")
)

// BeaconBlockBody is a slim body carrying the fields the availability
// pipeline inspects. The remaining body fields are represented by opaque
// pre-computed roots so that body and inclusion-proof hashing stay faithful
// to the full container shape.
type BeaconBlockBody struct {
	version            int
	transactions       [][]byte
	blobKzgCommitments [][]byte
	extraFieldRoots    [bodyLength][fieldparams.RootLength]byte
}

// BeaconBlock mirrors the consensus block container, body slimmed as above.
type BeaconBlock struct {
	version       int
	slot          primitives.Slot
	proposerIndex primitives.ValidatorIndex
	parentRoot    [fieldparams.RootLength]byte
	stateRoot     [fieldparams.RootLength]byte
	body          *BeaconBlockBody
}

// SignedBeaconBlock is a BeaconBlock plus the proposer signature.
type SignedBeaconBlock struct {
	version   int
	block     *BeaconBlock
	signature [fieldparams.BLSSignatureLength]byte
}

// BlockParams collects the constructor arguments for NewSignedBeaconBlock.
type BlockParams struct {
	Slot          primitives.Slot
	ProposerIndex primitives.ValidatorIndex
	ParentRoot    [fieldparams.RootLength]byte
	StateRoot     [fieldparams.RootLength]byte
	Transactions  [][]byte
	Commitments   [][]byte
	Signature     [fieldparams.BLSSignatureLength]byte
}

// NewSignedBeaconBlock assembles a signed block of the given fork version.
// Fields that the version does not support must be empty.
func NewSignedBeaconBlock(v int, p BlockParams) (*SignedBeaconBlock, error) {
	if v < version.Phase0 || v > version.Fulu {
		return nil, errUnsupportedVersion
	}
	if v < version.Deneb && len(p.Commitments) > 0 {
		return nil, errCommitmentsPreDeneb
	}
	if v < version.Bellatrix && len(p.Transactions) > 0 {
		return nil, errTransactionsPreMerge
	}
	body := &BeaconBlockBody{
		version:            v,
		transactions:       p.Transactions,
		blobKzgCommitments: p.Commitments,
	}
	blk := &BeaconBlock{
		version:       v,
		slot:          p.Slot,
		proposerIndex: p.ProposerIndex,
		parentRoot:    p.ParentRoot,
		stateRoot:     p.StateRoot,
		body:          body,
	}
	return &SignedBeaconBlock{version: v, block: blk, signature: p.Signature}, nil
}

// BeaconBlockIsNil checks if any composite field of the signed block is nil.
func BeaconBlockIsNil(b *SignedBeaconBlock) error {
	if b == nil || b.block == nil || b.block.body == nil {
		return ErrNilObject
	}
	return nil
}

// Version of the underlying fork.
func (b *SignedBeaconBlock) Version() int { return b.version }

// Block returns the unsigned block.
func (b *SignedBeaconBlock) Block() *BeaconBlock { return b.block }

// Signature of the block by its proposer.
func (b *SignedBeaconBlock) Signature() [fieldparams.BLSSignatureLength]byte { return b.signature }

// Header returns the signed header summarizing this block.
func (b *SignedBeaconBlock) Header() (*SignedBeaconBlockHeader, error) {
	h, err := b.block.Header()
	if err != nil {
		return nil, err
	}
	return &SignedBeaconBlockHeader{Header: h, Signature: b.signature}, nil
}

// Version of the underlying fork.
func (b *BeaconBlock) Version() int { return b.version }

// Slot of the block.
func (b *BeaconBlock) Slot() primitives.Slot { return b.slot }

// Epoch of the block's slot.
func (b *BeaconBlock) Epoch() primitives.Epoch { return slots.ToEpoch(b.slot) }

// ProposerIndex of the block.
func (b *BeaconBlock) ProposerIndex() primitives.ValidatorIndex { return b.proposerIndex }

// ParentRoot of the block.
func (b *BeaconBlock) ParentRoot() [fieldparams.RootLength]byte { return b.parentRoot }

// StateRoot of the post state.
func (b *BeaconBlock) StateRoot() [fieldparams.RootLength]byte { return b.stateRoot }

// Body of the block.
func (b *BeaconBlock) Body() *BeaconBlockBody { return b.body }

// Header computes the header form of this block.
func (b *BeaconBlock) Header() (*BeaconBlockHeader, error) {
	bodyRoot, err := b.body.HashTreeRoot()
	if err != nil {
		return nil, err
	}
	return &BeaconBlockHeader{
		Slot:          b.slot,
		ProposerIndex: b.proposerIndex,
		ParentRoot:    b.parentRoot,
		StateRoot:     b.stateRoot,
		BodyRoot:      bodyRoot,
	}, nil
}

// HashTreeRoot of the block, computed through its header form.
func (b *BeaconBlock) HashTreeRoot() ([32]byte, error) {
	h, err := b.Header()
	if err != nil {
		return [32]byte{}, err
	}
	return h.HashTreeRoot()
}

// Version of the underlying fork.
func (b *BeaconBlockBody) Version() int { return b.version }

// BlobKzgCommitments returns the commitments declared by the block body.
// Only present from deneb onward.
func (b *BeaconBlockBody) BlobKzgCommitments() ([][]byte, error) {
	if b.version < version.Deneb {
		return nil, ErrUnsupportedField
	}
	return b.blobKzgCommitments, nil
}

// Transactions returns the execution payload transactions.
// Only present from bellatrix onward.
func (b *BeaconBlockBody) Transactions() ([][]byte, error) {
	if b.version < version.Bellatrix {
		return nil, ErrUnsupportedField
	}
	return b.transactions, nil
}

// HashTreeRoot merkleizes the body's top-level field roots.
func (b *BeaconBlockBody) HashTreeRoot() ([32]byte, error) {
	roots, err := topLevelRoots(b)
	if err != nil {
		return [32]byte{}, err
	}
	t, err := trie.GenerateTrieFromItems(roots, logBodyLength)
	if err != nil {
		return [32]byte{}, err
	}
	return t.Root(), nil
}

// topLevelRoots computes the roots of each element in the body container.
// Fields the slim body does not model are carried as opaque roots.
func topLevelRoots(b *BeaconBlockBody) ([][]byte, error) {
	layer := make([][]byte, bodyLength)
	for i := range layer {
		r := b.extraFieldRoots[i]
		layer[i] = make([]byte, fieldparams.RootLength)
		copy(layer[i], r[:])
	}

	if b.version >= version.Bellatrix {
		root, err := transactionsRoot(b.transactions)
		if err != nil {
			return nil, err
		}
		copy(layer[executionPosition], root[:])
	}

	if b.version >= version.Deneb {
		leaves := leavesFromCommitments(b.blobKzgCommitments)
		t, err := trie.GenerateTrieFromItems(leaves, fieldparams.LogMaxBlobCommitments)
		if err != nil {
			return nil, err
		}
		root := t.HashTreeRoot()
		copy(layer[kzgPosition], root[:])
	}
	return layer, nil
}

// transactionsRoot summarizes the payload's transaction list as an ssz list
// of per-transaction digests.
func transactionsRoot(txs [][]byte) ([32]byte, error) {
	leaves := make([][]byte, len(txs))
	for i := range txs {
		h := sha256.Sum256(txs[i])
		leaves[i] = h[:]
	}
	t, err := trie.GenerateTrieFromItems(leaves, txsTrieDepth)
	if err != nil {
		return [32]byte{}, err
	}
	return t.HashTreeRoot(), nil
}
