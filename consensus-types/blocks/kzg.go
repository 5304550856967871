package blocks

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/gohashtree"

	fieldparams "github.com/pharos-eth/pharos/config/fieldparams"
	"github.com/pharos-eth/pharos/container/trie"
	"github.com/pharos-eth/pharos/encoding/bytesutil"
	"github.com/pharos-eth/pharos/runtime/version"
)

// commitmentsTrieDepth is the depth of the blob_kzg_commitments list subtree,
// including the length mixin level.
const commitmentsTrieDepth = fieldparams.LogMaxBlobCommitments + 1

var (
	errInvalidIndex              = errors.New("index out of bounds")
	errInvalidBodyVersion        = errors.New("block body version does not support blob commitments")
	errInvalidInclusionProof     = errors.New("invalid commitment inclusion proof")
	errInvalidProofLength        = errors.New("unexpected inclusion proof length")
	errInvalidColumnProofLength  = errors.New("unexpected column inclusion proof length")
	errColumnCommitmentsMismatch = errors.New("column commitments do not match proven list root")
)

// MerkleProofKZGCommitment constructs a Merkle proof of inclusion of the KZG
// commitment of index `index` into the Beacon Block with the given `body`.
func MerkleProofKZGCommitment(body *BeaconBlockBody, index int) ([][]byte, error) {
	if body.Version() < version.Deneb {
		return nil, errInvalidBodyVersion
	}
	commitments, err := body.BlobKzgCommitments()
	if err != nil {
		return nil, err
	}
	proof, err := bodyProof(commitments, index)
	if err != nil {
		return nil, err
	}
	topProof, err := MerkleProofKZGCommitments(body)
	if err != nil {
		return nil, err
	}
	return append(proof, topProof...), nil
}

// MerkleProofKZGCommitments constructs the Merkle proof of the whole
// blob_kzg_commitments list inside the block body. This is the proof carried
// by data column sidecars, where every commitment is included.
func MerkleProofKZGCommitments(body *BeaconBlockBody) ([][]byte, error) {
	membersRoots, err := topLevelRoots(body)
	if err != nil {
		return nil, err
	}
	sparse, err := trie.GenerateTrieFromItems(membersRoots, logBodyLength)
	if err != nil {
		return nil, err
	}
	topProof, err := sparse.MerkleProof(kzgPosition)
	if err != nil {
		return nil, err
	}
	// sparse.MerkleProof always includes the length of the slice, which is
	// not needed when proving membership in a container.
	return topProof[:len(topProof)-1], nil
}

// bodyProof returns the Merkle proof of the subtree up to the root of the KZG
// commitment list, including the length mixin node.
func bodyProof(commitments [][]byte, index int) ([][]byte, error) {
	if index < 0 || index >= len(commitments) {
		return nil, errInvalidIndex
	}
	leaves := leavesFromCommitments(commitments)
	sparse, err := trie.GenerateTrieFromItems(leaves, fieldparams.LogMaxBlobCommitments)
	if err != nil {
		return nil, err
	}
	return sparse.MerkleProof(index)
}

// leavesFromCommitments hashes each commitment to construct a slice of roots.
// A 48 byte commitment occupies two ssz chunks.
func leavesFromCommitments(commitments [][]byte) [][]byte {
	leaves := make([][]byte, len(commitments))
	for i, kzg := range commitments {
		chunk := make([][32]byte, 2)
		copy(chunk[0][:], kzg)
		copy(chunk[1][:], kzg[fieldparams.RootLength:])
		gohashtree.HashChunks(chunk, chunk)
		leaves[i] = chunk[0][:]
	}
	return leaves
}

func commitmentLeaf(commitment []byte) [32]byte {
	chunk := make([][32]byte, 2)
	copy(chunk[0][:], commitment)
	copy(chunk[1][:], commitment[fieldparams.RootLength:])
	gohashtree.HashChunks(chunk, chunk)
	return chunk[0]
}

// VerifyKZGInclusionProof verifies the Merkle proof in a blob sidecar against
// the body root carried by the sidecar's signed block header.
func VerifyKZGInclusionProof(blob ROBlob) error {
	if blob.SignedBlockHeader == nil || blob.SignedBlockHeader.Header == nil {
		return errNilBlockHeader
	}
	if len(blob.CommitmentInclusionProof) != fieldparams.KzgCommitmentInclusionProofDepth {
		return errInvalidProofLength
	}
	branch := make([][32]byte, fieldparams.KzgCommitmentInclusionProofDepth)
	for i, p := range blob.CommitmentInclusionProof {
		branch[i] = bytesutil.ToBytes32(p)
	}
	// First recompute the blob_kzg_commitments list root from the lower
	// branches, then prove that root against the body root.
	leaf := commitmentLeaf(blob.KzgCommitment)
	listRoot := trie.RootFromBranch(leaf, branch[:commitmentsTrieDepth], commitmentsTrieDepth, blob.Index)
	ok := trie.VerifyMerkleProofWithDepth(
		blob.BodyRoot(),
		listRoot,
		kzgPosition,
		branch[commitmentsTrieDepth:],
		logBodyLength,
	)
	if !ok {
		return errInvalidInclusionProof
	}
	return nil
}

// VerifyKZGInclusionProofColumn verifies the Merkle proof in a data column
// sidecar, proving the whole commitments list against the body root.
func VerifyKZGInclusionProofColumn(dc RODataColumn) error {
	if len(dc.KzgCommitmentsInclusionProof) != logBodyLength {
		return errInvalidColumnProofLength
	}
	leaves := leavesFromCommitments(dc.KzgCommitments)
	sparse, err := trie.GenerateTrieFromItems(leaves, fieldparams.LogMaxBlobCommitments)
	if err != nil {
		return err
	}
	listRoot := sparse.HashTreeRoot()
	branch := make([][32]byte, logBodyLength)
	for i, p := range dc.KzgCommitmentsInclusionProof {
		branch[i] = bytesutil.ToBytes32(p)
	}
	if !trie.VerifyMerkleProofWithDepth(dc.BodyRoot(), listRoot, kzgPosition, branch, logBodyLength) {
		return errColumnCommitmentsMismatch
	}
	return nil
}
