// Package trie defines utilities for sparse merkle tries for Ethereum
// consensus objects, in particular generating and verifying Merkle proofs of
// list membership with a fixed depth.
package trie

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/gohashtree"
)

const maxTrieDepth = 62

var (
	// ErrInvalidDepth is returned when the user provides a trie depth that
	// cannot index the requested items.
	ErrInvalidDepth = errors.New("depth must be greater than 0 and less than 63")
	errItemsTooLong = errors.New("merkle trie does not have the capacity for the given items")
	errInvalidIndex = errors.New("merkle index out of range in trie")

	zeroHashes = makeZeroHashes()
)

func makeZeroHashes() [][32]byte {
	zh := make([][32]byte, maxTrieDepth+2)
	for i := 0; i <= maxTrieDepth; i++ {
		zh[i+1] = hashPair(zh[i], zh[i])
	}
	return zh
}

func hashPair(a, b [32]byte) [32]byte {
	chunks := [][32]byte{a, b}
	digest := make([][32]byte, 1)
	gohashtree.HashChunks(digest, chunks)
	return digest[0]
}

// SparseMerkleTrie implements a sparse, general purpose Merkle trie to be
// used across Ethereum consensus functionality.
type SparseMerkleTrie struct {
	depth         uint64
	layers        [][][32]byte
	originalItems int
}

// GenerateTrieFromItems constructs a Merkle trie from a sequence of 32-byte
// leaves at a given depth. Items shorter than 32 bytes are right padded.
func GenerateTrieFromItems(items [][]byte, depth uint64) (*SparseMerkleTrie, error) {
	if depth == 0 || depth > maxTrieDepth {
		return nil, ErrInvalidDepth
	}
	if uint64(len(items)) > 1<<depth {
		return nil, errItemsTooLong
	}
	leaves := make([][32]byte, len(items))
	for i, item := range items {
		copy(leaves[i][:], item)
	}
	layers := make([][][32]byte, depth+1)
	layers[0] = leaves
	for h := uint64(0); h < depth; h++ {
		cur := layers[h]
		next := make([][32]byte, (len(cur)+1)/2)
		for i := 0; i < len(cur); i += 2 {
			left := cur[i]
			right := zeroHashes[h]
			if i+1 < len(cur) {
				right = cur[i+1]
			}
			next[i/2] = hashPair(left, right)
		}
		layers[h+1] = next
	}
	return &SparseMerkleTrie{depth: depth, layers: layers, originalItems: len(items)}, nil
}

// Root returns the raw Merkle root of the trie, without a length mixin.
// This is the hash tree root of an ssz vector or container layer.
func (m *SparseMerkleTrie) Root() [32]byte {
	if len(m.layers[m.depth]) == 0 {
		return zeroHashes[m.depth]
	}
	return m.layers[m.depth][0]
}

// HashTreeRoot returns the Merkle root with the item count mixed in,
// matching the hash tree root of an ssz list.
func (m *SparseMerkleTrie) HashTreeRoot() [32]byte {
	return mixInLength(m.Root(), uint64(m.originalItems))
}

// MerkleProof computes a proof of membership for the leaf at the given index.
// The returned branch has depth+1 elements; the final element is the length
// mixin node, which callers proving vector (not list) membership discard.
func (m *SparseMerkleTrie) MerkleProof(index int) ([][]byte, error) {
	if index < 0 || uint64(index) >= uint64(1)<<m.depth {
		return nil, errInvalidIndex
	}
	proof := make([][]byte, m.depth+1)
	idx := uint64(index)
	for h := uint64(0); h < m.depth; h++ {
		sibling := idx ^ 1
		node := zeroHashes[h]
		if sibling < uint64(len(m.layers[h])) {
			node = m.layers[h][sibling]
		}
		proof[h] = make([]byte, 32)
		copy(proof[h], node[:])
		idx >>= 1
	}
	length := make([]byte, 32)
	binary.LittleEndian.PutUint64(length[:8], uint64(m.originalItems))
	proof[m.depth] = length
	return proof, nil
}

// RootFromBranch recomputes the Merkle root implied by a leaf, its branch and
// its generalized index within a subtree of the given depth.
func RootFromBranch(leaf [32]byte, branch [][32]byte, depth uint64, index uint64) [32]byte {
	root := leaf
	for h := uint64(0); h < depth; h++ {
		if (index>>h)&1 == 1 {
			root = hashPair(branch[h], root)
		} else {
			root = hashPair(root, branch[h])
		}
	}
	return root
}

// VerifyMerkleProofWithDepth checks that item is a member of the trie with
// the given root at position merkleIndex, using exactly depth branch nodes.
func VerifyMerkleProofWithDepth(root, item [32]byte, merkleIndex uint64, proof [][32]byte, depth uint64) bool {
	if uint64(len(proof)) != depth {
		return false
	}
	return RootFromBranch(item, proof, depth, merkleIndex) == root
}

func mixInLength(root [32]byte, length uint64) [32]byte {
	var buf [64]byte
	copy(buf[:32], root[:])
	binary.LittleEndian.PutUint64(buf[32:40], length)
	return sha256.Sum256(buf[:])
}
