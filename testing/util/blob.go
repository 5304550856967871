// Package util provides generators for test fixtures: valid blobs, blob
// transactions, and blocks paired with consistent sidecars.
package util

import (
	"crypto/sha256"
	"math/rand"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/pharos-eth/pharos/beacon-chain/kzg"
	fieldparams "github.com/pharos-eth/pharos/config/fieldparams"
	"github.com/pharos-eth/pharos/consensus-types/blocks"
	"github.com/pharos-eth/pharos/consensus-types/primitives"
	"github.com/pharos-eth/pharos/runtime/version"
)

// RandomBlob returns a deterministic pseudo-random blob for the seed. The
// leading byte of every field element is zeroed so the element stays below
// the scalar field modulus and the blob is accepted by the kzg library.
func RandomBlob(seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	blob := make([]byte, fieldparams.BlobLength)
	r.Read(blob)
	for i := 0; i < fieldparams.BlobLength; i += 32 {
		blob[i] = 0
	}
	return blob
}

// BlobTxForCommitments builds a marshaled blob transaction whose versioned
// hashes reference exactly the given commitments, in order.
func BlobTxForCommitments(commitments [][]byte) ([]byte, error) {
	hashes := make([]common.Hash, len(commitments))
	for i, c := range commitments {
		h := common.Hash(sha256.Sum256(c))
		h[0] = 0x01
		hashes[i] = h
	}
	tx := gethtypes.NewTx(&gethtypes.BlobTx{
		ChainID:    uint256.NewInt(1),
		Nonce:      0,
		GasTipCap:  uint256.NewInt(1),
		GasFeeCap:  uint256.NewInt(1),
		Gas:        21000,
		To:         common.Address{},
		Value:      uint256.NewInt(0),
		BlobFeeCap: uint256.NewInt(1),
		BlobHashes: hashes,
		V:          uint256.NewInt(0),
		R:          uint256.NewInt(1),
		S:          uint256.NewInt(1),
	})
	return tx.MarshalBinary()
}

// GenerateBlockWithBlobs builds a block at the given slot committing to
// nblobs deterministic blobs, along with the matching sidecar bundle. The
// commitments, proofs and inclusion proofs are all honestly computed, so the
// pair passes availability verification. The kzg trusted setup must be
// loaded before calling this.
func GenerateBlockWithBlobs(slot primitives.Slot, nblobs int) (blocks.ROBlock, []blocks.ROBlob, error) {
	rawBlobs := make([][]byte, nblobs)
	commitments := make([][]byte, nblobs)
	proofs := make([][]byte, nblobs)
	for i := 0; i < nblobs; i++ {
		rawBlobs[i] = RandomBlob(int64(i + 1))
		commitment, err := kzg.BlobToKZGCommitment(rawBlobs[i])
		if err != nil {
			return blocks.ROBlock{}, nil, errors.Wrap(err, "could not commit to blob")
		}
		proof, err := kzg.ComputeBlobKZGProof(rawBlobs[i], commitment[:])
		if err != nil {
			return blocks.ROBlock{}, nil, errors.Wrap(err, "could not prove blob")
		}
		commitments[i] = commitment[:]
		proofs[i] = proof[:]
	}
	var txs [][]byte
	if nblobs > 0 {
		tx, err := BlobTxForCommitments(commitments)
		if err != nil {
			return blocks.ROBlock{}, nil, errors.Wrap(err, "could not build blob transaction")
		}
		txs = [][]byte{tx}
	}
	sb, err := blocks.NewSignedBeaconBlock(version.Deneb, blocks.BlockParams{
		Slot:         slot,
		Transactions: txs,
		Commitments:  commitments,
		Signature:    [fieldparams.BLSSignatureLength]byte{0x01},
	})
	if err != nil {
		return blocks.ROBlock{}, nil, err
	}
	blk, err := blocks.NewROBlock(sb)
	if err != nil {
		return blocks.ROBlock{}, nil, err
	}
	sidecars, err := SidecarsForBlock(blk, rawBlobs, proofs)
	if err != nil {
		return blocks.ROBlock{}, nil, err
	}
	return blk, sidecars, nil
}

// SidecarsForBlock builds the sidecar bundle for a block from its blobs and
// blob proofs, computing each sidecar's commitment inclusion proof.
func SidecarsForBlock(blk blocks.ROBlock, rawBlobs, proofs [][]byte) ([]blocks.ROBlob, error) {
	body := blk.Block().Body()
	commitments, err := body.BlobKzgCommitments()
	if err != nil {
		return nil, err
	}
	header, err := blk.Header()
	if err != nil {
		return nil, err
	}
	sidecars := make([]blocks.ROBlob, len(rawBlobs))
	for i := range rawBlobs {
		inclusion, err := blocks.MerkleProofKZGCommitment(body, i)
		if err != nil {
			return nil, err
		}
		sc, err := blocks.NewROBlob(&blocks.BlobSidecar{
			Index:                    uint64(i),
			Blob:                     rawBlobs[i],
			KzgCommitment:            commitments[i],
			KzgProof:                 proofs[i],
			SignedBlockHeader:        header,
			CommitmentInclusionProof: inclusion,
		})
		if err != nil {
			return nil, err
		}
		sidecars[i] = sc
	}
	return sidecars, nil
}
