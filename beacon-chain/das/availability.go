package das

import (
	"bytes"
	"crypto/sha256"

	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"github.com/pharos-eth/pharos/beacon-chain/kzg"
	"github.com/pharos-eth/pharos/config/params"
	"github.com/pharos-eth/pharos/consensus-types/blocks"
	"github.com/pharos-eth/pharos/consensus-types/primitives"
	"github.com/pharos-eth/pharos/runtime/version"
	"github.com/pharos-eth/pharos/time/slots"
)

// blobCommitmentVersionKZG is the leading byte of a versioned hash derived
// from a kzg commitment.
const blobCommitmentVersionKZG byte = 0x01

// DataAvailabilityCheckRequired reports whether a block at blockEpoch must
// have its blob data verified before import, given the current epoch. When no
// availability boundary is configured the check is never required.
func DataAvailabilityCheckRequired(blockEpoch, currentEpoch primitives.Epoch) bool {
	boundary, ok := params.BeaconConfig().DataAvailabilityBoundary(currentEpoch)
	if !ok {
		return false
	}
	return blockEpoch >= boundary
}

// IntoAvailableBlock is the sole certification path from a BlockWrapper to an
// AvailableBlock. It consumes the wrapper: when availability is required the
// attached sidecars are verified against the block; when it is not required
// any attached sidecars are discarded, since unverified blobs must never
// masquerade as certified. A block that requires availability but arrived
// without sidecars can only be certified if its commitment list is empty, in
// which case the degenerate empty bundle is synthesized.
func IntoAvailableBlock(w BlockWrapper, current primitives.Slot) (AvailableBlock, error) {
	required := DataAvailabilityCheckRequired(w.Epoch(), slots.ToEpoch(current))
	blk := w.Block()
	blobs, hasBlobs := w.Blobs()
	if !required {
		return AvailableBlock{block: blk}, nil
	}
	if !hasBlobs {
		commitments, err := blk.Block().Body().BlobKzgCommitments()
		if err != nil {
			return AvailableBlock{}, errors.Wrap(ErrKzgCommitmentMissing, err.Error())
		}
		if len(commitments) > 0 {
			return AvailableBlock{}, ErrCommitmentsNotEmpty
		}
		return AvailableBlock{block: blk, blobs: []blocks.VerifiedROBlob{}, hasBlobs: true}, nil
	}
	if err := VerifyAvailability(blk, blobs); err != nil {
		return AvailableBlock{}, err
	}
	verified := make([]blocks.VerifiedROBlob, len(blobs))
	for i := range blobs {
		verified[i] = blocks.NewVerifiedROBlob(blobs[i])
	}
	return AvailableBlock{block: blk, blobs: verified, hasBlobs: true}, nil
}

// NewAvailableBlock wraps a block with sidecars the caller has already
// verified. Supplying sidecars for a fork without blob support is a hard
// error: such a pairing cannot have passed verification.
func NewAvailableBlock(blk blocks.ROBlock, blobs []blocks.VerifiedROBlob) (AvailableBlock, error) {
	if blk.Version() < version.Deneb && len(blobs) > 0 {
		return AvailableBlock{}, ErrInconsistentFork
	}
	if blobs == nil {
		return AvailableBlock{block: blk}, nil
	}
	return AvailableBlock{block: blk, blobs: blobs, hasBlobs: true}, nil
}

// VerifyAvailability proves that the (commitments, transactions, blobs)
// triple of a block is self-consistent. Checks run in order and short-circuit
// on the first failure:
//  1. every blob transaction in the payload references exactly the body's
//     commitment list, in order, by versioned hash
//  2. the kzg trusted setup is loaded
//  3. the batched opening proof check passes, with each sidecar first bound
//     to this block's root and slot so proofs cannot be replayed from a
//     different block
func VerifyAvailability(blk blocks.ROBlock, sidecars []blocks.ROBlob) error {
	body := blk.Block().Body()
	commitments, err := body.BlobKzgCommitments()
	if err != nil {
		return errors.Wrap(ErrKzgCommitmentMissing, err.Error())
	}
	txs, err := body.Transactions()
	if err != nil {
		return errors.Wrap(ErrTransactionsMissing, err.Error())
	}
	if err := verifyCommitmentsAgainstTransactions(commitments, txs); err != nil {
		return err
	}
	if !kzg.IsInitialized() {
		return kzg.ErrTrustedSetupNotInitialized
	}
	if len(sidecars) > len(commitments) {
		return errors.Wrapf(ErrSidecarBlockMismatch, "expected %d sidecars, received %d", len(commitments), len(sidecars))
	}
	if len(sidecars) < len(commitments) {
		present := make(map[uint64]bool, len(sidecars))
		for _, sc := range sidecars {
			present[sc.Index] = true
		}
		missing := make([]uint64, 0, len(commitments)-len(sidecars))
		for i := uint64(0); i < uint64(len(commitments)); i++ {
			if !present[i] {
				missing = append(missing, i)
			}
		}
		return &MissingIndicesError{Root: blk.Root(), Missing: missing}
	}
	blockRoot := blk.Root()
	blockSlot := blk.Block().Slot()
	for i, sc := range sidecars {
		if sc.BlockRoot() != blockRoot {
			return errors.Wrapf(ErrSidecarBlockMismatch, "sidecar %d root %#x does not match block root %#x", i, sc.BlockRoot(), blockRoot)
		}
		if sc.Slot() != blockSlot {
			return errors.Wrapf(ErrSidecarBlockMismatch, "sidecar %d slot %d does not match block slot %d", i, sc.Slot(), blockSlot)
		}
		if sc.Index != uint64(i) {
			return errors.Wrapf(ErrSidecarBlockMismatch, "sidecar at position %d has index %d", i, sc.Index)
		}
		if !bytes.Equal(sc.KzgCommitment, commitments[i]) {
			return errors.Wrapf(ErrSidecarBlockMismatch, "sidecar %d commitment does not match block commitment", i)
		}
	}
	if err := kzg.BisectBlobSidecarKzgProofs(sidecars); err != nil {
		var proofErr *kzg.KzgProofError
		if errors.As(err, &proofErr) {
			return errors.Wrap(ErrInvalidKzgProof, err.Error())
		}
		return errors.Wrap(ErrKzgError, err.Error())
	}
	return nil
}

// verifyCommitmentsAgainstTransactions checks that the versioned hashes
// referenced by the payload's blob transactions match the body's commitment
// list exactly, in order.
func verifyCommitmentsAgainstTransactions(commitments, txs [][]byte) error {
	received := make([][32]byte, 0, len(commitments))
	for _, raw := range txs {
		tx := new(gethtypes.Transaction)
		if err := tx.UnmarshalBinary(raw); err != nil {
			return errors.Wrap(ErrTransactionsMissing, "could not decode payload transaction")
		}
		for _, h := range tx.BlobHashes() {
			received = append(received, [32]byte(h))
		}
	}
	expected := make([][32]byte, len(commitments))
	for i, c := range commitments {
		expected[i] = kzgToVersionedHash(c)
	}
	if len(expected) != len(received) {
		return &TransactionCommitmentMismatchError{Expected: expected, Received: received}
	}
	for i := range expected {
		if expected[i] != received[i] {
			return &TransactionCommitmentMismatchError{Expected: expected, Received: received}
		}
	}
	return nil
}

func kzgToVersionedHash(commitment []byte) [32]byte {
	h := sha256.Sum256(commitment)
	h[0] = blobCommitmentVersionKZG
	return h
}
