// Package das implements the data availability policy for blocks: the
// untrusted/certified block representations, the single certification entry
// point, and the availability verifier that proves a block's blobs are
// consistent with its declared commitments.
package das

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrKzgCommitmentMissing is returned when a block from a fork that
	// carries blob commitments does not expose its commitment list.
	ErrKzgCommitmentMissing = errors.New("block is missing its kzg commitment list")
	// ErrTransactionsMissing is returned when a post-merge block does not
	// expose its execution payload transactions.
	ErrTransactionsMissing = errors.New("block is missing its execution payload transactions")
	// ErrInconsistentFork is returned when sidecars accompany a block from a
	// fork that does not support them. This is a hard, block-level fault.
	ErrInconsistentFork = errors.New("sidecars supplied for a fork without blob support")
	// ErrCommitmentsNotEmpty guards the no-sidecar certification path: a
	// block that declares commitments cannot be certified without its blobs.
	ErrCommitmentsNotEmpty = errors.New("block declares commitments but no sidecars were supplied")
	// ErrInvalidKzgProof marks a cryptographic proof failure. Block-level
	// consensus-invalidity signal, not just a gossip drop.
	ErrInvalidKzgProof = errors.New("kzg proof verification failed")
	// ErrKzgError marks a verifier-internal failure. Not evidence the peer
	// or the block is faulty.
	ErrKzgError = errors.New("internal kzg verifier error")
	// ErrSidecarBlockMismatch is returned when a sidecar's recomputed block
	// root or slot does not match the block it was supplied with, which
	// would allow replaying proofs from a different block.
	ErrSidecarBlockMismatch = errors.New("sidecar does not match the supplied block")
)

// TransactionCommitmentMismatchError is returned when the versioned hashes
// declared by the payload's blob transactions do not match the block body's
// commitment list.
type TransactionCommitmentMismatchError struct {
	Expected [][32]byte // hashes derived from the body's commitments
	Received [][32]byte // hashes declared by the payload transactions
}

func (e *TransactionCommitmentMismatchError) Error() string {
	return fmt.Sprintf("transaction versioned hashes do not match block commitments, expected %d hashes, received %d",
		len(e.Expected), len(e.Received))
}

// MissingIndicesError is returned when the supplied sidecar set does not
// cover every commitment index the block declares.
type MissingIndicesError struct {
	Root    [32]byte
	Missing []uint64
}

func (e *MissingIndicesError) Error() string {
	return fmt.Sprintf("block %#x is missing sidecars for indices %v", e.Root, e.Missing)
}
