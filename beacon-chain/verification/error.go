// Package verification decides whether inbound sidecars are trustworthy
// enough to process and re-relay, classifying failures by whether they are
// evidence of a faulty peer.
package verification

import (
	"fmt"

	"github.com/pkg/errors"

	fieldparams "github.com/pharos-eth/pharos/config/fieldparams"
	"github.com/pharos-eth/pharos/consensus-types/primitives"
)

var (
	// ErrBlobInvalid is the parent of all sidecar rejection reasons that
	// indicate a faulty peer or a forged message.
	ErrBlobInvalid = errors.New("blob failed verification")
	// ErrFutureSlot means the sidecar's slot is beyond the local clock plus
	// the permitted disparity.
	ErrFutureSlot = errors.Wrap(ErrBlobInvalid, "sidecar slot is too far in the future")
	// ErrSlotMismatch means a sidecar's slot disagrees with its block's.
	ErrSlotMismatch = errors.Wrap(ErrBlobInvalid, "sidecar slot does not match block slot")
	// ErrPastFinalizedSlot means the sidecar references an already finalized
	// slot and is stale.
	ErrPastFinalizedSlot = errors.Wrap(ErrBlobInvalid, "sidecar slot is not after the finalized slot")
	// ErrInvalidSubnet means the sidecar arrived on the wrong gossip subnet.
	ErrInvalidSubnet = errors.Wrap(ErrBlobInvalid, "sidecar index does not match subnet")
	// ErrProposerIndexMismatch means the sidecar's declared proposer is not
	// the proposer the local shuffle expects.
	ErrProposerIndexMismatch = errors.Wrap(ErrBlobInvalid, "sidecar proposer index does not match expected proposer")
	// ErrProposerSignatureInvalid means the header signature did not verify
	// against the proposer's key.
	ErrProposerSignatureInvalid = errors.Wrap(ErrBlobInvalid, "header signature is invalid")
	// ErrRepeatSidecar means a sidecar for the same (proposer, slot, index)
	// was already seen, which is either a replay or an equivocation.
	ErrRepeatSidecar = errors.Wrap(ErrBlobInvalid, "sidecar for this proposer, slot and index was already seen")
	// ErrUnknownHeadBlock means the referenced block is not (yet) known
	// locally. Not conclusive evidence of a peer fault: the sidecar may have
	// outrun its block.
	ErrUnknownHeadBlock = errors.New("sidecar references an unknown block")
)

// FutureSlotError carries the permissible and received slots for scoring.
type FutureSlotError struct {
	Max      primitives.Slot
	Received primitives.Slot
}

func (e *FutureSlotError) Error() string {
	return fmt.Sprintf("sidecar slot %d exceeds max permissible slot %d", e.Received, e.Max)
}

func (*FutureSlotError) Unwrap() error { return ErrFutureSlot }

// SlotMismatchError carries the block and sidecar slots.
type SlotMismatchError struct {
	BlockSlot   primitives.Slot
	SidecarSlot primitives.Slot
}

func (e *SlotMismatchError) Error() string {
	return fmt.Sprintf("sidecar slot %d does not match block slot %d", e.SidecarSlot, e.BlockSlot)
}

func (*SlotMismatchError) Unwrap() error { return ErrSlotMismatch }

// PastFinalizedSlotError carries the finalized and received slots.
type PastFinalizedSlotError struct {
	Finalized primitives.Slot
	Received  primitives.Slot
}

func (e *PastFinalizedSlotError) Error() string {
	return fmt.Sprintf("sidecar slot %d is not after finalized slot %d", e.Received, e.Finalized)
}

func (*PastFinalizedSlotError) Unwrap() error { return ErrPastFinalizedSlot }

// InvalidSubnetError carries the expected and received subnet ids.
type InvalidSubnetError struct {
	Expected uint64
	Received uint64
}

func (e *InvalidSubnetError) Error() string {
	return fmt.Sprintf("sidecar index %d does not match subnet %d", e.Expected, e.Received)
}

func (*InvalidSubnetError) Unwrap() error { return ErrInvalidSubnet }

// ProposerIndexMismatchError carries the sidecar's declared proposer and the
// locally computed one.
type ProposerIndexMismatchError struct {
	Sidecar primitives.ValidatorIndex
	Local   primitives.ValidatorIndex
}

func (e *ProposerIndexMismatchError) Error() string {
	return fmt.Sprintf("sidecar proposer index %d, expected %d", e.Sidecar, e.Local)
}

func (*ProposerIndexMismatchError) Unwrap() error { return ErrProposerIndexMismatch }

// UnknownHeadBlockError carries the unknown root so callers can schedule a
// block lookup.
type UnknownHeadBlockError struct {
	BlockRoot [fieldparams.RootLength]byte
}

func (e *UnknownHeadBlockError) Error() string {
	return fmt.Sprintf("unknown block %#x", e.BlockRoot)
}

func (*UnknownHeadBlockError) Unwrap() error { return ErrUnknownHeadBlock }

// RepeatSidecarError identifies the equivocating triple and the commitment
// seen first.
type RepeatSidecarError struct {
	Proposer primitives.ValidatorIndex
	Slot     primitives.Slot
	Index    uint64
	Seen     [fieldparams.KzgCommitmentLength]byte
}

func (e *RepeatSidecarError) Error() string {
	return fmt.Sprintf("sidecar already seen for proposer %d, slot %d, index %d", e.Proposer, e.Slot, e.Index)
}

func (*RepeatSidecarError) Unwrap() error { return ErrRepeatSidecar }
