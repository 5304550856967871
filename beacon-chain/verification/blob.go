package verification

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/pharos-eth/pharos/beacon-chain/cache"
	"github.com/pharos-eth/pharos/beacon-chain/core/signing"
	"github.com/pharos-eth/pharos/beacon-chain/das"
	"github.com/pharos-eth/pharos/config/params"
	"github.com/pharos-eth/pharos/consensus-types/blocks"
	"github.com/pharos-eth/pharos/consensus-types/primitives"
	"github.com/pharos-eth/pharos/crypto/bls"
	"github.com/pharos-eth/pharos/runtime/logging"
	"github.com/pharos-eth/pharos/time/slots"
)

// BlobValidator performs gossip-stage validation of blob sidecars and of
// blocks that arrive with sidecars attached. No kzg check happens at this
// stage; that is deferred to certification, run once a full slot-matched
// bundle is assembled.
type BlobValidator struct {
	shared *sharedResources
}

// ValidateBlobForGossip checks the timing consistency of a sidecar-carrying
// block wrapper and then runs it through certification. The wrapper's
// sidecars must not claim a slot in the future and must agree with the
// block's own slot.
func (v *BlobValidator) ValidateBlobForGossip(ctx context.Context, w das.BlockWrapper) (das.AvailableBlock, error) {
	if blobs, ok := w.Blobs(); ok {
		maxSlot, err := v.shared.clock.MaxPermissibleSlot()
		if err != nil {
			return das.AvailableBlock{}, err
		}
		for _, sc := range blobs {
			if sc.Slot() > maxSlot {
				return das.AvailableBlock{}, &FutureSlotError{Max: maxSlot, Received: sc.Slot()}
			}
			if sc.Slot() != w.Slot() {
				return das.AvailableBlock{}, &SlotMismatchError{BlockSlot: w.Slot(), SidecarSlot: sc.Slot()}
			}
		}
	}
	return das.IntoAvailableBlock(w, v.shared.clock.CurrentSlot())
}

// ValidateBlobSidecarForGossip runs the gossip acceptance checks for a single
// sidecar received on the given subnet. Checks run in strict order, each
// rejection carrying distinct peer-scoring semantics. The known-block check
// runs last on purpose: a sidecar that fails only that check can still be
// relayed, since it may simply have arrived ahead of its block.
func (v *BlobValidator) ValidateBlobSidecarForGossip(ctx context.Context, sc blocks.ROBlob, subnet uint64) error {
	if subnet != sc.Index {
		return &InvalidSubnetError{Expected: sc.Index, Received: subnet}
	}
	maxSlot, err := v.shared.clock.MaxPermissibleSlot()
	if err != nil {
		return err
	}
	if sc.Slot() > maxSlot {
		return &FutureSlotError{Max: maxSlot, Received: sc.Slot()}
	}
	if finalized := v.shared.fc.FinalizedSlot(); sc.Slot() <= finalized {
		return &PastFinalizedSlotError{Finalized: finalized, Received: sc.Slot()}
	}
	expected, err := v.expectedProposer(ctx, sc.ParentRoot(), sc.Slot())
	if err != nil {
		return err
	}
	if expected != sc.ProposerIndex() {
		return &ProposerIndexMismatchError{Sidecar: sc.ProposerIndex(), Local: expected}
	}
	if err := v.verifyProposerSignature(sc); err != nil {
		return err
	}
	// Recorded only after the identity checks, so that forged sidecars
	// cannot poison the equivocation tracker for the honest proposer.
	if err := v.markSidecarSeen(sc); err != nil {
		return err
	}
	if !v.shared.bi.HasBlock(sc.BlockRoot()) && !v.shared.fc.HasNode(sc.BlockRoot()) {
		log.WithFields(logging.BlobFields(sc)).Debug("Sidecar received before its block")
		return &UnknownHeadBlockError{BlockRoot: sc.BlockRoot()}
	}
	return nil
}

// expectedProposer resolves the proposer for (parent root, slot), preferring
// the proposer cache and falling back to a head state computation on miss.
func (v *BlobValidator) expectedProposer(ctx context.Context, parentRoot [32]byte, slot primitives.Slot) (primitives.ValidatorIndex, error) {
	if idx, ok := v.shared.pc.Proposer(parentRoot, slot); ok {
		return idx, nil
	}
	idx, err := v.shared.pr.SlotProposer(ctx, parentRoot, slot)
	if err != nil {
		return 0, errors.Wrap(err, "could not compute proposer from head state")
	}
	v.shared.pc.SetProposer(parentRoot, slot, idx)
	return idx, nil
}

// verifyProposerSignature checks the sidecar header signature against the
// proposer's key at the fork of the sidecar's slot. The pubkey lookup waits
// at most DefaultPubkeyWait for the registry lock; a timeout is surfaced as
// is and must be treated as retriable, not as a peer fault.
func (v *BlobValidator) verifyProposerSignature(sc blocks.ROBlob) error {
	pk, err := v.shared.pk.Pubkey(sc.ProposerIndex(), cache.DefaultPubkeyWait)
	if err != nil {
		return err
	}
	epoch := slots.ToEpoch(sc.Slot())
	fork := params.BeaconConfig().ForkVersionAtEpoch(epoch)
	domain := signing.ComputeDomain(params.BeaconConfig().DomainBeaconProposer, fork, v.shared.clock.GenesisValidatorsRoot())
	headerRoot, err := sc.SignedBlockHeader.Header.HashTreeRoot()
	if err != nil {
		return errors.Wrap(err, "could not hash sidecar header")
	}
	signingRoot := signing.ComputeSigningRoot(headerRoot, domain)
	sig := sc.SignedBlockHeader.Signature
	ok, err := bls.VerifySignature(sig[:], signingRoot[:], pk[:])
	if err != nil || !ok {
		return ErrProposerSignatureInvalid
	}
	return nil
}

// markSidecarSeen enforces the per (proposer, slot, index) uniqueness of
// sidecars. A repeat is either a gossip replay or a proposer equivocation;
// both are rejected.
func (v *BlobValidator) markSidecarSeen(sc blocks.ROBlob) error {
	key := seenKey{proposer: sc.ProposerIndex(), slot: sc.Slot(), index: sc.Index}
	if seen, ok := v.shared.seenSide.Get(key); ok {
		return &RepeatSidecarError{
			Proposer: sc.ProposerIndex(),
			Slot:     sc.Slot(),
			Index:    sc.Index,
			Seen:     seen,
		}
	}
	var commitment [48]byte
	copy(commitment[:], sc.KzgCommitment)
	v.shared.seenSide.Add(key, commitment)
	return nil
}
