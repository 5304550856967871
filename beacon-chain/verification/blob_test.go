package verification

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/pharos-eth/pharos/beacon-chain/cache"
	"github.com/pharos-eth/pharos/beacon-chain/core/signing"
	"github.com/pharos-eth/pharos/beacon-chain/das"
	"github.com/pharos-eth/pharos/beacon-chain/startup"
	fieldparams "github.com/pharos-eth/pharos/config/fieldparams"
	"github.com/pharos-eth/pharos/config/params"
	"github.com/pharos-eth/pharos/consensus-types/blocks"
	"github.com/pharos-eth/pharos/consensus-types/primitives"
	"github.com/pharos-eth/pharos/crypto/bls"
	"github.com/pharos-eth/pharos/runtime/version"
	"github.com/pharos-eth/pharos/time/slots"
)

type mockForkchoicer struct {
	finalized primitives.Slot
	nodes     map[[32]byte]bool
}

func (m *mockForkchoicer) FinalizedSlot() primitives.Slot { return m.finalized }
func (m *mockForkchoicer) HasNode(root [32]byte) bool     { return m.nodes[root] }

type mockBlockInformer struct {
	known map[[32]byte]bool
}

func (m *mockBlockInformer) HasBlock(root [32]byte) bool { return m.known[root] }

type mockProposerResolver struct {
	idx   primitives.ValidatorIndex
	err   error
	calls int
}

func (m *mockProposerResolver) SlotProposer(_ context.Context, _ [32]byte, _ primitives.Slot) (primitives.ValidatorIndex, error) {
	m.calls++
	return m.idx, m.err
}

type validatorHarness struct {
	v        *BlobValidator
	fc       *mockForkchoicer
	bi       *mockBlockInformer
	resolver *mockProposerResolver
	pubkeys  *cache.ValidatorPubkeyCache
	clock    *startup.Clock
	gvr      [32]byte
}

func newHarness(t *testing.T, proposer primitives.ValidatorIndex, currentSlot primitives.Slot) *validatorHarness {
	genesis := time.Unix(1000, 0)
	now := genesis.Add(time.Duration(currentSlot) * time.Duration(params.BeaconConfig().SecondsPerSlot) * time.Second)
	gvr := [32]byte{0xde, 0xad}
	clock := startup.NewClock(genesis, gvr, startup.WithNower(func() time.Time { return now }))

	pc, err := cache.NewProposerIndexCache()
	require.NoError(t, err)
	pk := cache.NewValidatorPubkeyCache()
	fc := &mockForkchoicer{nodes: map[[32]byte]bool{}}
	bi := &mockBlockInformer{known: map[[32]byte]bool{}}
	resolver := &mockProposerResolver{idx: proposer}

	ini, err := NewInitializer(clock, fc, bi, pc, pk, resolver)
	require.NoError(t, err)
	return &validatorHarness{
		v:        ini.NewBlobValidator(),
		fc:       fc,
		bi:       bi,
		resolver: resolver,
		pubkeys:  pk,
		clock:    clock,
		gvr:      gvr,
	}
}

func signedSidecar(t *testing.T, sk *bls.SecretKey, gvr [32]byte, proposer primitives.ValidatorIndex, slot primitives.Slot, idx uint64) blocks.ROBlob {
	header := &blocks.BeaconBlockHeader{
		Slot:          slot,
		ProposerIndex: proposer,
		ParentRoot:    [32]byte{0x0a},
		StateRoot:     [32]byte{0x0b},
		BodyRoot:      [32]byte{0x0c},
	}
	root, err := header.HashTreeRoot()
	require.NoError(t, err)
	fork := params.BeaconConfig().ForkVersionAtEpoch(slots.ToEpoch(slot))
	domain := signing.ComputeDomain(params.BeaconConfig().DomainBeaconProposer, fork, gvr)
	signingRoot := signing.ComputeSigningRoot(root, domain)
	sig := sk.Sign(signingRoot[:])

	sh := &blocks.SignedBeaconBlockHeader{Header: header}
	copy(sh.Signature[:], sig.Marshal())
	commitment := make([]byte, fieldparams.KzgCommitmentLength)
	commitment[0] = byte(idx + 1)
	sc, err := blocks.NewROBlob(&blocks.BlobSidecar{
		Index:             idx,
		KzgCommitment:     commitment,
		SignedBlockHeader: sh,
	})
	require.NoError(t, err)
	return sc
}

func setupKey(t *testing.T, h *validatorHarness, proposer primitives.ValidatorIndex) *bls.SecretKey {
	sk, err := bls.RandKey()
	require.NoError(t, err)
	var pk [fieldparams.BLSPubkeyLength]byte
	copy(pk[:], sk.PublicKey().Marshal())
	h.pubkeys.SetPubkey(proposer, pk)
	return sk
}

func TestValidateBlobSidecarForGossip_Accepts(t *testing.T) {
	useConfig(t, params.MinimalTestConfig())
	const proposer = primitives.ValidatorIndex(7)
	h := newHarness(t, proposer, 33)
	sk := setupKey(t, h, proposer)
	sc := signedSidecar(t, sk, h.gvr, proposer, 33, 2)
	h.fc.finalized = 31
	h.fc.nodes[sc.BlockRoot()] = true

	require.NoError(t, h.v.ValidateBlobSidecarForGossip(context.Background(), sc, 2))
	// The resolver computed the proposer once; the cache answers after that.
	require.Equal(t, 1, h.resolver.calls)
	sc2 := signedSidecar(t, sk, h.gvr, proposer, 33, 3)
	require.NoError(t, h.v.ValidateBlobSidecarForGossip(context.Background(), sc2, 3))
	require.Equal(t, 1, h.resolver.calls)
}

func TestValidateBlobSidecarForGossip_WrongSubnet(t *testing.T) {
	useConfig(t, params.MinimalTestConfig())
	const proposer = primitives.ValidatorIndex(7)
	h := newHarness(t, proposer, 33)
	sk := setupKey(t, h, proposer)
	sc := signedSidecar(t, sk, h.gvr, proposer, 33, 2)

	err := h.v.ValidateBlobSidecarForGossip(context.Background(), sc, 5)
	require.ErrorIs(t, err, ErrInvalidSubnet)
	require.ErrorIs(t, err, ErrBlobInvalid)
	var subnetErr *InvalidSubnetError
	require.ErrorAs(t, err, &subnetErr)
	require.Equal(t, uint64(2), subnetErr.Expected)
	require.Equal(t, uint64(5), subnetErr.Received)
}

func TestValidateBlobSidecarForGossip_FutureSlot(t *testing.T) {
	useConfig(t, params.MinimalTestConfig())
	const proposer = primitives.ValidatorIndex(7)
	h := newHarness(t, proposer, 10)
	sk := setupKey(t, h, proposer)
	sc := signedSidecar(t, sk, h.gvr, proposer, 20, 0)

	err := h.v.ValidateBlobSidecarForGossip(context.Background(), sc, 0)
	require.ErrorIs(t, err, ErrFutureSlot)
	var futureErr *FutureSlotError
	require.ErrorAs(t, err, &futureErr)
	require.Equal(t, primitives.Slot(20), futureErr.Received)
}

func TestValidateBlobSidecarForGossip_PastFinalized(t *testing.T) {
	useConfig(t, params.MinimalTestConfig())
	const proposer = primitives.ValidatorIndex(7)
	h := newHarness(t, proposer, 40)
	sk := setupKey(t, h, proposer)
	sc := signedSidecar(t, sk, h.gvr, proposer, 33, 0)
	h.fc.finalized = 33

	err := h.v.ValidateBlobSidecarForGossip(context.Background(), sc, 0)
	require.ErrorIs(t, err, ErrPastFinalizedSlot)
}

func TestValidateBlobSidecarForGossip_ProposerMismatch(t *testing.T) {
	useConfig(t, params.MinimalTestConfig())
	const proposer = primitives.ValidatorIndex(7)
	h := newHarness(t, primitives.ValidatorIndex(9), 33)
	sk := setupKey(t, h, proposer)
	sc := signedSidecar(t, sk, h.gvr, proposer, 33, 0)
	h.fc.finalized = 31

	err := h.v.ValidateBlobSidecarForGossip(context.Background(), sc, 0)
	require.ErrorIs(t, err, ErrProposerIndexMismatch)
	var mismatch *ProposerIndexMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, proposer, mismatch.Sidecar)
	require.Equal(t, primitives.ValidatorIndex(9), mismatch.Local)
}

func TestValidateBlobSidecarForGossip_BadSignature(t *testing.T) {
	useConfig(t, params.MinimalTestConfig())
	const proposer = primitives.ValidatorIndex(7)
	h := newHarness(t, proposer, 33)
	setupKey(t, h, proposer)
	// Signed with a key that is not the registered proposer key.
	wrongKey, err := bls.RandKey()
	require.NoError(t, err)
	sc := signedSidecar(t, wrongKey, h.gvr, proposer, 33, 0)
	h.fc.finalized = 31

	require.ErrorIs(t, h.v.ValidateBlobSidecarForGossip(context.Background(), sc, 0), ErrProposerSignatureInvalid)
}

func TestValidateBlobSidecarForGossip_IdentityChecksBeforeUnknownBlock(t *testing.T) {
	useConfig(t, params.MinimalTestConfig())
	const proposer = primitives.ValidatorIndex(7)
	h := newHarness(t, proposer, 33)
	setupKey(t, h, proposer)
	wrongKey, err := bls.RandKey()
	require.NoError(t, err)
	sc := signedSidecar(t, wrongKey, h.gvr, proposer, 33, 0)
	h.fc.finalized = 31
	// The block is unknown too; the identity failure must win.
	err = h.v.ValidateBlobSidecarForGossip(context.Background(), sc, 0)
	require.ErrorIs(t, err, ErrProposerSignatureInvalid)
	require.False(t, errors.Is(err, ErrUnknownHeadBlock))
}

func TestValidateBlobSidecarForGossip_UnknownBlock(t *testing.T) {
	useConfig(t, params.MinimalTestConfig())
	const proposer = primitives.ValidatorIndex(7)
	h := newHarness(t, proposer, 33)
	sk := setupKey(t, h, proposer)
	sc := signedSidecar(t, sk, h.gvr, proposer, 33, 0)
	h.fc.finalized = 31

	err := h.v.ValidateBlobSidecarForGossip(context.Background(), sc, 0)
	require.ErrorIs(t, err, ErrUnknownHeadBlock)
	var unknown *UnknownHeadBlockError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, sc.BlockRoot(), unknown.BlockRoot)
}

func TestValidateBlobSidecarForGossip_RepeatSidecar(t *testing.T) {
	useConfig(t, params.MinimalTestConfig())
	const proposer = primitives.ValidatorIndex(7)
	h := newHarness(t, proposer, 33)
	sk := setupKey(t, h, proposer)
	sc := signedSidecar(t, sk, h.gvr, proposer, 33, 1)
	h.fc.finalized = 31
	h.fc.nodes[sc.BlockRoot()] = true

	require.NoError(t, h.v.ValidateBlobSidecarForGossip(context.Background(), sc, 1))
	err := h.v.ValidateBlobSidecarForGossip(context.Background(), sc, 1)
	require.ErrorIs(t, err, ErrRepeatSidecar)
	var repeat *RepeatSidecarError
	require.ErrorAs(t, err, &repeat)
	require.Equal(t, proposer, repeat.Proposer)
	require.Equal(t, uint64(1), repeat.Index)
}

func TestValidateBlobSidecarForGossip_UnknownValidator(t *testing.T) {
	useConfig(t, params.MinimalTestConfig())
	const proposer = primitives.ValidatorIndex(7)
	h := newHarness(t, proposer, 33)
	// No key registered for the proposer.
	sk, err := bls.RandKey()
	require.NoError(t, err)
	sc := signedSidecar(t, sk, h.gvr, proposer, 33, 0)
	h.fc.finalized = 31

	err = h.v.ValidateBlobSidecarForGossip(context.Background(), sc, 0)
	require.ErrorIs(t, err, cache.ErrUnknownValidator)
}

func TestValidateBlobForGossip(t *testing.T) {
	useConfig(t, params.MinimalTestConfig())
	const proposer = primitives.ValidatorIndex(7)
	h := newHarness(t, proposer, 33)
	sk := setupKey(t, h, proposer)

	sb, err := blocks.NewSignedBeaconBlock(version.Deneb, blocks.BlockParams{
		Slot:      33,
		Signature: [fieldparams.BLSSignatureLength]byte{0x01},
	})
	require.NoError(t, err)
	blk, err := blocks.NewROBlock(sb)
	require.NoError(t, err)

	// A sidecar claiming a different slot than its block is rejected.
	stray := signedSidecar(t, sk, h.gvr, proposer, 32, 0)
	_, err = h.v.ValidateBlobForGossip(context.Background(), das.NewBlockAndBlobsWrapper(blk, []blocks.ROBlob{stray}))
	require.ErrorIs(t, err, ErrSlotMismatch)

	// A sidecar from the future is rejected before certification.
	future := signedSidecar(t, sk, h.gvr, proposer, 50, 0)
	_, err = h.v.ValidateBlobForGossip(context.Background(), das.NewBlockAndBlobsWrapper(blk, []blocks.ROBlob{future}))
	require.ErrorIs(t, err, ErrFutureSlot)

	// A commitment-free block certifies with the degenerate empty bundle.
	avail, err := h.v.ValidateBlobForGossip(context.Background(), das.NewBlockWrapper(blk))
	require.NoError(t, err)
	verified, hasBlobs := avail.Blobs()
	require.True(t, hasBlobs)
	require.Equal(t, 0, len(verified))
}

func useConfig(t *testing.T, c *params.BeaconChainConfig) {
	prev := params.BeaconConfig()
	params.OverrideBeaconConfig(c)
	t.Cleanup(func() { params.OverrideBeaconConfig(prev) })
}
