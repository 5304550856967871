package blobs

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/pharos-eth/pharos/beacon-chain/execution"
	"github.com/pharos-eth/pharos/beacon-chain/kzg"
	fieldparams "github.com/pharos-eth/pharos/config/fieldparams"
	"github.com/pharos-eth/pharos/config/params"
	"github.com/pharos-eth/pharos/consensus-types/blocks"
	"github.com/pharos-eth/pharos/consensus-types/primitives"
	"github.com/pharos-eth/pharos/runtime/version"
	"github.com/pharos-eth/pharos/testing/util"
)

type mockEngine struct {
	resp  []*execution.BlobAndProof
	err   error
	calls int
}

func (m *mockEngine) GetBlobs(_ context.Context, hashes []common.Hash) ([]*execution.BlobAndProof, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

type sinkCall struct {
	slot     primitives.Slot
	root     [32]byte
	sidecars []blocks.ROBlob
	receiver <-chan []blocks.RODataColumn
}

type mockSink struct {
	calls []sinkCall
}

func (m *mockSink) ProcessEngineBlobs(_ context.Context, slot primitives.Slot, root [32]byte, sidecars []blocks.ROBlob, receiver <-chan []blocks.RODataColumn) error {
	m.calls = append(m.calls, sinkCall{slot: slot, root: root, sidecars: sidecars, receiver: receiver})
	return nil
}

type harness struct {
	engine  *mockEngine
	sink    *mockSink
	pubs    chan EnginePayload
	quit    chan struct{}
	fetcher *Fetcher
}

func newHarness(supernode bool) *harness {
	h := &harness{
		engine: &mockEngine{},
		sink:   &mockSink{},
		pubs:   make(chan EnginePayload, 2),
		quit:   make(chan struct{}),
	}
	publish := func(p EnginePayload) { h.pubs <- p }
	h.fetcher = NewFetcher(h.engine, h.sink, publish, supernode, h.quit)
	return h
}

func useConfig(t *testing.T, c *params.BeaconChainConfig) {
	prev := params.BeaconConfig()
	params.OverrideBeaconConfig(c)
	t.Cleanup(func() { params.OverrideBeaconConfig(prev) })
}

func blockWithCommitments(t *testing.T, n int) blocks.ROBlock {
	commitments := make([][]byte, n)
	for i := 0; i < n; i++ {
		c := make([]byte, fieldparams.KzgCommitmentLength)
		c[0] = byte(i + 1)
		commitments[i] = c
	}
	sb, err := blocks.NewSignedBeaconBlock(version.Deneb, blocks.BlockParams{
		Slot:        12,
		Commitments: commitments,
		Signature:   [fieldparams.BLSSignatureLength]byte{0x01},
	})
	require.NoError(t, err)
	blk, err := blocks.NewROBlock(sb)
	require.NoError(t, err)
	return blk
}

func engineEntry(seed int64) *execution.BlobAndProof {
	return &execution.BlobAndProof{
		Blob:  util.RandomBlob(seed),
		Proof: make([]byte, fieldparams.KzgProofLength),
	}
}

func noPublish(t *testing.T, h *harness) {
	select {
	case p := <-h.pubs:
		t.Fatalf("unexpected publish: %+v", p)
	default:
	}
}

func TestFetchAndPublish_NoCommitmentsShortCircuits(t *testing.T) {
	useConfig(t, params.MinimalTestConfig())
	h := newHarness(false)
	blk := blockWithCommitments(t, 0)

	require.NoError(t, h.fetcher.FetchAndPublish(context.Background(), blk))
	require.Equal(t, 0, h.engine.calls)
	require.Equal(t, 0, len(h.sink.calls))
	noPublish(t, h)
}

func TestFetchAndPublish_EngineHasNothing(t *testing.T) {
	useConfig(t, params.MinimalTestConfig())
	h := newHarness(false)
	h.engine.resp = []*execution.BlobAndProof{nil, nil}
	blk := blockWithCommitments(t, 2)

	require.NoError(t, h.fetcher.FetchAndPublish(context.Background(), blk))
	require.Equal(t, 1, h.engine.calls)
	require.Equal(t, 0, len(h.sink.calls))
	noPublish(t, h)
}

func TestFetchAndPublish_EngineError(t *testing.T) {
	useConfig(t, params.MinimalTestConfig())
	h := newHarness(false)
	h.engine.err = execution.ErrRequestFailed
	blk := blockWithCommitments(t, 1)

	err := h.fetcher.FetchAndPublish(context.Background(), blk)
	require.ErrorIs(t, err, execution.ErrRequestFailed)
	require.Equal(t, 0, len(h.sink.calls))
}

func TestFetchAndPublish_PartialPublishesBlobs(t *testing.T) {
	c := params.MinimalTestConfig()
	c.FuluForkEpoch = primitives.FarFutureEpoch
	useConfig(t, c)
	h := newHarness(false)
	h.engine.resp = []*execution.BlobAndProof{engineEntry(1), nil}
	blk := blockWithCommitments(t, 2)

	require.NoError(t, h.fetcher.FetchAndPublish(context.Background(), blk))

	p := <-h.pubs
	require.Equal(t, 1, len(p.Blobs))
	require.Equal(t, 0, len(p.Columns))
	require.Equal(t, uint64(0), p.Blobs[0].Index)

	require.Equal(t, 1, len(h.sink.calls))
	call := h.sink.calls[0]
	require.Equal(t, blk.Root(), call.root)
	require.Equal(t, primitives.Slot(12), call.slot)
	require.Equal(t, 2, len(call.sidecars))
	require.NotNil(t, call.sidecars[0].BlobSidecar)
	require.Nil(t, call.sidecars[1].BlobSidecar)
	require.Nil(t, call.receiver)
}

func TestFetchAndPublish_FullWithColumnsDisabled(t *testing.T) {
	c := params.MinimalTestConfig()
	c.FuluForkEpoch = primitives.FarFutureEpoch
	useConfig(t, c)
	h := newHarness(true)
	h.engine.resp = []*execution.BlobAndProof{engineEntry(1), engineEntry(2)}
	blk := blockWithCommitments(t, 2)

	require.NoError(t, h.fetcher.FetchAndPublish(context.Background(), blk))

	p := <-h.pubs
	require.Equal(t, 2, len(p.Blobs))
	require.Equal(t, 1, len(h.sink.calls))
	require.Nil(t, h.sink.calls[0].receiver)
	for _, sc := range h.sink.calls[0].sidecars {
		require.NotNil(t, sc.BlobSidecar)
		require.NoError(t, blocks.VerifyKZGInclusionProof(sc))
	}
}

func TestFetchAndPublish_FullSupernodeBuildsColumns(t *testing.T) {
	useConfig(t, params.MinimalTestConfig())
	require.NoError(t, kzg.Start())
	h := newHarness(true)
	h.engine.resp = []*execution.BlobAndProof{engineEntry(1), engineEntry(2)}
	blk := blockWithCommitments(t, 2)

	require.NoError(t, h.fetcher.FetchAndPublish(context.Background(), blk))
	require.Equal(t, 1, len(h.sink.calls))
	call := h.sink.calls[0]
	require.Equal(t, 2, len(call.sidecars))
	require.NotNil(t, call.receiver)

	var columns []blocks.RODataColumn
	select {
	case columns = <-call.receiver:
	case <-time.After(2 * time.Minute):
		t.Fatal("column build did not complete")
	}
	require.Equal(t, int(fieldparams.NumberOfColumns), len(columns))
	require.Equal(t, blk.Root(), columns[0].BlockRoot())
	require.Equal(t, 2, len(columns[0].Column))
	require.NoError(t, blocks.VerifyKZGInclusionProofColumn(columns[0]))

	// Exactly one handoff.
	select {
	case extra, ok := <-call.receiver:
		if ok {
			t.Fatalf("unexpected second handoff of %d columns", len(extra))
		}
	default:
	}

	// The supernode publishes the columns, not the blobs.
	select {
	case p := <-h.pubs:
		require.Equal(t, 0, len(p.Blobs))
		require.Equal(t, int(fieldparams.NumberOfColumns), len(p.Columns))
	case <-time.After(time.Minute):
		t.Fatal("columns were not published")
	}
	noPublish(t, h)
}

func TestFetchAndPublish_SpawnFailsUnderShutdown(t *testing.T) {
	useConfig(t, params.MinimalTestConfig())
	h := newHarness(true)
	close(h.quit)
	h.engine.resp = []*execution.BlobAndProof{engineEntry(1)}
	blk := blockWithCommitments(t, 1)

	err := h.fetcher.FetchAndPublish(context.Background(), blk)
	require.ErrorIs(t, err, ErrRuntimeShutdown)
	require.Equal(t, 0, len(h.sink.calls))
}

func TestBuildSidecar_SkipsFailedIndices(t *testing.T) {
	useConfig(t, params.MinimalTestConfig())
	blk := blockWithCommitments(t, 2)
	body := blk.Block().Body()
	header, err := blk.Header()
	require.NoError(t, err)
	_, err = buildSidecar(body, header, 5, engineEntry(1))
	require.Error(t, err)
}
