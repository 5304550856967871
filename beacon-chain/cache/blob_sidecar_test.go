package cache

import (
	"testing"

	"github.com/stretchr/testify/require"

	fieldparams "github.com/pharos-eth/pharos/config/fieldparams"
	"github.com/pharos-eth/pharos/consensus-types/blocks"
	"github.com/pharos-eth/pharos/consensus-types/primitives"
)

func testSidecar(t *testing.T, slot primitives.Slot, idx uint64) blocks.ROBlob {
	sh := &blocks.SignedBeaconBlockHeader{
		Header: &blocks.BeaconBlockHeader{
			Slot:       slot,
			ParentRoot: [32]byte{0x01},
		},
	}
	sh.Signature[0] = 0x01
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

func TestBlobSidecarCache_PutPopIdempotence(t *testing.T) {
	c, err := NewBlobSidecarCache()
	require.NoError(t, err)
	sc := testSidecar(t, 1, 0)

	_, had := c.Put(sc)
	require.False(t, had)

	got, ok := c.Pop(sc.ID())
	require.True(t, ok)
	require.Equal(t, sc.ID(), got.ID())

	_, ok = c.Pop(sc.ID())
	require.False(t, ok)
}

func TestBlobSidecarCache_PutReturnsDisplaced(t *testing.T) {
	c, err := NewBlobSidecarCache()
	require.NoError(t, err)
	first := testSidecar(t, 1, 0)
	second := testSidecar(t, 1, 0)
	second.KzgCommitment[0] = 0x7f

	_, had := c.Put(first)
	require.False(t, had)
	prev, had := c.Put(second)
	require.True(t, had)
	require.Equal(t, byte(1), prev.KzgCommitment[0])
	require.Equal(t, 1, c.Len())
}

func TestBlobSidecarCache_PeekDoesNotRemove(t *testing.T) {
	c, err := NewBlobSidecarCache()
	require.NoError(t, err)
	sc := testSidecar(t, 2, 1)
	c.Put(sc)

	_, ok := c.Peek(sc.ID())
	require.True(t, ok)
	_, ok = c.Peek(sc.ID())
	require.True(t, ok)
	_, ok = c.Pop(sc.ID())
	require.True(t, ok)
}

func TestBlobSidecarCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewBlobSidecarCache()
	require.NoError(t, err)
	capacity := DefaultBlobCacheSlots * fieldparams.MaxBlobsPerBlock
	scs := make([]blocks.ROBlob, 0, capacity+1)
	for i := 0; i <= capacity; i++ {
		// Distinct slots yield distinct block roots, so every key differs.
		sc := testSidecar(t, primitives.Slot(i), 0)
		scs = append(scs, sc)
		c.Put(sc)
	}
	require.Equal(t, capacity, c.Len())
	// The oldest insertion was evicted, everything else survived.
	_, ok := c.Pop(scs[0].ID())
	require.False(t, ok)
	for _, sc := range scs[1:] {
		_, ok := c.Peek(sc.ID())
		require.True(t, ok)
	}
}
