package das

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pharos-eth/pharos/beacon-chain/kzg"
	"github.com/pharos-eth/pharos/config/params"
	"github.com/pharos-eth/pharos/testing/util"
)

func TestVerifyAvailability_HonestProofs(t *testing.T) {
	useConfig(t, params.MinimalTestConfig())
	require.NoError(t, kzg.Start())

	blk, scs, err := util.GenerateBlockWithBlobs(10, 2)
	require.NoError(t, err)
	require.NoError(t, VerifyAvailability(blk, scs))

	avail, err := IntoAvailableBlock(NewBlockAndBlobsWrapper(blk, scs), 10)
	require.NoError(t, err)
	blobs, hasBlobs := avail.Blobs()
	require.True(t, hasBlobs)
	require.Equal(t, 2, len(blobs))
	require.Equal(t, blk.Root(), blobs[0].BlockRoot())
}

func TestVerifyAvailability_CorruptProofFails(t *testing.T) {
	useConfig(t, params.MinimalTestConfig())
	require.NoError(t, kzg.Start())

	blk, scs, err := util.GenerateBlockWithBlobs(10, 2)
	require.NoError(t, err)
	scs[1].KzgProof[7] ^= 0xff
	require.ErrorIs(t, VerifyAvailability(blk, scs), ErrInvalidKzgProof)
}

func TestVerifyAvailability_CorruptBlobFails(t *testing.T) {
	useConfig(t, params.MinimalTestConfig())
	require.NoError(t, kzg.Start())

	blk, scs, err := util.GenerateBlockWithBlobs(10, 1)
	require.NoError(t, err)
	scs[0].Blob[100] ^= 0x01
	require.ErrorIs(t, VerifyAvailability(blk, scs), ErrInvalidKzgProof)
}
