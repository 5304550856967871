package kzg

import (
	"fmt"
	"strings"

	goethkzg "github.com/crate-crypto/go-eth-kzg"
	"github.com/pkg/errors"

	"github.com/pharos-eth/pharos/consensus-types/blocks"
)

// IsDataAvailable checks that
// - all blobs in the block are available
// - Expected KZG commitments match the number of blobs in the block
// - That the number of proofs match the number of blobs
// - That the proofs are verified against the KZG commitments
func IsDataAvailable(commitments [][]byte, sidecars []blocks.ROBlob) error {
	if len(commitments) != len(sidecars) {
		return fmt.Errorf("could not check data availability, expected %d commitments, obtained %d",
			len(commitments), len(sidecars))
	}
	if len(commitments) == 0 {
		return nil
	}
	ctx, err := loadedContext()
	if err != nil {
		return err
	}
	blobPtrs := make([]*goethkzg.Blob, len(commitments))
	proofs := make([]goethkzg.KZGProof, len(commitments))
	cmts := make([]goethkzg.KZGCommitment, len(commitments))
	for i, sidecar := range sidecars {
		blobPtrs[i] = bytesToBlob(sidecar.Blob)
		proofs[i] = bytesToKZGProof(sidecar.KzgProof)
		cmts[i] = bytesToCommitment(commitments[i])
	}
	return ctx.VerifyBlobKZGProofBatch(blobPtrs, cmts, proofs)
}

// ErrKzgProofFailed marks proof failures that survived bisection, meaning at
// least one individual sidecar's proof does not open its commitment.
var ErrKzgProofFailed = errors.New("failed to prove commitment to BlobSidecar Blob data")

type KzgProofError struct {
	failed [][48]byte
}

func NewKzgProofError(failed [][48]byte) *KzgProofError {
	return &KzgProofError{failed: failed}
}

func (e *KzgProofError) Error() string {
	cmts := make([]string, len(e.failed))
	for i := range e.failed {
		cmts[i] = fmt.Sprintf("%#x", e.failed[i])
	}
	return fmt.Sprintf("%s: bad commitments=%s", ErrKzgProofFailed.Error(), strings.Join(cmts, ","))
}

func (e *KzgProofError) Failed() [][48]byte {
	return e.failed
}

func (e *KzgProofError) Unwrap() error {
	return ErrKzgProofFailed
}

// BisectBlobSidecarKzgProofs tries to batch prove the given sidecars against their own specified commitment.
// The caller is responsible for ensuring that the commitments match those specified by the block.
// If the batch fails, it will then try to verify the proofs one-by-one.
// If an error is returned, it will be a custom error of type KzgProofError that provides access
// to the list of commitments that failed.
func BisectBlobSidecarKzgProofs(sidecars []blocks.ROBlob) error {
	if len(sidecars) == 0 {
		return nil
	}
	ctx, err := loadedContext()
	if err != nil {
		return err
	}
	blobPtrs := make([]*goethkzg.Blob, len(sidecars))
	cmts := make([]goethkzg.KZGCommitment, len(sidecars))
	proofs := make([]goethkzg.KZGProof, len(sidecars))
	for i, sidecar := range sidecars {
		blobPtrs[i] = bytesToBlob(sidecar.Blob)
		cmts[i] = bytesToCommitment(sidecar.KzgCommitment)
		proofs[i] = bytesToKZGProof(sidecar.KzgProof)
	}
	if err := ctx.VerifyBlobKZGProofBatch(blobPtrs, cmts, proofs); err == nil {
		return nil
	}
	failed := make([][48]byte, 0, len(blobPtrs))
	for i := range blobPtrs {
		if err := ctx.VerifyBlobKZGProof(blobPtrs[i], cmts[i], proofs[i]); err != nil {
			failed = append(failed, cmts[i])
		}
	}
	return NewKzgProofError(failed)
}

// BlobToKZGCommitment computes the KZG commitment for a single blob.
func BlobToKZGCommitment(blob []byte) ([48]byte, error) {
	ctx, err := loadedContext()
	if err != nil {
		return [48]byte{}, err
	}
	commitment, err := ctx.BlobToKZGCommitment(bytesToBlob(blob), 0)
	if err != nil {
		return [48]byte{}, err
	}
	return [48]byte(commitment), nil
}

// ComputeBlobKZGProof computes the proof opening a blob against its
// commitment.
func ComputeBlobKZGProof(blob []byte, commitment []byte) ([48]byte, error) {
	ctx, err := loadedContext()
	if err != nil {
		return [48]byte{}, err
	}
	proof, err := ctx.ComputeBlobKZGProof(bytesToBlob(blob), bytesToCommitment(commitment), 0)
	if err != nil {
		return [48]byte{}, err
	}
	return [48]byte(proof), nil
}

func bytesToBlob(blob []byte) *goethkzg.Blob {
	ret := new(goethkzg.Blob)
	copy(ret[:], blob)
	return ret
}

func bytesToCommitment(commitment []byte) (ret goethkzg.KZGCommitment) {
	copy(ret[:], commitment)
	return
}

func bytesToKZGProof(proof []byte) (ret goethkzg.KZGProof) {
	copy(ret[:], proof)
	return
}
