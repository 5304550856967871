package kzg

import (
	goethkzg "github.com/crate-crypto/go-eth-kzg"
	"github.com/pkg/errors"

	fieldparams "github.com/pharos-eth/pharos/config/fieldparams"
	"github.com/pharos-eth/pharos/consensus-types/blocks"
)

var errCommitmentCountMismatch = errors.New("commitment count does not match blob count")

// CellsAndProofs holds the extended cells of one blob together with the
// proofs opening each cell against the blob's commitment.
type CellsAndProofs struct {
	Cells  [][]byte
	Proofs [][]byte
}

// ComputeCellsAndKZGProofs extends a blob into its full set of cells and
// computes the cell proofs.
func ComputeCellsAndKZGProofs(blob []byte) (CellsAndProofs, error) {
	ctx, err := loadedContext()
	if err != nil {
		return CellsAndProofs{}, err
	}
	cellPtrs, cellProofs, err := ctx.ComputeCellsAndKZGProofs(bytesToBlob(blob), 0)
	if err != nil {
		return CellsAndProofs{}, errors.Wrap(err, "compute cells and KZG proofs")
	}
	cp := CellsAndProofs{
		Cells:  make([][]byte, goethkzg.CellsPerExtBlob),
		Proofs: make([][]byte, goethkzg.CellsPerExtBlob),
	}
	for i := range cellPtrs {
		cell := *cellPtrs[i]
		cp.Cells[i] = cell[:]
		proof := cellProofs[i]
		cp.Proofs[i] = proof[:]
	}
	return cp, nil
}

// DataColumnSidecars builds the full set of column sidecars for a block from
// its blobs. Column c of the returned slice carries cell c of every blob, so
// every sidecar repeats the block's whole commitment list and its inclusion
// proof.
func DataColumnSidecars(
	header *blocks.SignedBeaconBlockHeader,
	commitments [][]byte,
	commitmentsProof [][]byte,
	blobs [][]byte,
) ([]blocks.RODataColumn, error) {
	if len(commitments) != len(blobs) {
		return nil, errCommitmentCountMismatch
	}
	if len(blobs) == 0 {
		return nil, nil
	}
	extended := make([]CellsAndProofs, len(blobs))
	for i, blob := range blobs {
		cp, err := ComputeCellsAndKZGProofs(blob)
		if err != nil {
			return nil, err
		}
		extended[i] = cp
	}
	sidecars := make([]blocks.RODataColumn, 0, fieldparams.NumberOfColumns)
	for col := uint64(0); col < fieldparams.NumberOfColumns; col++ {
		column := make([][]byte, len(blobs))
		proofs := make([][]byte, len(blobs))
		for row := range blobs {
			column[row] = extended[row].Cells[col]
			proofs[row] = extended[row].Proofs[col]
		}
		sc := &blocks.DataColumnSidecar{
			ColumnIndex:                  col,
			Column:                       column,
			KzgCommitments:               commitments,
			KzgProofs:                    proofs,
			SignedBlockHeader:            header,
			KzgCommitmentsInclusionProof: commitmentsProof,
		}
		ro, err := blocks.NewRODataColumn(sc)
		if err != nil {
			return nil, err
		}
		sidecars = append(sidecars, ro)
	}
	return sidecars, nil
}
