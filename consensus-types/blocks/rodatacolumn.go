package blocks

import (
	"github.com/pkg/errors"

	fieldparams "github.com/pharos-eth/pharos/config/fieldparams"
	"github.com/pharos-eth/pharos/consensus-types/primitives"
)

var errNilDataColumn = errors.New("received nil data column sidecar")

// DataColumnSidecar carries one column of the extended blob matrix for a
// block: cell i belongs to blob i. Like blob sidecars, the owning block root
// is not a field and is always recomputed from the embedded signed header.
type DataColumnSidecar struct {
	ColumnIndex                  uint64
	Column                       [][]byte
	KzgCommitments               [][]byte
	KzgProofs                    [][]byte
	SignedBlockHeader            *SignedBeaconBlockHeader
	KzgCommitmentsInclusionProof [][]byte
}

// RODataColumn embeds a DataColumnSidecar along with its block root,
// recomputed from the sidecar's signed header at construction time.
type RODataColumn struct {
	*DataColumnSidecar
	root [fieldparams.RootLength]byte
}

// NewRODataColumn creates an RODataColumn from a DataColumnSidecar, computing
// the block root from the embedded signed header.
func NewRODataColumn(dc *DataColumnSidecar) (RODataColumn, error) {
	if dc == nil {
		return RODataColumn{}, errNilDataColumn
	}
	if err := signedHeaderNilCheck(dc.SignedBlockHeader); err != nil {
		return RODataColumn{}, err
	}
	root, err := dc.SignedBlockHeader.Header.HashTreeRoot()
	if err != nil {
		return RODataColumn{}, err
	}
	return RODataColumn{DataColumnSidecar: dc, root: root}, nil
}

// BlockRoot returns the root of the block the sidecar commits to.
func (dc *RODataColumn) BlockRoot() [fieldparams.RootLength]byte {
	return dc.root
}

// BlockRootSlice returns the block root as a byte slice.
func (dc *RODataColumn) BlockRootSlice() []byte {
	return dc.root[:]
}

// Slot returns the slot of the data column sidecar's block header.
func (dc *RODataColumn) Slot() primitives.Slot {
	return dc.SignedBlockHeader.Header.Slot
}

// ParentRoot returns the parent root of the data column sidecar's block header.
func (dc *RODataColumn) ParentRoot() [fieldparams.RootLength]byte {
	return dc.SignedBlockHeader.Header.ParentRoot
}

// BodyRoot returns the body root of the data column sidecar's block header.
func (dc *RODataColumn) BodyRoot() [fieldparams.RootLength]byte {
	return dc.SignedBlockHeader.Header.BodyRoot
}

// ProposerIndex returns the proposer index of the data column sidecar's block
// header.
func (dc *RODataColumn) ProposerIndex() primitives.ValidatorIndex {
	return dc.SignedBlockHeader.Header.ProposerIndex
}

// VerifiedRODataColumn represents an RODataColumn that has undergone full
// verification.
type VerifiedRODataColumn struct {
	RODataColumn
}

// NewVerifiedRODataColumn "upgrades" an RODataColumn to a
// VerifiedRODataColumn. This method should only be used by the verification
// package.
func NewVerifiedRODataColumn(roDataColumn RODataColumn) VerifiedRODataColumn {
	return VerifiedRODataColumn{RODataColumn: roDataColumn}
}
