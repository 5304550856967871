package logging

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pharos-eth/pharos/consensus-types/blocks"
)

// BlobFields extracts a standard set of fields from a BlobSidecar into a logrus.Fields struct
// which can be passed to log.WithFields.
func BlobFields(blob blocks.ROBlob) logrus.Fields {
	return logrus.Fields{
		"slot":          blob.Slot(),
		"proposerIndex": blob.ProposerIndex(),
		"blockRoot":     fmt.Sprintf("%#x", blob.BlockRoot()),
		"parentRoot":    fmt.Sprintf("%#x", blob.ParentRoot()),
		"kzgCommitment": fmt.Sprintf("%#x", blob.KzgCommitment),
		"index":         blob.Index,
	}
}

// DataColumnFields extracts a standard set of fields from a DataColumnSidecar into a logrus.Fields struct
// which can be passed to log.WithFields.
func DataColumnFields(column blocks.RODataColumn) logrus.Fields {
	return logrus.Fields{
		"slot":               column.Slot(),
		"propIdx":            column.ProposerIndex(),
		"blockRoot":          fmt.Sprintf("%#x", column.BlockRoot())[:8],
		"parentRoot":         fmt.Sprintf("%#x", column.ParentRoot())[:8],
		"kzgCommitmentCount": len(column.KzgCommitments),
		"colIdx":             column.ColumnIndex,
	}
}
