package field_params

const (
	Preset                           = "mainnet"
	RootLength                       = 32     // RootLength defines the byte length of a Merkle root.
	BLSSignatureLength               = 96     // BLSSignatureLength defines the byte length of a BLSSignature.
	BLSPubkeyLength                  = 48     // BLSPubkeyLength defines the byte length of a BLSPubkey.
	VersionLength                    = 4      // VersionLength defines the byte length of a fork version number.
	SlotsPerEpoch                    = 32     // SlotsPerEpoch defines the number of slots per epoch.
	MaxBlobsPerBlock                 = 6      // MaxBlobsPerBlock defines the maximum number of blobs that can be included in a block.
	MaxBlobCommitmentsPerBlock       = 4096   // MaxBlobCommitmentsPerBlock defines the theoretical limit of commitments in a block body.
	LogMaxBlobCommitments            = 12     // Log_2 of MaxBlobCommitmentsPerBlock.
	BlobLength                       = 131072 // BlobLength defines the byte length of a blob.
	KzgCommitmentLength              = 48     // KzgCommitmentLength defines the byte length of a KZG commitment.
	KzgProofLength                   = 48     // KzgProofLength defines the byte length of a KZG proof.
	KzgCommitmentInclusionProofDepth = 17     // Merkle proof depth for a blob_kzg_commitments list item.
	CellsPerExtBlob                  = 128    // CellsPerExtBlob is the number of cells in an extended (erasure coded) blob.
	BytesPerCell                     = 2048   // BytesPerCell defines the byte length of a single cell.
	NumberOfColumns                  = 128    // NumberOfColumns is the width of the data column sidecar matrix.
)
