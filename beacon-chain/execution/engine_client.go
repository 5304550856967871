// Package execution talks to the execution engine over its authenticated
// JSON-RPC interface.
package execution

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	fieldparams "github.com/pharos-eth/pharos/config/fieldparams"
)

// GetBlobsMethod is the engine API method for requesting blobs by versioned
// hash from the execution layer's blob pool.
const GetBlobsMethod = "engine_getBlobsV1"

// ErrRequestFailed is returned when the engine call itself failed. It says
// nothing about any peer; callers must treat it as a local fault.
var ErrRequestFailed = errors.New("engine API request failed")

var errMisalignedResponse = errors.New("engine response is not aligned with the requested hashes")

var getBlobsLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "engine_get_blobs_latency_milliseconds",
	Help:    "Captures the time taken by a engine_getBlobsV1 call.",
	Buckets: []float64{25, 50, 100, 200, 500, 1000, 2000},
})

// RPCClient treats the underlying rpc connection as an interface so that
// tests can substitute a canned responder.
type RPCClient interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// BlobAndProof is one engine response entry: a blob from the execution
// layer's pool together with its opening proof.
type BlobAndProof struct {
	Blob  hexutil.Bytes `json:"blob"`
	Proof hexutil.Bytes `json:"proof"`
}

// EngineClient fetches blob data from the execution engine.
type EngineClient struct {
	rpc RPCClient
}

func NewEngineClient(rpc RPCClient) *EngineClient {
	return &EngineClient{rpc: rpc}
}

// GetBlobs requests the blobs for the given versioned hashes from the
// engine's blob pool in a single call. The response is positional: entry i
// answers hash i, and a nil entry means the engine does not have that blob.
func (c *EngineClient) GetBlobs(ctx context.Context, versionedHashes []common.Hash) ([]*BlobAndProof, error) {
	if len(versionedHashes) == 0 {
		return nil, nil
	}
	start := prometheus.NewTimer(getBlobsLatency)
	defer start.ObserveDuration()
	result := make([]*BlobAndProof, 0, len(versionedHashes))
	if err := c.rpc.CallContext(ctx, &result, GetBlobsMethod, versionedHashes); err != nil {
		return nil, errors.Wrap(ErrRequestFailed, err.Error())
	}
	if len(result) != len(versionedHashes) {
		return nil, errors.Wrapf(errMisalignedResponse, "requested %d hashes, received %d entries", len(versionedHashes), len(result))
	}
	for i, entry := range result {
		if entry == nil {
			continue
		}
		if len(entry.Blob) != fieldparams.BlobLength || len(entry.Proof) != fieldparams.KzgProofLength {
			return nil, errors.Wrapf(errMisalignedResponse, "entry %d has blob length %d and proof length %d", i, len(entry.Blob), len(entry.Proof))
		}
	}
	return result, nil
}
