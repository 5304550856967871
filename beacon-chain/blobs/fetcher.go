// Package blobs fetches blob data from the execution engine for blocks that
// arrived without their sidecars, builds the sidecars, optionally
// reconstructs data columns, publishes and persists them. The expensive
// column build runs off the path that makes the block attestable.
package blobs

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/pharos-eth/pharos/beacon-chain/execution"
	"github.com/pharos-eth/pharos/beacon-chain/kzg"
	"github.com/pharos-eth/pharos/config/params"
	"github.com/pharos-eth/pharos/consensus-types/blocks"
	"github.com/pharos-eth/pharos/consensus-types/primitives"
	"github.com/pharos-eth/pharos/runtime/logging"
)

// ErrRuntimeShutdown is returned when the column build could not be spawned
// because the node is shutting down. It is fatal to the fetch call so no
// partial work is left behind.
var ErrRuntimeShutdown = errors.New("runtime is shutting down")

var (
	blobsFetchedFromEngine = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blobs_fetched_from_engine_total",
		Help: "The number of blobs obtained from the execution engine blob pool.",
	})
	partialEngineFetches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "partial_engine_blob_fetches_total",
		Help: "The number of engine fetches that returned only part of the requested blobs.",
	})
	dataColumnBuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engine_data_column_builds_total",
		Help: "The number of data column set constructions started from engine blobs.",
	})
)

// BlobFetcher requests blobs by versioned hash from the execution engine.
type BlobFetcher interface {
	GetBlobs(ctx context.Context, versionedHashes []common.Hash) ([]*execution.BlobAndProof, error)
}

// EnginePayload is the output of one fetch call: exactly one of the two
// slices is populated.
type EnginePayload struct {
	Blobs   []blocks.ROBlob
	Columns []blocks.RODataColumn
}

// PublishFunc broadcasts fetched blob data to the network. It is invoked at
// most once per fetch call.
type PublishFunc func(EnginePayload)

// ImportSink accepts the fetched sidecars for the persistence/import path.
// The sink is responsible for making the block attestable first and only
// then consuming the column receiver, when one is supplied.
type ImportSink interface {
	ProcessEngineBlobs(ctx context.Context, slot primitives.Slot, root [32]byte, sidecars []blocks.ROBlob, columns <-chan []blocks.RODataColumn) error
}

// Fetcher drives the engine fetch and publish pipeline.
type Fetcher struct {
	engine     BlobFetcher
	sink       ImportSink
	publish    PublishFunc
	custodyAll bool
	quit       <-chan struct{}
}

// NewFetcher wires the pipeline. custodyAll marks a supernode, a node that
// custodies the entire column set and therefore publishes reconstructed
// columns immediately. quit signals runtime shutdown; once it is closed no
// new column builds are spawned.
func NewFetcher(engine BlobFetcher, sink ImportSink, publish PublishFunc, custodyAll bool, quit <-chan struct{}) *Fetcher {
	return &Fetcher{engine: engine, sink: sink, publish: publish, custodyAll: custodyAll, quit: quit}
}

// FetchAndPublish obtains the block's blobs from the execution engine,
// builds sidecars, publishes them and hands them to the import sink. Partial
// availability degrades gracefully: the pipeline proceeds with whatever the
// engine returned and never fails the block for missing blobs alone.
func (f *Fetcher) FetchAndPublish(ctx context.Context, block blocks.ROBlock) error {
	body := block.Block().Body()
	commitments, err := body.BlobKzgCommitments()
	if err != nil || len(commitments) == 0 {
		return nil
	}
	hashes := make([]common.Hash, len(commitments))
	for i, c := range commitments {
		hashes[i] = kzgToVersionedHash(c)
	}
	resp, err := f.engine.GetBlobs(ctx, hashes)
	if err != nil {
		return errors.Wrap(err, "could not fetch blobs from engine")
	}
	returned := 0
	for _, e := range resp {
		if e != nil {
			returned++
		}
	}
	if returned == 0 {
		log.WithField("blockRoot", fmt.Sprintf("%#x", block.Root())).Debug("Engine has none of the block's blobs")
		return nil
	}
	blobsFetchedFromEngine.Add(float64(returned))
	if returned < len(commitments) {
		partialEngineFetches.Inc()
	}

	header, err := block.Header()
	if err != nil {
		return errors.Wrap(err, "could not derive block header")
	}
	sidecars := f.buildSidecars(body, header, resp)

	full := returned == len(commitments)
	epoch := block.Block().Epoch()
	var receiver <-chan []blocks.RODataColumn
	if full && params.BeaconConfig().PeerDASEnabledForEpoch(epoch) {
		receiver, err = f.spawnColumnBuild(body, header, commitments, resp)
		if err != nil {
			return err
		}
	} else {
		f.publish(EnginePayload{Blobs: populated(sidecars)})
	}
	return f.sink.ProcessEngineBlobs(ctx, block.Block().Slot(), block.Root(), sidecars, receiver)
}

// buildSidecars constructs a fixed-length sidecar list aligned with the
// block's commitments. Indices the engine did not answer stay empty, and a
// construction failure skips its index rather than failing the batch.
func (f *Fetcher) buildSidecars(body *blocks.BeaconBlockBody, header *blocks.SignedBeaconBlockHeader, resp []*execution.BlobAndProof) []blocks.ROBlob {
	sidecars := make([]blocks.ROBlob, len(resp))
	for i, entry := range resp {
		if entry == nil {
			continue
		}
		sc, err := buildSidecar(body, header, uint64(i), entry)
		if err != nil {
			log.WithError(err).WithField("index", i).Error("Could not construct sidecar from engine blob")
			continue
		}
		sidecars[i] = sc
	}
	return sidecars
}

func buildSidecar(body *blocks.BeaconBlockBody, header *blocks.SignedBeaconBlockHeader, idx uint64, entry *execution.BlobAndProof) (blocks.ROBlob, error) {
	commitments, err := body.BlobKzgCommitments()
	if err != nil {
		return blocks.ROBlob{}, err
	}
	proof, err := blocks.MerkleProofKZGCommitment(body, int(idx))
	if err != nil {
		return blocks.ROBlob{}, errors.Wrap(err, "could not prove commitment inclusion")
	}
	return blocks.NewROBlob(&blocks.BlobSidecar{
		Index:                    idx,
		Blob:                     entry.Blob,
		KzgCommitment:            commitments[idx],
		KzgProof:                 entry.Proof,
		SignedBlockHeader:        header,
		CommitmentInclusionProof: proof,
	})
}

// spawnColumnBuild starts the data column construction on its own goroutine
// and returns the capacity-one handoff channel the import sink will consume.
// The build must never be awaited before the block is attestable.
func (f *Fetcher) spawnColumnBuild(body *blocks.BeaconBlockBody, header *blocks.SignedBeaconBlockHeader, commitments [][]byte, resp []*execution.BlobAndProof) (<-chan []blocks.RODataColumn, error) {
	select {
	case <-f.quit:
		return nil, ErrRuntimeShutdown
	default:
	}
	commitmentsProof, err := blocks.MerkleProofKZGCommitments(body)
	if err != nil {
		return nil, errors.Wrap(err, "could not prove commitment list inclusion")
	}
	rawBlobs := make([][]byte, len(resp))
	for i, entry := range resp {
		rawBlobs[i] = entry.Blob
	}
	dataColumnBuilds.Inc()
	ch := make(chan []blocks.RODataColumn, 1)
	go func() {
		columns, err := kzg.DataColumnSidecars(header, commitments, commitmentsProof, rawBlobs)
		if err != nil {
			log.WithError(err).Error("Could not build data columns from engine blobs")
			close(ch)
			return
		}
		select {
		case ch <- columns:
		default:
			// The pipeline guarantees at most one outstanding build per
			// call, so a full mailbox is a logged anomaly, not a fault.
			log.WithFields(logging.DataColumnFields(columns[0])).Error("Column handoff mailbox already full")
		}
		if f.custodyAll {
			f.publish(EnginePayload{Columns: columns})
		}
	}()
	return ch, nil
}

func populated(sidecars []blocks.ROBlob) []blocks.ROBlob {
	out := make([]blocks.ROBlob, 0, len(sidecars))
	for _, sc := range sidecars {
		if sc.BlobSidecar != nil {
			out = append(out, sc)
		}
	}
	return out
}

func kzgToVersionedHash(commitment []byte) common.Hash {
	h := common.Hash(sha256.Sum256(commitment))
	h[0] = 0x01
	return h
}
