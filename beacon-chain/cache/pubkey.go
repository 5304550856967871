package cache

import (
	"time"

	"github.com/pkg/errors"

	fieldparams "github.com/pharos-eth/pharos/config/fieldparams"
	"github.com/pharos-eth/pharos/consensus-types/primitives"
)

// ErrUnknownValidator is returned when a pubkey lookup references a validator
// index the registry has never seen.
var ErrUnknownValidator = errors.New("unknown validator index")

// DefaultPubkeyWait bounds how long a gossip-path pubkey lookup may block on
// the registry lock before giving up with ErrLockTimeout.
const DefaultPubkeyWait = 500 * time.Millisecond

// ValidatorPubkeyCache maps validator indices to their BLS public keys. The
// registry is append-only; writers hold the lock only while splicing in new
// deposits, and readers on the gossip path bound their wait so a slow writer
// cannot stall sidecar validation indefinitely.
type ValidatorPubkeyCache struct {
	mu      *TimedMutex
	pubkeys map[primitives.ValidatorIndex][fieldparams.BLSPubkeyLength]byte
}

func NewValidatorPubkeyCache() *ValidatorPubkeyCache {
	return &ValidatorPubkeyCache{
		mu:      NewTimedMutex(),
		pubkeys: make(map[primitives.ValidatorIndex][fieldparams.BLSPubkeyLength]byte),
	}
}

// Pubkey returns the public key for the index, waiting at most wait for the
// registry lock. Returns ErrLockTimeout if the lock was not acquired and
// ErrUnknownValidator if the index has no key.
func (c *ValidatorPubkeyCache) Pubkey(idx primitives.ValidatorIndex, wait time.Duration) ([fieldparams.BLSPubkeyLength]byte, error) {
	if err := c.mu.LockWithTimeout(wait); err != nil {
		return [fieldparams.BLSPubkeyLength]byte{}, err
	}
	defer c.mu.Unlock()
	pk, ok := c.pubkeys[idx]
	if !ok {
		return [fieldparams.BLSPubkeyLength]byte{}, errors.Wrapf(ErrUnknownValidator, "index %d", idx)
	}
	return pk, nil
}

// SetPubkey records the public key for a validator index.
func (c *ValidatorPubkeyCache) SetPubkey(idx primitives.ValidatorIndex, pk [fieldparams.BLSPubkeyLength]byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pubkeys[idx] = pk
}
