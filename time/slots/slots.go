// Package slots contains slot and epoch arithmetic against the active beacon
// config.
package slots

import (
	"time"

	"github.com/pharos-eth/pharos/config/params"
	"github.com/pharos-eth/pharos/consensus-types/primitives"
)

// ToEpoch returns the epoch number of the input slot.
func ToEpoch(slot primitives.Slot) primitives.Epoch {
	return primitives.Epoch(slot / params.BeaconConfig().SlotsPerEpoch)
}

// EpochStart returns the first slot number of the given epoch.
func EpochStart(epoch primitives.Epoch) primitives.Slot {
	return primitives.Slot(epoch) * params.BeaconConfig().SlotsPerEpoch
}

// StartTime returns the start time of the given slot relative to genesis.
func StartTime(genesis time.Time, slot primitives.Slot) time.Time {
	d := time.Duration(uint64(slot)*params.BeaconConfig().SecondsPerSlot) * time.Second
	return genesis.Add(d)
}

// Since returns the number of slots elapsed between genesis and the given
// time. Times before genesis count as slot zero.
func Since(genesis, t time.Time) primitives.Slot {
	if t.Before(genesis) {
		return 0
	}
	return primitives.Slot(uint64(t.Sub(genesis).Seconds()) / params.BeaconConfig().SecondsPerSlot)
}

// WithinDAPeriod checks if the block with the given slot is within the data
// availability retention period with respect to the current slot.
func WithinDAPeriod(block, current primitives.Epoch) bool {
	return block.Add(uint64(params.BeaconConfig().MinEpochsForBlobsSidecarsRequest)) >= current
}
