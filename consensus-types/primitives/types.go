// Package primitives defines the core integer types used across consensus
// objects. They are distinct types rather than raw uint64s so that slots,
// epochs and validator indices cannot be accidentally interchanged.
package primitives

import "math"

// Slot represents a single slot.
type Slot uint64

// Epoch represents a single epoch.
type Epoch uint64

// ValidatorIndex in the registry.
type ValidatorIndex uint64

// CommitteeIndex is the index of a committee within a slot.
type CommitteeIndex uint64

// FarFutureEpoch represents a timestamp in the distant future, used as the
// default activation epoch for forks that are not scheduled.
const FarFutureEpoch = Epoch(math.MaxUint64)

// Add returns s+x.
func (s Slot) Add(x uint64) Slot {
	return s + Slot(x)
}

// Sub returns s-x, saturating at zero.
func (s Slot) Sub(x uint64) Slot {
	if uint64(s) < x {
		return 0
	}
	return s - Slot(x)
}

// Add returns e+x.
func (e Epoch) Add(x uint64) Epoch {
	return e + Epoch(x)
}

// Sub returns e-x, saturating at zero.
func (e Epoch) Sub(x uint64) Epoch {
	if uint64(e) < x {
		return 0
	}
	return e - Epoch(x)
}
