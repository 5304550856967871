// Package params holds the chain configuration consumed by the availability
// pipeline. Values follow the mainnet preset and can be overridden in tests
// via OverrideBeaconConfig.
package params

import (
	"time"

	fieldparams "github.com/pharos-eth/pharos/config/fieldparams"
	"github.com/pharos-eth/pharos/consensus-types/primitives"
)

// BeaconChainConfig contains the subset of protocol constants and fork
// scheduling needed by blob verification and propagation.
type BeaconChainConfig struct {
	// Time parameters.
	SecondsPerSlot              uint64
	SlotsPerEpoch               primitives.Slot
	MaximumGossipClockDisparity time.Duration

	// Fork scheduling. An epoch of FarFutureEpoch means the fork is not
	// scheduled for this chain.
	GenesisForkVersion   [fieldparams.VersionLength]byte
	AltairForkEpoch      primitives.Epoch
	AltairForkVersion    [fieldparams.VersionLength]byte
	BellatrixForkEpoch   primitives.Epoch
	BellatrixForkVersion [fieldparams.VersionLength]byte
	CapellaForkEpoch     primitives.Epoch
	CapellaForkVersion   [fieldparams.VersionLength]byte
	DenebForkEpoch       primitives.Epoch
	DenebForkVersion     [fieldparams.VersionLength]byte
	FuluForkEpoch        primitives.Epoch
	FuluForkVersion      [fieldparams.VersionLength]byte

	// Blob parameters.
	MaxBlobsPerBlock                 uint64
	MinEpochsForBlobsSidecarsRequest primitives.Epoch

	// PeerDAS parameters.
	NumberOfColumns    uint64
	CustodyRequirement uint64

	// Signature domains.
	DomainBeaconProposer [4]byte
}

var beaconConfig = MainnetConfig()

// BeaconConfig returns the active chain configuration.
func BeaconConfig() *BeaconChainConfig {
	return beaconConfig
}

// OverrideBeaconConfig replaces the active configuration. Tests that override
// the config are responsible for restoring the previous value.
func OverrideBeaconConfig(c *BeaconChainConfig) {
	beaconConfig = c
}

// Copy returns a deep copy of the config, convenient for test overrides.
func (c *BeaconChainConfig) Copy() *BeaconChainConfig {
	cp := *c
	return &cp
}

// ForkVersionAtEpoch returns the active fork version for the given epoch.
func (c *BeaconChainConfig) ForkVersionAtEpoch(e primitives.Epoch) [fieldparams.VersionLength]byte {
	switch {
	case e >= c.FuluForkEpoch:
		return c.FuluForkVersion
	case e >= c.DenebForkEpoch:
		return c.DenebForkVersion
	case e >= c.CapellaForkEpoch:
		return c.CapellaForkVersion
	case e >= c.BellatrixForkEpoch:
		return c.BellatrixForkVersion
	case e >= c.AltairForkEpoch:
		return c.AltairForkVersion
	default:
		return c.GenesisForkVersion
	}
}

// DataAvailabilityBoundary returns the earliest epoch from which DA checks
// are mandatory, and whether such a boundary exists at all. Chains that never
// scheduled the blob fork have no boundary.
func (c *BeaconChainConfig) DataAvailabilityBoundary(current primitives.Epoch) (primitives.Epoch, bool) {
	if c.DenebForkEpoch == primitives.FarFutureEpoch {
		return 0, false
	}
	boundary := c.DenebForkEpoch
	if pruned := current.Sub(uint64(c.MinEpochsForBlobsSidecarsRequest)); pruned > boundary {
		boundary = pruned
	}
	return boundary, true
}

// PeerDASEnabledForEpoch reports whether columnar redundancy coding is active
// at the given epoch.
func (c *BeaconChainConfig) PeerDASEnabledForEpoch(e primitives.Epoch) bool {
	return e >= c.FuluForkEpoch
}

// MainnetConfig returns the mainnet preset.
func MainnetConfig() *BeaconChainConfig {
	return &BeaconChainConfig{
		SecondsPerSlot:              12,
		SlotsPerEpoch:               fieldparams.SlotsPerEpoch,
		MaximumGossipClockDisparity: 500 * time.Millisecond,

		GenesisForkVersion:   [4]byte{0x00, 0x00, 0x00, 0x00},
		AltairForkEpoch:      74240,
		AltairForkVersion:    [4]byte{0x01, 0x00, 0x00, 0x00},
		BellatrixForkEpoch:   144896,
		BellatrixForkVersion: [4]byte{0x02, 0x00, 0x00, 0x00},
		CapellaForkEpoch:     194048,
		CapellaForkVersion:   [4]byte{0x03, 0x00, 0x00, 0x00},
		DenebForkEpoch:       269568,
		DenebForkVersion:     [4]byte{0x04, 0x00, 0x00, 0x00},
		FuluForkEpoch:        primitives.FarFutureEpoch,
		FuluForkVersion:      [4]byte{0x06, 0x00, 0x00, 0x00},

		MaxBlobsPerBlock:                 fieldparams.MaxBlobsPerBlock,
		MinEpochsForBlobsSidecarsRequest: 4096,

		NumberOfColumns:    fieldparams.NumberOfColumns,
		CustodyRequirement: 4,

		DomainBeaconProposer: [4]byte{0x00, 0x00, 0x00, 0x00},
	}
}

// MinimalTestConfig returns a config useful for unit tests: all forks active
// from genesis and a short DA retention window.
func MinimalTestConfig() *BeaconChainConfig {
	c := MainnetConfig().Copy()
	c.AltairForkEpoch = 0
	c.BellatrixForkEpoch = 0
	c.CapellaForkEpoch = 0
	c.DenebForkEpoch = 0
	c.FuluForkEpoch = 0
	return c
}
