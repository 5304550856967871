// Package startup provides the genesis clock, the node's single source of
// truth for wall time relative to genesis.
package startup

import (
	"time"

	"github.com/pkg/errors"

	fieldparams "github.com/pharos-eth/pharos/config/fieldparams"
	"github.com/pharos-eth/pharos/config/params"
	"github.com/pharos-eth/pharos/consensus-types/primitives"
	"github.com/pharos-eth/pharos/time/slots"
)

// ErrUnableToReadSlot is returned when the clock cannot express the current
// slot, for instance when genesis lies in the future.
var ErrUnableToReadSlot = errors.New("unable to read current slot")

// Nower is a function that can return the current time.
//
// In normal operation, a Clock uses time.Now, but a Nower can be injected for
// deterministic tests.
type Nower func() time.Time

// Clock abstracts important time-related operations in the beacon chain:
//   - provides a time.Now() construct that can be overridden in tests
//   - converts the current time to slots, relative to genesis
type Clock struct {
	genesis time.Time
	vr      [fieldparams.RootLength]byte
	now     Nower
}

// ClockOpt is a functional option to alter Clock construction.
type ClockOpt func(*Clock)

// WithNower allows tests to control the behavior of Clock.Now.
func WithNower(n Nower) ClockOpt {
	return func(c *Clock) {
		c.now = n
	}
}

// NewClock constructs a Clock from the genesis time and genesis validators
// root.
func NewClock(genesis time.Time, vr [fieldparams.RootLength]byte, opts ...ClockOpt) *Clock {
	c := &Clock{genesis: genesis, vr: vr}
	for _, o := range opts {
		o(c)
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// GenesisTime returns the genesis timestamp.
func (c *Clock) GenesisTime() time.Time {
	return c.genesis
}

// GenesisValidatorsRoot returns the genesis state validators root.
func (c *Clock) GenesisValidatorsRoot() [fieldparams.RootLength]byte {
	return c.vr
}

// Now returns the current time.
func (c *Clock) Now() time.Time {
	return c.now()
}

// CurrentSlot returns the slot the current time falls in. Before genesis it
// returns slot 0.
func (c *Clock) CurrentSlot() primitives.Slot {
	return slots.Since(c.genesis, c.now())
}

// MaxPermissibleSlot returns the highest slot a gossip message may claim
// right now, permitting the configured clock disparity. An error is returned
// when the current time precedes genesis, since no slot can be read from the
// clock yet.
func (c *Clock) MaxPermissibleSlot() (primitives.Slot, error) {
	now := c.now()
	tolerant := now.Add(params.BeaconConfig().MaximumGossipClockDisparity)
	if tolerant.Before(c.genesis) {
		return 0, ErrUnableToReadSlot
	}
	return slots.Since(c.genesis, tolerant), nil
}

// SlotStart returns the wall time at which the given slot begins.
func (c *Clock) SlotStart(slot primitives.Slot) time.Time {
	return slots.StartTime(c.genesis, slot)
}
