package cache

import (
	"time"

	"github.com/pkg/errors"
)

// ErrLockTimeout is returned when a bounded lock acquisition gives up. It is
// recoverable: the caller should retry the operation rather than penalize a
// peer.
var ErrLockTimeout = errors.New("timed out waiting for lock")

// TimedMutex is a mutex whose acquisition can be bounded by a deadline.
type TimedMutex struct {
	sem chan struct{}
}

func NewTimedMutex() *TimedMutex {
	return &TimedMutex{sem: make(chan struct{}, 1)}
}

// LockWithTimeout acquires the lock, waiting at most d. Returns
// ErrLockTimeout when the lock could not be acquired in time.
func (m *TimedMutex) LockWithTimeout(d time.Duration) error {
	select {
	case m.sem <- struct{}{}:
		return nil
	default:
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case m.sem <- struct{}{}:
		return nil
	case <-t.C:
		return ErrLockTimeout
	}
}

// Lock acquires the lock unconditionally.
func (m *TimedMutex) Lock() {
	m.sem <- struct{}{}
}

// Unlock releases the lock. Unlocking an unlocked mutex panics.
func (m *TimedMutex) Unlock() {
	select {
	case <-m.sem:
	default:
		panic("unlock of unlocked TimedMutex")
	}
}
