// Package clock provides the virtual timebase for the harness.
//
// The whole harness runs in single-threaded simulated time: the
// transaction engine advances the clock as it drives bits, and the
// driver advances it while polling for completion. Time is expressed
// with Akita's sim.VTimeInSec and sim.Freq types.
package clock

import "github.com/sarchlab/akita/v4/sim"

// Clock tracks virtual time against a reference frequency.
type Clock struct {
	freq sim.Freq
	now  sim.VTimeInSec
}

// New creates a clock with the given reference frequency.
func New(freq sim.Freq) *Clock {
	return &Clock{freq: freq}
}

// Freq returns the reference frequency.
func (c *Clock) Freq() sim.Freq {
	return c.freq
}

// Period returns the duration of one reference cycle.
func (c *Clock) Period() sim.VTimeInSec {
	return c.freq.Period()
}

// Now returns the current virtual time.
func (c *Clock) Now() sim.VTimeInSec {
	return c.now
}

// Advance moves virtual time forward. Negative durations are ignored.
func (c *Clock) Advance(d sim.VTimeInSec) {
	if d > 0 {
		c.now += d
	}
}

// AdvanceCycles moves virtual time forward by n reference cycles.
func (c *Clock) AdvanceCycles(n uint64) {
	c.now += sim.VTimeInSec(n) * c.freq.Period()
}

// Nanoseconds converts a duration in nanoseconds to virtual time.
func Nanoseconds(n float64) sim.VTimeInSec {
	return sim.VTimeInSec(n * 1e-9)
}

// Microseconds converts a duration in microseconds to virtual time.
func Microseconds(n float64) sim.VTimeInSec {
	return sim.VTimeInSec(n * 1e-6)
}

// Milliseconds converts a duration in milliseconds to virtual time.
func Milliseconds(n float64) sim.VTimeInSec {
	return sim.VTimeInSec(n * 1e-3)
}
