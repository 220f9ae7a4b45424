package spi

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/macsim/timing/clock"
)

// Bus is the four-wire serial link seen from the host side: a select
// line, a clock line, a host-driven data line, and a device-driven data
// line. Implementations model the device sitting on the far end.
type Bus interface {
	// SetSelect drives the select line. true means active.
	SetSelect(active bool)

	// SetClock drives the clock line. true means high.
	SetClock(high bool)

	// SetData drives the host data line with the given bit (0 or 1).
	SetData(bit uint8)

	// SampleData reads the device data line. An error means the line
	// is unreadable and aborts the transaction.
	SampleData() (uint8, error)
}

// Timing holds the bit-level timing of the link in virtual time. The
// defaults match the reference bench: 20 ns clock-low lead, 20 ns data
// setup before the rising edge, 40 ns clock-high hold, and a 100 ns
// select lead-in and lead-out.
type Timing struct {
	ClockLow   sim.VTimeInSec
	DataSetup  sim.VTimeInSec
	ClockHigh  sim.VTimeInSec
	SelectLead sim.VTimeInSec
}

// DefaultTiming returns the reference bench bit timing.
func DefaultTiming() Timing {
	return Timing{
		ClockLow:   clock.Nanoseconds(20),
		DataSetup:  clock.Nanoseconds(20),
		ClockHigh:  clock.Nanoseconds(40),
		SelectLead: clock.Nanoseconds(100),
	}
}

// Engine is the host side of the serial register protocol. It owns the
// framing of command and payload bits; it never decides what to send.
type Engine struct {
	bus    Bus
	clk    *clock.Clock
	timing Timing

	stats Statistics
}

// Statistics counts transactions performed by the engine.
type Statistics struct {
	Writes   uint64
	Reads    uint64
	BitsSent uint64
	Faults   uint64
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithTiming overrides the default bit timing.
func WithTiming(t Timing) EngineOption {
	return func(e *Engine) {
		e.timing = t
	}
}

// NewEngine creates a transaction engine over the given bus. The clock
// tracks virtual time spent driving the link.
func NewEngine(bus Bus, clk *clock.Clock, opts ...EngineOption) *Engine {
	e := &Engine{
		bus:    bus,
		clk:    clk,
		timing: DefaultTiming(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stats returns transaction statistics.
func (e *Engine) Stats() Statistics {
	return e.stats
}

// ResetStats clears transaction statistics.
func (e *Engine) ResetStats() {
	e.stats = Statistics{}
}

// Transfer runs one complete transaction: the command word, then either
// the write payload (masked to the command's width) or the 32-bit read
// response. The link is returned to idle on every path, including
// errors, so back-to-back transactions compose.
func (e *Engine) Transfer(cmd Command, data uint32) (uint32, error) {
	if err := cmd.Validate(); err != nil {
		e.stats.Faults++
		return 0, err
	}

	bits, _ := cmd.Width().Bits()
	if cmd.IsWrite() {
		data &= cmd.Width().Mask()
	}

	e.bus.SetClock(false)
	e.bus.SetSelect(false)
	e.clk.Advance(e.timing.SelectLead)
	e.bus.SetSelect(true)
	e.clk.Advance(e.timing.SelectLead)
	defer e.idle()

	e.shiftOut(uint32(cmd), CommandBits)

	if cmd.IsWrite() {
		e.shiftOut(data, bits)
		e.stats.Writes++
		return 0, nil
	}

	word, err := e.shiftIn(ResponseBits)
	if err != nil {
		e.stats.Faults++
		return 0, err
	}
	e.stats.Reads++
	return word, nil
}

// idle restores the quiescent link state: select inactive, clock low.
func (e *Engine) idle() {
	e.bus.SetClock(false)
	e.bus.SetSelect(false)
	e.clk.Advance(e.timing.SelectLead)
}

// shiftOut transmits the low `bits` bits of value MSB-first. Each bit
// is driven while the clock is low and held through the high phase, so
// the device samples it on the rising edge.
func (e *Engine) shiftOut(value uint32, bits int) {
	for i := bits - 1; i >= 0; i-- {
		e.bus.SetClock(false)
		e.clk.Advance(e.timing.ClockLow)
		e.bus.SetData(uint8(value>>uint(i)) & 1)
		e.clk.Advance(e.timing.DataSetup)
		e.bus.SetClock(true)
		e.clk.Advance(e.timing.ClockHigh)
		e.stats.BitsSent++
	}
	e.bus.SetClock(false)
	e.clk.Advance(e.timing.ClockHigh)
}

// shiftIn clocks the device `bits` times, sampling its data line while
// the clock is high, and assembles the samples MSB-first.
func (e *Engine) shiftIn(bits int) (uint32, error) {
	var word uint32
	for i := 0; i < bits; i++ {
		e.bus.SetClock(false)
		e.clk.Advance(e.timing.ClockLow + e.timing.DataSetup)
		e.bus.SetClock(true)
		e.clk.Advance(e.timing.ClockHigh)
		bit, err := e.bus.SampleData()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrTransport, err)
		}
		word = word<<1 | uint32(bit&1)
	}
	e.bus.SetClock(false)
	e.clk.Advance(e.timing.ClockHigh)
	return word, nil
}
