// Package board assembles the simulated device under test: the MAC
// peripheral behind a serial responder, with a system clock and a
// configurable completion latency.
package board

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/macsim/mac"
	"github.com/sarchlab/macsim/spi"
	"github.com/sarchlab/macsim/timing/clock"
)

// DefaultCompletionLatency is the number of system-clock cycles between
// a triggering control write and the interrupt pin rising, modeling the
// cycles the hardware spends computing.
const DefaultCompletionLatency uint64 = 4

// Board wires a mac.Peripheral to the device side of the serial link
// and exposes the interrupt pin. The board intercepts register writes
// so it can timestamp completion: the peripheral model asserts done
// synchronously, but the pin becomes visible only after the completion
// latency has elapsed in virtual time.
type Board struct {
	clk       *clock.Clock
	periph    *mac.Peripheral
	responder *spi.Responder

	latencyCycles uint64
	visibleAt     sim.VTimeInSec
}

// Option configures a Board.
type Option func(*Board)

// WithCompletionLatency sets the interrupt visibility latency in system
// clock cycles. Zero makes completion visible immediately.
func WithCompletionLatency(cycles uint64) Option {
	return func(b *Board) {
		b.latencyCycles = cycles
	}
}

// New creates a board on the given system clock.
func New(clk *clock.Clock, opts ...Option) *Board {
	b := &Board{
		clk:           clk,
		periph:        mac.New(),
		latencyCycles: DefaultCompletionLatency,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.responder = spi.NewResponder(b)
	return b
}

// Bus returns the device side of the serial link, ready to be driven
// by a host engine.
func (b *Board) Bus() spi.Bus {
	return b.responder
}

// Peripheral returns the register model for white-box assertions.
func (b *Board) Peripheral() *mac.Peripheral {
	return b.periph
}

// Interrupt reports the completion pin. The pin follows the
// peripheral's done signal, delayed by the completion latency.
func (b *Board) Interrupt() bool {
	return b.periph.Done() && b.clk.Now() >= b.visibleAt
}

// Fault returns the first device-side protocol or register-file error,
// if any. Hardware cannot report these over the wire; the simulated
// board latches them for the harness.
func (b *Board) Fault() error {
	return b.responder.Fault()
}

// Reset models the reset collaborator: a reset pulse returns the
// peripheral, the link state machine, and the interrupt pin to their
// power-on states and costs a few cycles of virtual time.
func (b *Board) Reset() {
	b.periph.Reset()
	b.responder.Reset()
	b.visibleAt = 0
	b.clk.AdvanceCycles(2)
}

// ReadRegister implements spi.RegisterFile by delegating to the
// peripheral.
func (b *Board) ReadRegister(addr uint8) (uint32, error) {
	return b.periph.ReadRegister(addr)
}

// WriteRegister implements spi.RegisterFile. A write that takes the
// done signal from deasserted to asserted schedules the interrupt pin's
// visibility; a start while the pin is already up leaves it up.
func (b *Board) WriteRegister(addr uint8, value uint32, width int) error {
	wasDone := b.periph.Done()
	err := b.periph.WriteRegister(addr, value, width)
	if !wasDone && b.periph.Done() {
		b.visibleAt = b.clk.Now() +
			sim.VTimeInSec(b.latencyCycles)*b.clk.Period()
	}
	return err
}
