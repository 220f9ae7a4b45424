// Package driver provides the caller-facing register operations over
// the serial transaction engine: register reads and writes at the three
// supported widths, accumulator reassembly, and the timeout-bounded
// completion wait.
package driver

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/macsim/mac"
	"github.com/sarchlab/macsim/spi"
	"github.com/sarchlab/macsim/timing/clock"
)

// defaultPollIntervalNs is the delay between completion-pin samples.
const defaultPollIntervalNs = 100

// CompletionLine is the level-triggered completion output of the
// device.
type CompletionLine interface {
	Interrupt() bool
}

// TimeoutError reports that the completion signal was not observed
// within the wait budget.
type TimeoutError struct {
	// Elapsed is the virtual time spent waiting before giving up.
	Elapsed sim.VTimeInSec
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout waiting for completion after %.0f ns",
		float64(e.Elapsed)*1e9)
}

// Driver issues register transactions and completion waits on behalf of
// a test orchestrator. It decides nothing about values; it only maps
// operations onto serial transactions.
type Driver struct {
	engine *spi.Engine
	line   CompletionLine
	clk    *clock.Clock

	pollInterval sim.VTimeInSec
}

// Option configures a Driver.
type Option func(*Driver)

// WithPollInterval sets the completion-pin sampling interval.
func WithPollInterval(d sim.VTimeInSec) Option {
	return func(drv *Driver) {
		if d > 0 {
			drv.pollInterval = d
		}
	}
}

// New creates a driver over the given engine and completion line.
func New(engine *spi.Engine, line CompletionLine, clk *clock.Clock,
	opts ...Option) *Driver {
	d := &Driver{
		engine:       engine,
		line:         line,
		clk:          clk,
		pollInterval: clock.Nanoseconds(defaultPollIntervalNs),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// checkAddress rejects addresses the 6-bit command field cannot carry.
// This is a usage error caught before any command is built.
func checkAddress(addr uint8) error {
	if addr&^0x3F != 0 {
		return fmt.Errorf("%w: 0x%02X", spi.ErrInvalidAddress, addr)
	}
	return nil
}

// WriteRegister writes a register at the given width.
func (d *Driver) WriteRegister(addr uint8, value uint32, w spi.WidthCode) error {
	if err := checkAddress(addr); err != nil {
		return err
	}
	_, err := d.engine.Transfer(spi.NewCommand(true, w, addr), value)
	return err
}

// ReadRegister reads a register. The wire always returns a full 32-bit
// word; bits beyond the register's meaningful width read as zero.
func (d *Driver) ReadRegister(addr uint8, w spi.WidthCode) (uint32, error) {
	if err := checkAddress(addr); err != nil {
		return 0, err
	}
	return d.engine.Transfer(spi.NewCommand(false, w, addr), 0)
}

// WriteWordReg writes a register with a 4-byte access.
func (d *Driver) WriteWordReg(addr uint8, value uint32) error {
	return d.WriteRegister(addr, value, spi.Width32)
}

// WriteHalfReg writes a register with a 2-byte access.
func (d *Driver) WriteHalfReg(addr uint8, value uint16) error {
	return d.WriteRegister(addr, uint32(value), spi.Width16)
}

// WriteByteReg writes a register with a 1-byte access.
func (d *Driver) WriteByteReg(addr uint8, value uint8) error {
	return d.WriteRegister(addr, uint32(value), spi.Width8)
}

// ReadWordReg reads a register with a 4-byte access.
func (d *Driver) ReadWordReg(addr uint8) (uint32, error) {
	return d.ReadRegister(addr, spi.Width32)
}

// ReadAccumulator reads the three accumulator slices, reassembles the
// 48-bit value, and sign-extends it from bit 47.
func (d *Driver) ReadAccumulator() (int64, error) {
	high, err := d.ReadWordReg(mac.RegAccHigh)
	if err != nil {
		return 0, err
	}
	mid, err := d.ReadWordReg(mac.RegAccMid)
	if err != nil {
		return 0, err
	}
	low, err := d.ReadWordReg(mac.RegAccLow)
	if err != nil {
		return 0, err
	}

	acc := uint64(high&0xFFFF)<<32 | uint64(mid&0xFFFF)<<16 | uint64(low&0xFFFF)
	return int64(acc<<16) >> 16, nil
}

// AwaitCompletion blocks (in virtual time) until the completion pin is
// asserted, sampling at the poll interval. It fails with *TimeoutError
// once the accumulated wait exceeds the timeout; it never hangs.
func (d *Driver) AwaitCompletion(timeout sim.VTimeInSec) error {
	var elapsed sim.VTimeInSec
	for !d.line.Interrupt() {
		d.clk.Advance(d.pollInterval)
		elapsed += d.pollInterval
		if elapsed > timeout {
			return &TimeoutError{Elapsed: elapsed}
		}
	}
	return nil
}
