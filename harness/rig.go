// Package harness orchestrates verification scenarios against the
// simulated MAC device: it assembles the board, engine, and driver from
// a configuration and runs named test scenarios over the serial link.
package harness

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/macsim/board"
	"github.com/sarchlab/macsim/driver"
	"github.com/sarchlab/macsim/spi"
	"github.com/sarchlab/macsim/timing/clock"
)

// Freq returns the configured system clock frequency.
func (c *Config) Freq() sim.Freq {
	return sim.Freq(c.SysClockMHz) * sim.MHz
}

// Timing returns the configured serial bit timing.
func (c *Config) Timing() spi.Timing {
	return spi.Timing{
		ClockLow:   clock.Nanoseconds(c.ClockLowNs),
		DataSetup:  clock.Nanoseconds(c.DataSetupNs),
		ClockHigh:  clock.Nanoseconds(c.ClockHighNs),
		SelectLead: clock.Nanoseconds(c.SelectLeadNs),
	}
}

// Timeout returns the configured completion wait budget.
func (c *Config) Timeout() sim.VTimeInSec {
	return clock.Microseconds(c.TimeoutUs)
}

// PollInterval returns the configured completion sampling interval.
func (c *Config) PollInterval() sim.VTimeInSec {
	return clock.Nanoseconds(c.PollIntervalNs)
}

// Rig is a fully wired simulation: clock, device board, transaction
// engine, and driver.
type Rig struct {
	Clock  *clock.Clock
	Board  *board.Board
	Engine *spi.Engine
	Driver *driver.Driver
}

// NewRig assembles a simulation from the configuration.
func NewRig(cfg *Config) *Rig {
	clk := clock.New(cfg.Freq())
	brd := board.New(clk,
		board.WithCompletionLatency(cfg.CompletionLatencyCycles))
	engine := spi.NewEngine(brd.Bus(), clk, spi.WithTiming(cfg.Timing()))
	drv := driver.New(engine, brd, clk,
		driver.WithPollInterval(cfg.PollInterval()))

	return &Rig{
		Clock:  clk,
		Board:  brd,
		Engine: engine,
		Driver: drv,
	}
}
