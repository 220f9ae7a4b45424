package harness

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/macsim/driver"
	"github.com/sarchlab/macsim/mac"
)

// Result is the outcome of one scenario.
type Result struct {
	// Name identifies the scenario.
	Name string

	// Err is nil if the scenario passed.
	Err error

	// Start and End bound the virtual time the scenario consumed.
	Start sim.VTimeInSec
	End   sim.VTimeInSec
}

// Passed reports whether the scenario succeeded.
func (r Result) Passed() bool {
	return r.Err == nil
}

// Suite runs verification scenarios against a rig. Every scenario
// talks to the device only through the driver, the way the real bench
// talks to the hardware through the serial pins.
type Suite struct {
	rig *Rig
	cfg *Config

	out     io.Writer
	verbose bool
	rng     *rand.Rand
}

// Option configures a Suite.
type Option func(*Suite)

// WithOutput redirects scenario logging.
func WithOutput(w io.Writer) Option {
	return func(s *Suite) {
		s.out = w
	}
}

// WithVerbose enables per-step scenario logging.
func WithVerbose(v bool) Option {
	return func(s *Suite) {
		s.verbose = v
	}
}

// NewSuite creates a scenario suite over a wired rig.
func NewSuite(rig *Rig, cfg *Config, opts ...Option) *Suite {
	s := &Suite{
		rig: rig,
		cfg: cfg,
		out: os.Stdout,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// scenario pairs a name with its body.
type scenario struct {
	name string
	run  func() error
}

func (s *Suite) scenarios() []scenario {
	return []scenario{
		{"register_smoke", s.registerSmoke},
		{"mul_unsigned", s.mulUnsigned},
		{"mac_signed_accumulate", s.macSignedAccumulate},
		{"saturation_signed", s.saturationSigned},
		{"signed_extremes", s.signedExtremes},
		{"completion_lifecycle", s.completionLifecycle},
		{"overflow_stress", s.overflowStress},
	}
}

// ScenarioNames lists all scenarios in run order.
func (s *Suite) ScenarioNames() []string {
	all := s.scenarios()
	names := make([]string, len(all))
	for i, sc := range all {
		names[i] = sc.name
	}
	return names
}

// Run executes the named scenarios, or all of them when no names are
// given. Between scenarios the device is reset so failures do not
// cascade. Unknown names fail immediately.
func (s *Suite) Run(names ...string) ([]Result, error) {
	all := s.scenarios()

	var selected []scenario
	if len(names) == 0 {
		selected = all
	} else {
		byName := make(map[string]scenario, len(all))
		for _, sc := range all {
			byName[sc.name] = sc
		}
		for _, name := range names {
			sc, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("unknown scenario %q", name)
			}
			selected = append(selected, sc)
		}
	}

	results := make([]Result, 0, len(selected))
	for _, sc := range selected {
		s.rig.Board.Reset()
		s.logf("SCENARIO %s", sc.name)

		start := s.rig.Clock.Now()
		err := sc.run()
		if err == nil {
			// Device-side faults do not travel over the wire; pick
			// them up from the board before declaring success.
			err = s.rig.Board.Fault()
		}
		results = append(results, Result{
			Name:  sc.name,
			Err:   err,
			Start: start,
			End:   s.rig.Clock.Now(),
		})
	}
	return results, nil
}

func (s *Suite) logf(format string, args ...interface{}) {
	if s.verbose {
		fmt.Fprintf(s.out, format+"\n", args...)
	}
}

// drv is shorthand used throughout the scenarios.
func (s *Suite) drv() *driver.Driver {
	return s.rig.Driver
}

// await waits for the completion pin within the configured budget.
func (s *Suite) await() error {
	return s.drv().AwaitCompletion(s.cfg.Timeout())
}

// clearDone deasserts the completion pin.
func (s *Suite) clearDone() error {
	return s.drv().WriteWordReg(mac.RegCtrl, 1<<mac.CtrlClearDone)
}

// clearAccumulator zeroes the accumulator and leaves the completion
// pin deasserted.
func (s *Suite) clearAccumulator() error {
	if err := s.drv().WriteWordReg(mac.RegCtrl, 1<<mac.CtrlClearAcc); err != nil {
		return err
	}
	if err := s.await(); err != nil {
		return fmt.Errorf("clear accumulator: %w", err)
	}
	return s.clearDone()
}

// start triggers one operation and waits for completion.
func (s *Suite) start(mode, signed, saturate bool) error {
	ctrl := uint32(1 << mac.CtrlStart)
	if mode {
		ctrl |= 1 << mac.CtrlMode
	}
	if signed {
		ctrl |= 1 << mac.CtrlSigned
	}
	if saturate {
		ctrl |= 1 << mac.CtrlSaturate
	}
	s.logf("  start ctrl=0x%08X", ctrl)
	if err := s.drv().WriteWordReg(mac.RegCtrl, ctrl); err != nil {
		return err
	}
	return s.await()
}

// setOperands writes both operand registers.
func (s *Suite) setOperands(a, b uint16) error {
	if err := s.drv().WriteWordReg(mac.RegOperandA, uint32(a)); err != nil {
		return err
	}
	return s.drv().WriteWordReg(mac.RegOperandB, uint32(b))
}

// registerSmoke checks register round trips at all three access widths.
func (s *Suite) registerSmoke() error {
	if err := s.drv().WriteWordReg(mac.RegOperandA, 0xDEAD); err != nil {
		return err
	}
	got, err := s.drv().ReadWordReg(mac.RegOperandA)
	if err != nil {
		return err
	}
	if got&0xFFFF != 0xDEAD {
		return fmt.Errorf("word round trip: wrote 0xDEAD read back 0x%04X", got)
	}

	if err := s.drv().WriteHalfReg(mac.RegOperandB, 0xBEEF); err != nil {
		return err
	}
	got, err = s.drv().ReadWordReg(mac.RegOperandB)
	if err != nil {
		return err
	}
	if got != 0xBEEF {
		return fmt.Errorf("half round trip: wrote 0xBEEF read back 0x%04X", got)
	}

	if err := s.drv().WriteByteReg(mac.RegOperandB, 0xAB); err != nil {
		return err
	}
	got, err = s.drv().ReadWordReg(mac.RegOperandB)
	if err != nil {
		return err
	}
	if got != 0xAB {
		return fmt.Errorf("byte round trip: wrote 0xAB read back 0x%04X", got)
	}
	return nil
}

// mulUnsigned checks 3 * 5 = 15 in multiply-only mode.
func (s *Suite) mulUnsigned() error {
	if err := s.setOperands(3, 5); err != nil {
		return err
	}
	if err := s.start(false, false, false); err != nil {
		return err
	}
	prod, err := s.drv().ReadWordReg(mac.RegProduct)
	if err != nil {
		return err
	}
	if prod != 15 {
		return fmt.Errorf("unsigned multiply: got 0x%X want 15", prod)
	}
	return nil
}

// macSignedAccumulate checks -2 * 3 accumulated onto a cleared
// accumulator.
func (s *Suite) macSignedAccumulate() error {
	if err := s.clearAccumulator(); err != nil {
		return err
	}
	if err := s.setOperands(0xFFFE, 3); err != nil { // -2 as two's complement
		return err
	}
	if err := s.start(true, true, false); err != nil {
		return err
	}
	acc, err := s.drv().ReadAccumulator()
	if err != nil {
		return err
	}
	if acc != -6 {
		return fmt.Errorf("signed accumulate: got %d want -6", acc)
	}
	return nil
}

// saturationSigned checks that a saturating accumulate of large
// positive operands stays positive and inside the 48-bit range.
func (s *Suite) saturationSigned() error {
	if err := s.clearAccumulator(); err != nil {
		return err
	}
	if err := s.setOperands(0x7FFF, 0x7FFF); err != nil {
		return err
	}
	if err := s.start(true, true, true); err != nil {
		return err
	}
	acc, err := s.drv().ReadAccumulator()
	if err != nil {
		return err
	}
	if acc <= 0 || acc > mac.AccMax {
		return fmt.Errorf("saturation: got %d, want positive below 2^47", acc)
	}
	if acc != 0x3FFF0001 {
		return fmt.Errorf("saturation: got %d want %d", acc, 0x3FFF0001)
	}
	return nil
}

// signedExtremes checks max*max and min*min signed accumulation.
func (s *Suite) signedExtremes() error {
	if err := s.clearAccumulator(); err != nil {
		return err
	}
	if err := s.setOperands(0x7FFF, 0x7FFF); err != nil {
		return err
	}
	if err := s.start(true, true, false); err != nil {
		return err
	}
	acc, err := s.drv().ReadAccumulator()
	if err != nil {
		return err
	}
	if acc != 0x3FFF0001 {
		return fmt.Errorf("max*max: got %d want %d", acc, 0x3FFF0001)
	}

	if err := s.clearDone(); err != nil {
		return err
	}
	if err := s.setOperands(0x8000, 0x8000); err != nil {
		return err
	}
	if err := s.start(true, true, false); err != nil {
		return err
	}
	acc, err = s.drv().ReadAccumulator()
	if err != nil {
		return err
	}
	want := int64(0x3FFF0001) + int64(0x40000000) // (-32768)^2 = 2^30
	if acc != want {
		return fmt.Errorf("min*min: got %d want %d", acc, want)
	}
	return nil
}

// completionLifecycle checks the level-triggered completion contract:
// low after reset, high exactly after an operation, low again only via
// CLEAR_DONE.
func (s *Suite) completionLifecycle() error {
	short := s.rig.Clock.Period() // far below the completion latency

	var timeoutErr *driver.TimeoutError
	if err := s.drv().AwaitCompletion(short); !errors.As(err, &timeoutErr) {
		return fmt.Errorf("pin asserted before any start: %v", err)
	}

	if err := s.setOperands(2, 2); err != nil {
		return err
	}
	if err := s.start(false, false, false); err != nil {
		return err
	}
	// Polling again must not consume the level-triggered signal.
	if err := s.await(); err != nil {
		return fmt.Errorf("pin did not stay asserted: %w", err)
	}

	if err := s.clearDone(); err != nil {
		return err
	}
	if err := s.drv().AwaitCompletion(short); !errors.As(err, &timeoutErr) {
		return fmt.Errorf("pin still asserted after clear: %v", err)
	}
	// Clearing an already-deasserted pin is a no-op.
	if err := s.clearDone(); err != nil {
		return err
	}
	if err := s.drv().AwaitCompletion(short); !errors.As(err, &timeoutErr) {
		return fmt.Errorf("pin asserted after repeated clear: %v", err)
	}
	return nil
}

// overflowStress accumulates large products, then replays random
// multiplies against a software model of the product register.
func (s *Suite) overflowStress() error {
	if err := s.clearAccumulator(); err != nil {
		return err
	}

	expected := int64(0)
	for i := 0; i < 2; i++ {
		if err := s.setOperands(0x7FFF, 0x7FFF); err != nil {
			return err
		}
		if err := s.start(true, true, false); err != nil {
			return err
		}
		if err := s.clearDone(); err != nil {
			return err
		}
		expected = (expected + 0x3FFF0001) << 16 >> 16
	}
	acc, err := s.drv().ReadAccumulator()
	if err != nil {
		return err
	}
	if acc != expected {
		return fmt.Errorf("accumulate stress: got %d want %d", acc, expected)
	}

	for i := 0; i < s.cfg.StressIterations; i++ {
		a := uint16(s.rng.Intn(1 << 16))
		b := uint16(s.rng.Intn(1 << 16))
		if err := s.setOperands(a, b); err != nil {
			return err
		}
		if err := s.start(false, false, false); err != nil {
			return err
		}
		if err := s.clearDone(); err != nil {
			return err
		}
		prod, err := s.drv().ReadWordReg(mac.RegProduct)
		if err != nil {
			return err
		}
		if want := uint32(a) * uint32(b); prod != want {
			return fmt.Errorf("stress iter %d: %d*%d got 0x%X want 0x%X",
				i, a, b, prod, want)
		}
	}
	return nil
}
