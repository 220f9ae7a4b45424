package spi

// RegisterFile is the device-side register access contract the
// responder decodes transactions onto.
type RegisterFile interface {
	// ReadRegister returns the full 32-bit view of a register.
	ReadRegister(addr uint8) (uint32, error)

	// WriteRegister stores a value masked to the given access width in
	// bytes.
	WriteRegister(addr uint8, value uint32, width int) error
}

// responder transaction phases.
type phase int

const (
	phaseCommand  phase = iota // shifting in the 32-bit command word
	phaseData                  // shifting in a write payload
	phaseResponse              // shifting out a read response
	phaseDrain                 // transaction complete, extra edges ignored
)

// Responder is the device side of the serial link: an edge-triggered
// shift state machine that decodes framed commands and applies them to
// a register file. It implements Bus so a host Engine can be wired
// straight to it.
//
// Register-file errors cannot travel over the wire. The responder
// latches the first one for the harness to inspect via Fault; faulted
// reads shift out zeros.
type Responder struct {
	regs RegisterFile

	selected  bool
	clockHigh bool
	hostBit   uint8
	deviceBit uint8

	phase    phase
	shift    uint64
	bitCount int
	dataBits int
	cmd      Command
	response uint32

	fault error
}

// NewResponder creates a responder over the given register file.
func NewResponder(regs RegisterFile) *Responder {
	return &Responder{regs: regs}
}

// SetSelect drives the select line. Deasserting mid-transaction resets
// the phase machine so the next transaction starts clean.
func (r *Responder) SetSelect(active bool) {
	r.selected = active
	r.phase = phaseCommand
	r.shift = 0
	r.bitCount = 0
	r.deviceBit = 0
}

// SetClock drives the clock line. The responder reacts to rising edges
// while selected.
func (r *Responder) SetClock(high bool) {
	rising := high && !r.clockHigh
	r.clockHigh = high
	if rising && r.selected {
		r.onRisingEdge()
	}
}

// SetData latches the host data line. The host guarantees the line is
// stable before the rising edge.
func (r *Responder) SetData(bit uint8) {
	r.hostBit = bit & 1
}

// SampleData returns the device data line.
func (r *Responder) SampleData() (uint8, error) {
	return r.deviceBit, nil
}

// Fault returns the first register-file or framing error observed since
// the last Reset, if any.
func (r *Responder) Fault() error {
	return r.fault
}

// Reset clears the latched fault and the phase machine.
func (r *Responder) Reset() {
	r.fault = nil
	r.SetSelect(false)
}

func (r *Responder) onRisingEdge() {
	switch r.phase {
	case phaseCommand:
		r.shift = r.shift<<1 | uint64(r.hostBit)
		r.bitCount++
		if r.bitCount == CommandBits {
			r.dispatchCommand()
		}

	case phaseData:
		r.shift = r.shift<<1 | uint64(r.hostBit)
		r.bitCount++
		if r.bitCount == r.dataBits {
			width, _ := r.cmd.Width().Bytes()
			r.latchFault(r.regs.WriteRegister(
				r.cmd.Address(), uint32(r.shift), width))
			r.phase = phaseDrain
		}

	case phaseResponse:
		r.deviceBit = uint8(r.response >> 31)
		r.response <<= 1
		r.bitCount++
		if r.bitCount == ResponseBits {
			r.phase = phaseDrain
		}

	case phaseDrain:
	}
}

// dispatchCommand runs after the 32nd command bit: decode, then switch
// to the payload or response phase.
func (r *Responder) dispatchCommand() {
	r.cmd = Command(r.shift)
	r.shift = 0
	r.bitCount = 0

	if err := r.cmd.Validate(); err != nil {
		r.latchFault(err)
		r.phase = phaseDrain
		return
	}

	if r.cmd.IsWrite() {
		bits, _ := r.cmd.Width().Bits()
		r.dataBits = bits
		r.phase = phaseData
		return
	}

	value, err := r.regs.ReadRegister(r.cmd.Address())
	if err != nil {
		r.latchFault(err)
		value = 0
	}
	r.response = value
	r.phase = phaseResponse
}

func (r *Responder) latchFault(err error) {
	if r.fault == nil && err != nil {
		r.fault = err
	}
}
