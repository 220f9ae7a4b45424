package mac

import (
	"errors"
	"fmt"
)

// ErrInvalidRegister means the address is not in the peripheral's
// register map. It is surfaced immediately; there is no silent default
// register.
var ErrInvalidRegister = errors.New("invalid register")

// Peripheral is the MAC register file and arithmetic state machine.
//
// The accumulator field always holds the sign-extended value of the
// 48-bit two's-complement accumulator, so Accumulator() is exact at all
// times between operations.
type Peripheral struct {
	operandA uint16
	operandB uint16
	product  uint32
	acc      int64
	done     bool

	stats Statistics
}

// Statistics counts operations the peripheral has performed.
type Statistics struct {
	Multiplies  uint64
	Accumulates uint64
	Saturations uint64
	AccClears   uint64
}

// New creates a peripheral in its power-on state: all registers zero,
// completion deasserted.
func New() *Peripheral {
	return &Peripheral{}
}

// Stats returns operation statistics.
func (p *Peripheral) Stats() Statistics {
	return p.stats
}

// ResetStats clears operation statistics.
func (p *Peripheral) ResetStats() {
	p.stats = Statistics{}
}

// Done reports the completion signal. It is level-triggered: asserted
// when an operation finishes and held until a CLEAR_DONE control write.
func (p *Peripheral) Done() bool {
	return p.done
}

// Accumulator returns the signed value of the 48-bit accumulator.
func (p *Peripheral) Accumulator() int64 {
	return p.acc
}

// Product returns the product register.
func (p *Peripheral) Product() uint32 {
	return p.product
}

// Reset returns the peripheral to its power-on state. This belongs to
// the reset collaborator convention; no register operation triggers it.
func (p *Peripheral) Reset() {
	stats := p.stats
	*p = Peripheral{stats: stats}
}

// ReadRegister returns the full 32-bit view of a register. Accumulator
// slices and operands carry 16 meaningful bits; the upper half reads as
// zero. The control register's read-back is undefined by contract and
// reads as zero here.
func (p *Peripheral) ReadRegister(addr uint8) (uint32, error) {
	switch addr {
	case RegCtrl:
		return 0, nil
	case RegOperandA:
		return uint32(p.operandA), nil
	case RegOperandB:
		return uint32(p.operandB), nil
	case RegProduct:
		return p.product, nil
	case RegAccHigh:
		return uint32(uint64(p.acc)>>32) & 0xFFFF, nil
	case RegAccMid:
		return uint32(uint64(p.acc)>>16) & 0xFFFF, nil
	case RegAccLow:
		return uint32(uint64(p.acc)) & 0xFFFF, nil
	default:
		return 0, fmt.Errorf("%w: read 0x%02X", ErrInvalidRegister, addr)
	}
}

// WriteRegister stores a value masked to the access width in bytes
// (1, 2, or 4). Writes to read-only result registers are ignored, as on
// the hardware. A control write is atomic: all set bits of one write
// take effect as a single indivisible update.
func (p *Peripheral) WriteRegister(addr uint8, value uint32, width int) error {
	switch width {
	case 1, 2:
		value &= uint32(1)<<(8*width) - 1
	case 4:
	default:
		return fmt.Errorf("unsupported access width %d", width)
	}

	switch addr {
	case RegCtrl:
		p.writeControl(value)
	case RegOperandA:
		p.operandA = uint16(value)
	case RegOperandB:
		p.operandB = uint16(value)
	case RegProduct, RegAccHigh, RegAccMid, RegAccLow:
		// read-only result registers
	default:
		return fmt.Errorf("%w: write 0x%02X", ErrInvalidRegister, addr)
	}
	return nil
}

// writeControl applies one control write. Ordering within a single
// write: CLEAR_DONE, then CLEAR_ACCUMULATOR, then START, so a combined
// clear-and-start accumulates onto a zeroed accumulator. Any write that
// performs an operation (START or CLEAR_ACCUMULATOR) asserts the
// completion signal; only CLEAR_DONE ever deasserts it.
func (p *Peripheral) writeControl(ctrl uint32) {
	if ctrl>>CtrlClearDone&1 == 1 {
		p.done = false
	}

	operated := false
	if ctrl>>CtrlClearAcc&1 == 1 {
		p.acc = 0
		p.stats.AccClears++
		operated = true
	}
	if ctrl>>CtrlStart&1 == 1 {
		p.operate(ctrl)
		operated = true
	}
	if operated {
		p.done = true
	}
}

// operate performs one multiply or multiply-accumulate step.
func (p *Peripheral) operate(ctrl uint32) {
	signed := ctrl>>CtrlSigned&1 == 1

	// 16x16->32 is exact in either signedness.
	var prod48 int64
	if signed {
		prod := int32(int16(p.operandA)) * int32(int16(p.operandB))
		p.product = uint32(prod)
		prod48 = int64(prod)
	} else {
		prod := uint32(p.operandA) * uint32(p.operandB)
		p.product = prod
		prod48 = int64(prod)
	}
	p.stats.Multiplies++

	if ctrl>>CtrlMode&1 != 1 {
		return
	}

	// |acc| <= 2^47 and |prod48| < 2^32, so the int64 sum is exact.
	sum := p.acc + prod48
	if ctrl>>CtrlSaturate&1 == 1 {
		if sum > AccMax {
			sum = AccMax
			p.stats.Saturations++
		} else if sum < AccMin {
			sum = AccMin
			p.stats.Saturations++
		}
	} else {
		// Wrap to 48-bit two's complement.
		sum = sum << 16 >> 16
	}
	p.acc = sum
	p.stats.Accumulates++
}
