// Package spi implements the bit-serial register transaction protocol
// used to access the MAC peripheral over a four-wire link.
//
// A transaction is one 32-bit command word, transmitted MSB-first,
// optionally followed by a data payload (writes) or a 32-bit response
// (reads). Data is driven while the clock is low and sampled by the
// receiving side while the clock is high.
//
// Usage:
//
//	cmd := spi.NewCommand(true, spi.Width32, mac.RegOperandA)
//	_, err := engine.Transfer(cmd, 0xDEAD)
package spi

import "fmt"

// Command word layout (32 bits, MSB first on the wire):
//
//	bit 31    : direction, 1=write 0=read
//	bits 30-29: width code, 0=1 byte, 1=2 bytes, 2=4 bytes (3 invalid)
//	bits 28-6 : reserved, zero on encode, ignored on decode
//	bits 5-0  : register address
const (
	cmdDirShift   = 31
	cmdWidthShift = 29
	cmdWidthMask  = 0x3
	cmdAddrMask   = 0x3F

	// CommandBits is the number of bits in a command word.
	CommandBits = 32

	// ResponseBits is the number of bits a read response carries. The
	// protocol always returns a full word regardless of the width code.
	ResponseBits = 32
)

// WidthCode selects the operand size of a register access.
type WidthCode uint8

// Supported width codes.
const (
	Width8  WidthCode = 0 // 1-byte access
	Width16 WidthCode = 1 // 2-byte access
	Width32 WidthCode = 2 // 4-byte access
)

// Bytes returns the operand size in bytes, or ErrInvalidWidth for the
// reserved code 3.
func (w WidthCode) Bytes() (int, error) {
	switch w {
	case Width8:
		return 1, nil
	case Width16:
		return 2, nil
	case Width32:
		return 4, nil
	default:
		return 0, fmt.Errorf("%w: code %d", ErrInvalidWidth, w)
	}
}

// Bits returns the operand size in bits, or ErrInvalidWidth for the
// reserved code 3.
func (w WidthCode) Bits() (int, error) {
	b, err := w.Bytes()
	return 8 * b, err
}

// Mask returns the payload mask for this width code. The reserved code
// masks to zero.
func (w WidthCode) Mask() uint32 {
	bits, err := w.Bits()
	if err != nil {
		return 0
	}
	return uint32(uint64(1)<<bits - 1)
}

// Command is a 32-bit register transaction command word.
type Command uint32

// NewCommand builds a command word. The address is masked to 6 bits;
// supplying an address outside 0-63 is a caller bug, not a protocol
// error, and is caught earlier by the driver layer.
func NewCommand(write bool, width WidthCode, addr uint8) Command {
	c := Command(uint32(addr) & cmdAddrMask)
	c |= Command(uint32(width)&cmdWidthMask) << cmdWidthShift
	if write {
		c |= 1 << cmdDirShift
	}
	return c
}

// ParseCommand validates that a raw value is representable as a 32-bit
// command word. Reserved bits are preserved but carry no meaning.
func ParseCommand(raw uint64) (Command, error) {
	if raw > 0xFFFFFFFF {
		return 0, fmt.Errorf("%w: 0x%X", ErrInvalidCommand, raw)
	}
	return Command(raw), nil
}

// IsWrite reports whether the command is a register write.
func (c Command) IsWrite() bool {
	return c>>cmdDirShift&1 == 1
}

// Width returns the command's width code. The code may be the reserved
// value 3; Validate rejects it.
func (c Command) Width() WidthCode {
	return WidthCode(c >> cmdWidthShift & cmdWidthMask)
}

// Address returns the 6-bit register address.
func (c Command) Address() uint8 {
	return uint8(c & cmdAddrMask)
}

// Validate checks the command's width code and address fields. The
// address check is defensive: the field cannot structurally exceed
// 6 bits.
func (c Command) Validate() error {
	if _, err := c.Width().Bytes(); err != nil {
		return err
	}
	if uint32(c.Address()) > cmdAddrMask {
		return fmt.Errorf("%w: 0x%X", ErrInvalidAddress, c.Address())
	}
	return nil
}

// String renders the command for diagnostics.
func (c Command) String() string {
	dir := "read"
	if c.IsWrite() {
		dir = "write"
	}
	return fmt.Sprintf("%s addr=0x%02X width=%d raw=0x%08X",
		dir, c.Address(), c.Width(), uint32(c))
}
