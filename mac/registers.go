// Package mac models the register-mapped INT16 multiply-accumulate
// peripheral: its addressable register file, the arithmetic triggered
// by control writes, and the level-triggered completion signal.
//
// The model is the device-side contract any implementation of the
// peripheral must satisfy. It is transport-agnostic; the spi package
// carries its accesses over the serial link.
package mac

// Register byte offsets, consistent with the 6-bit address field of the
// serial command word.
const (
	RegCtrl     uint8 = 0x20 // control, write side-effecting, read undefined
	RegOperandA uint8 = 0x24 // 16-bit operand A
	RegOperandB uint8 = 0x28 // 16-bit operand B
	RegProduct  uint8 = 0x2C // 32-bit product of the last operation
	RegAccHigh  uint8 = 0x30 // accumulator bits 47-32
	RegAccMid   uint8 = 0x34 // accumulator bits 31-16
	RegAccLow   uint8 = 0x38 // accumulator bits 15-0
)

// Control register bit positions. Bits not listed are reserved; bit 4
// and above up to bit 10 are an unconfirmed round/shift extension point
// and are ignored, not interpreted.
const (
	CtrlStart     = 0  // trigger an operation
	CtrlMode      = 1  // 0=multiply only, 1=multiply-accumulate
	CtrlSigned    = 2  // interpret operands as two's complement
	CtrlSaturate  = 3  // clamp accumulation instead of wrapping
	CtrlClearAcc  = 11 // zero the accumulator
	CtrlClearDone = 12 // deassert the completion signal
)

// Signed 48-bit accumulator range.
const (
	AccMax int64 = 1<<47 - 1
	AccMin int64 = -1 << 47
)
