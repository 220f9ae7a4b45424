package spi

import "errors"

// Protocol and transport failure modes. Protocol errors are detected
// before any bit is transmitted; transport errors abort the transaction
// in place. Neither is retried internally.
var (
	// ErrInvalidCommand means the raw command value is not representable
	// in 32 bits.
	ErrInvalidCommand = errors.New("invalid command word")

	// ErrInvalidWidth means the command carries the reserved width code.
	ErrInvalidWidth = errors.New("invalid width code")

	// ErrInvalidAddress means the address portion would require more
	// than 6 bits.
	ErrInvalidAddress = errors.New("invalid register address")

	// ErrTransport means the underlying line could not be sampled or
	// driven. The transaction is aborted and the link returned to idle.
	ErrTransport = errors.New("transport failure")
)
