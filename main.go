// Package main provides the entry point for MACSim.
// MACSim is a verification harness for the TinyQV INT16 MAC peripheral.
//
// For the full CLI, use: go run ./cmd/macsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("MACSim - INT16 MAC Peripheral Verification Harness")
	fmt.Println("")
	fmt.Println("Usage: macsim [options]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config    Path to harness configuration JSON file")
	fmt.Println("  -scenario  Comma-separated scenario names (default: all)")
	fmt.Println("  -seed      Override the stress scenario RNG seed")
	fmt.Println("  -list      List scenarios and exit")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/macsim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/macsim' instead.")
	}
}
