package harness

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds the timing and workload parameters of the harness.
// Defaults match the reference bench: a 62.5 MHz system clock (16 ns
// period), 100 ns completion polling, and a 5 ms completion timeout.
type Config struct {
	// SysClockMHz is the device system clock frequency in MHz.
	SysClockMHz float64 `json:"sys_clock_mhz"`

	// ClockLowNs is the serial clock low time before data setup, in ns.
	ClockLowNs float64 `json:"clock_low_ns"`

	// DataSetupNs is the data setup time before the rising edge, in ns.
	DataSetupNs float64 `json:"data_setup_ns"`

	// ClockHighNs is the serial clock high hold time, in ns.
	ClockHighNs float64 `json:"clock_high_ns"`

	// SelectLeadNs is the select lead-in/lead-out time, in ns.
	SelectLeadNs float64 `json:"select_lead_ns"`

	// PollIntervalNs is the completion-pin sampling interval, in ns.
	PollIntervalNs float64 `json:"poll_interval_ns"`

	// TimeoutUs is the completion wait budget, in microseconds.
	TimeoutUs float64 `json:"timeout_us"`

	// CompletionLatencyCycles is the number of system-clock cycles the
	// simulated device takes before raising the interrupt pin.
	CompletionLatencyCycles uint64 `json:"completion_latency_cycles"`

	// StressIterations is the number of random operations in the
	// stress scenario.
	StressIterations int `json:"stress_iterations"`

	// Seed seeds the stress scenario's random operand generator.
	Seed int64 `json:"seed"`
}

// DefaultConfig returns the reference bench parameters.
func DefaultConfig() *Config {
	return &Config{
		SysClockMHz:             62.5,
		ClockLowNs:              20,
		DataSetupNs:             20,
		ClockHighNs:             40,
		SelectLeadNs:            100,
		PollIntervalNs:          100,
		TimeoutUs:               5000,
		CompletionLatencyCycles: 4,
		StressIterations:        100,
		Seed:                    1,
	}
}

// LoadConfig loads a configuration from a JSON file. Missing fields
// keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read harness config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse harness config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig writes the configuration to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize harness config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write harness config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.SysClockMHz <= 0 {
		return fmt.Errorf("sys_clock_mhz must be > 0")
	}
	if c.ClockLowNs <= 0 || c.DataSetupNs <= 0 || c.ClockHighNs <= 0 {
		return fmt.Errorf("serial bit timing values must be > 0")
	}
	if c.SelectLeadNs <= 0 {
		return fmt.Errorf("select_lead_ns must be > 0")
	}
	if c.PollIntervalNs <= 0 {
		return fmt.Errorf("poll_interval_ns must be > 0")
	}
	if c.TimeoutUs <= 0 {
		return fmt.Errorf("timeout_us must be > 0")
	}
	if c.StressIterations < 0 {
		return fmt.Errorf("stress_iterations must be >= 0")
	}
	return nil
}
