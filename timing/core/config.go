package core

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/vr4300sim/emu"
)

// Config holds the core parameters.
// Values default to an NTSC N64 VR4300.
type Config struct {
	// ClockMHz is the pipeline clock. Default: 93.75 MHz.
	ClockMHz float64 `json:"clock_mhz"`

	// ResetVector is where fetch starts after reset.
	// Default: 0xFFFFFFFFBFC00000 (PIF ROM in KSEG1).
	ResetVector uint64 `json:"reset_vector"`

	// ExceptionVector is where fetch goes when an instruction faults.
	// Default: 0xFFFFFFFF80000180.
	ExceptionVector uint64 `json:"exception_vector"`

	// MaxCycles bounds Run. 0 means no limit.
	MaxCycles uint64 `json:"max_cycles"`

	// HaltOnFault stops the core at the first fault instead of taking the
	// exception.
	HaltOnFault bool `json:"halt_on_fault"`
}

// DefaultConfig returns a Config with VR4300 default values.
func DefaultConfig() *Config {
	return &Config{
		ClockMHz:        93.75,
		ResetVector:     0xFFFFFFFFBFC00000,
		ExceptionVector: emu.DefaultExceptionVector,
	}
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read core config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse core config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize core config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write core config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration can drive a core.
func (c *Config) Validate() error {
	if c.ClockMHz <= 0 {
		return fmt.Errorf("clock_mhz must be > 0")
	}
	if c.ResetVector&0x3 != 0 {
		return fmt.Errorf("reset_vector must be word aligned")
	}
	if c.ExceptionVector&0x3 != 0 {
		return fmt.Errorf("exception_vector must be word aligned")
	}
	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Freq returns the clock as an akita frequency.
func (c *Config) Freq() sim.Freq {
	return sim.Freq(c.ClockMHz) * sim.MHz
}
