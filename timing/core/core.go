// Package core provides the cycle-accurate VR4300 core model.
// It wraps the pipeline implementation to provide a high-level interface.
package core

import (
	"errors"
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/vr4300sim/emu"
	"github.com/sarchlab/vr4300sim/timing/pipeline"
)

// ErrMaxCycles is returned by Run when the cycle budget runs out before the
// program halts.
var ErrMaxCycles = errors.New("max cycles reached")

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// Stalls is the number of stall cycles.
	Stalls uint64
	// Flushes is the number of pipeline flushes.
	Flushes uint64
	// Exceptions is the number of faults taken.
	Exceptions uint64
	// SimulatedSeconds is the simulated time elapsed at the core clock.
	SimulatedSeconds float64
}

// Core represents a cycle-accurate CPU core model.
// It wraps a 5-stage pipeline and provides a simple interface for simulation.
type Core struct {
	// Pipeline is the underlying 5-stage pipeline.
	Pipeline *pipeline.Pipeline

	// Shared resources
	regFile *emu.RegFile
	memory  *emu.Memory

	config *Config
	freq   sim.Freq
}

// NewCore creates a new Core with the given register file, memory and
// configuration. A nil config selects DefaultConfig. Fetch starts at the
// reset vector.
func NewCore(regFile *emu.RegFile, memory *emu.Memory, config *Config) *Core {
	return NewCoreWithLogger(regFile, memory, config,
		logrus.WithField("component", "pipeline"))
}

// NewCoreWithLogger is NewCore with an explicit logger for pipeline events.
func NewCoreWithLogger(
	regFile *emu.RegFile,
	memory *emu.Memory,
	config *Config,
	logger logrus.FieldLogger,
) *Core {
	if config == nil {
		config = DefaultConfig()
	}

	c := &Core{
		Pipeline: pipeline.NewPipeline(regFile, memory,
			pipeline.WithExceptionVector(config.ExceptionVector),
			pipeline.WithHaltOnFault(config.HaltOnFault),
			pipeline.WithLogger(logger),
		),
		regFile: regFile,
		memory:  memory,
		config:  config.Clone(),
		freq:    config.Freq(),
	}
	c.SetPC(config.ResetVector)

	return c
}

// Config returns a copy of the core configuration.
func (c *Core) Config() *Config {
	return c.config.Clone()
}

// Freq returns the core clock frequency.
func (c *Core) Freq() sim.Freq {
	return c.freq
}

// SetPC sets the program counter.
func (c *Core) SetPC(pc uint64) {
	c.Pipeline.SetPC(pc)
}

// Tick executes one pipeline cycle.
func (c *Core) Tick() {
	c.Pipeline.Tick()
}

// Halted returns true if the core has halted.
func (c *Core) Halted() bool {
	return c.Pipeline.Halted()
}

// Err returns the error that halted the core, if any.
func (c *Core) Err() error {
	return c.Pipeline.Err()
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	pipeStats := c.Pipeline.Stats()
	return Stats{
		Cycles:           pipeStats.Cycles,
		Instructions:     pipeStats.Instructions,
		Stalls:           pipeStats.Stalls,
		Flushes:          pipeStats.Flushes,
		Exceptions:       pipeStats.Exceptions,
		SimulatedSeconds: c.SimulatedTime(pipeStats.Cycles),
	}
}

// SimulatedTime converts a cycle count into seconds at the core clock.
func (c *Core) SimulatedTime(cycles uint64) float64 {
	return float64(cycles) * float64(c.freq.Period())
}

// Run executes the core until it halts or the configured cycle budget is
// exhausted.
func (c *Core) Run() error {
	if c.config.MaxCycles == 0 {
		return c.Pipeline.Run()
	}

	if used := c.Pipeline.Stats().Cycles; used < c.config.MaxCycles {
		c.Pipeline.RunCycles(c.config.MaxCycles - used)
	}

	if !c.Pipeline.Halted() {
		return fmt.Errorf("core stopped after %d cycles: %w",
			c.Pipeline.Stats().Cycles, ErrMaxCycles)
	}

	return c.Pipeline.Err()
}

// RunCycles executes the core for the specified number of cycles.
// Returns true if still running, false if halted.
func (c *Core) RunCycles(cycles uint64) bool {
	return c.Pipeline.RunCycles(cycles)
}

// Reset clears all core state and restarts fetch at the reset vector.
func (c *Core) Reset() {
	c.Pipeline.Reset()
	c.SetPC(c.config.ResetVector)
}
