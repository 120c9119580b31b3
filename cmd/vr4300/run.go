package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/vr4300sim/emu"
	"github.com/sarchlab/vr4300sim/insts"
	"github.com/sarchlab/vr4300sim/loader"
	"github.com/sarchlab/vr4300sim/timing/core"
)

type runOptions struct {
	raw         bool
	addr        uint64
	configPath  string
	maxCycles   uint64
	haltOnFault bool
	functional  bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <program>",
		Short: "Run a big-endian MIPS program until it reaches an idle loop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadCoreConfig(cmd, opts)
			if err != nil {
				return err
			}

			prog, err := loadProgram(args[0], opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Program: %s\n", args[0])
			_, _ = fmt.Fprintf(out, "Entry point: 0x%016X\n", prog.EntryPoint)

			if opts.functional {
				return runFunctional(out, prog, config)
			}
			return runTiming(out, prog, config)
		},
	}

	cmd.Flags().BoolVar(&opts.raw, "raw", false, "Treat the program as a flat memory image")
	cmd.Flags().Uint64Var(&opts.addr, "addr", 0xFFFFFFFF80001000,
		"Load and entry address for --raw images")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to core configuration JSON file")
	cmd.Flags().Uint64Var(&opts.maxCycles, "max-cycles", 0,
		"Cycle budget (instruction budget with --functional); 0 means no limit")
	cmd.Flags().BoolVar(&opts.haltOnFault, "halt-on-fault", false,
		"Stop at the first fault instead of taking the exception")
	cmd.Flags().BoolVar(&opts.functional, "functional", false,
		"Run on the functional emulator instead of the pipeline")

	return cmd
}

// loadCoreConfig reads the config file, if any, and applies flag overrides.
func loadCoreConfig(cmd *cobra.Command, opts runOptions) (*core.Config, error) {
	config := core.DefaultConfig()
	if opts.configPath != "" {
		var err error
		config, err = core.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("max-cycles") {
		config.MaxCycles = opts.maxCycles
	}
	if cmd.Flags().Changed("halt-on-fault") {
		config.HaltOnFault = opts.haltOnFault
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid core config: %w", err)
	}

	return config, nil
}

func loadProgram(path string, opts runOptions) (*loader.Program, error) {
	if opts.raw {
		return loader.LoadRaw(path, opts.addr)
	}
	return loader.Load(path)
}

// runTiming runs the program on the cycle-level pipeline.
func runTiming(out io.Writer, prog *loader.Program, config *core.Config) error {
	regFile := &emu.RegFile{}
	memory := emu.NewMemory()

	prog.LoadInto(memory)
	regFile.WriteReg(insts.RegSP, prog.InitialSP)

	c := core.NewCore(regFile, memory, config)
	c.SetPC(prog.EntryPoint)

	err := c.Run()
	stats := c.Stats()

	_, _ = fmt.Fprintf(out, "Cycles: %d\n", stats.Cycles)
	_, _ = fmt.Fprintf(out, "Instructions: %d\n", stats.Instructions)
	_, _ = fmt.Fprintf(out, "CPI: %.3f\n", c.Pipeline.Stats().CPI())
	_, _ = fmt.Fprintf(out, "Stalls: %d\n", stats.Stalls)
	_, _ = fmt.Fprintf(out, "Flushes: %d\n", stats.Flushes)
	_, _ = fmt.Fprintf(out, "Exceptions: %d\n", stats.Exceptions)
	_, _ = fmt.Fprintf(out, "Simulated time: %.3f us at %.2f MHz\n",
		stats.SimulatedSeconds*1e6, config.ClockMHz)
	_, _ = fmt.Fprintf(out, "$v0: 0x%016X\n", regFile.ReadReg(2))

	logrus.WithFields(logrus.Fields{
		"cycles":       stats.Cycles,
		"instructions": stats.Instructions,
	}).Info("pipeline run finished")

	return err
}

// runFunctional runs the program one instruction at a time on the
// reference emulator.
func runFunctional(out io.Writer, prog *loader.Program, config *core.Config) error {
	e := emu.NewEmulator(
		emu.WithMaxInstructions(config.MaxCycles),
		emu.WithExceptionVector(config.ExceptionVector),
		emu.WithHaltOnFault(config.HaltOnFault),
		emu.WithEmulatorLogger(logrus.WithField("component", "emulator")),
	)

	prog.LoadInto(e.Memory())
	e.RegFile().WriteReg(insts.RegSP, prog.InitialSP)
	e.SetPC(prog.EntryPoint)

	err := e.Run()

	_, _ = fmt.Fprintf(out, "Instructions: %d\n", e.InstructionCount())
	_, _ = fmt.Fprintf(out, "$v0: 0x%016X\n", e.RegFile().ReadReg(2))

	return err
}
