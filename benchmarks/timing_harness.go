// Package benchmarks provides microbenchmark infrastructure for measuring the
// VR4300 pipeline model and cross-checking it against the functional emulator.
package benchmarks

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/vr4300sim/emu"
	"github.com/sarchlab/vr4300sim/insts"
	"github.com/sarchlab/vr4300sim/timing/core"
)

// ProgramBase is the KSEG0 address every benchmark program is loaded at.
const ProgramBase = uint64(0xFFFFFFFF80001000)

// ResultReg is the register a benchmark leaves its checked value in ($v0).
const ResultReg = 2

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// SimulatedCycles is the total cycle count from the pipeline model
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of completed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// StallCycles is the number of load-use interlock cycles
	StallCycles uint64 `json:"stall_cycles"`

	// DataHazards is the number of RAW hazards resolved via forwarding
	DataHazards uint64 `json:"data_hazards"`

	// BranchesTaken is the number of fetch redirects
	BranchesTaken uint64 `json:"branches_taken"`

	// Squashes is the number of likely-branch delay slots killed
	Squashes uint64 `json:"squashes"`

	// Exceptions is the number of faults taken
	Exceptions uint64 `json:"exceptions"`

	// SimulatedSeconds is the simulated run time at the core clock
	SimulatedSeconds float64 `json:"simulated_seconds"`

	// Result is the final value of $v0
	Result uint64 `json:"result"`

	// Passed reports whether Result matched the expected value and, when
	// cross-checking is on, the functional emulator agreed
	Passed bool `json:"passed"`

	// Error holds the reason a run failed, if any
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Setup prepares the machine state (e.g., initialize registers, memory)
	Setup func(regFile *emu.RegFile, memory *emu.Memory)

	// Program is the instruction stream, ending in an idle loop.
	Program []insts.Word

	// Expected is the value $v0 must hold when the program halts.
	Expected uint64
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Core is the core configuration each benchmark runs with.
	// nil selects core.DefaultConfig.
	Core *core.Config

	// CrossCheck also runs each benchmark on the functional emulator and
	// compares the final register files.
	CrossCheck bool

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	cfg := core.DefaultConfig()
	cfg.MaxCycles = 1_000_000

	return HarnessConfig{
		Core:       cfg,
		CrossCheck: true,
		Output:     os.Stdout,
		Verbose:    false,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
	logger     *logrus.Logger
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Core == nil {
		config.Core = core.DefaultConfig()
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	if config.Verbose {
		logger.SetOutput(config.Output)
		logger.SetLevel(logrus.DebugLevel)
	}

	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
		logger:     logger,
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		results = append(results, result)
	}

	return results
}

// prepare builds fresh machine state holding the benchmark program.
func prepare(bench Benchmark) (*emu.RegFile, *emu.Memory) {
	regFile := &emu.RegFile{}
	memory := emu.NewMemory()

	memory.LoadImage(ProgramBase, BuildProgram(bench.Program...))

	if bench.Setup != nil {
		bench.Setup(regFile, memory)
	}

	return regFile, memory
}

// runBenchmark executes a single benchmark.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	regFile, memory := prepare(bench)

	c := core.NewCoreWithLogger(regFile, memory, h.config.Core,
		h.logger.WithField("benchmark", bench.Name))
	c.SetPC(ProgramBase)

	// Run simulation and measure time
	start := time.Now()
	err := c.Run()
	wallTime := time.Since(start)

	stats := c.Pipeline.Stats()
	result := BenchmarkResult{
		Name:                bench.Name,
		Description:         bench.Description,
		SimulatedCycles:     stats.Cycles,
		InstructionsRetired: stats.Instructions,
		CPI:                 stats.CPI(),
		StallCycles:         stats.Stalls,
		DataHazards:         stats.DataHazards,
		BranchesTaken:       stats.BranchesTaken,
		Squashes:            stats.Squashes,
		Exceptions:          stats.Exceptions,
		SimulatedSeconds:    c.SimulatedTime(stats.Cycles),
		Result:              regFile.ReadReg(ResultReg),
		WallTime:            wallTime,
	}

	switch {
	case err != nil:
		result.Error = err.Error()
	case result.Result != bench.Expected:
		result.Error = fmt.Sprintf("$v0 = 0x%X, expected 0x%X", result.Result, bench.Expected)
	case h.config.CrossCheck:
		if mismatch := h.crossCheck(bench, regFile); mismatch != "" {
			result.Error = mismatch
		}
	}
	result.Passed = result.Error == ""

	h.logger.WithFields(logrus.Fields{
		"benchmark": bench.Name,
		"cycles":    result.SimulatedCycles,
		"passed":    result.Passed,
	}).Debug("benchmark finished")

	return result
}

// crossCheckCP0 lists the control registers an exception writes.
var crossCheckCP0 = []uint8{emu.CP0Status, emu.CP0Cause, emu.CP0EPC, emu.CP0BadVAddr}

// crossCheck replays the benchmark on the functional emulator and reports
// the first general-purpose or exception register that differs from the
// pipeline's.
func (h *Harness) crossCheck(bench Benchmark, pipelineRegs *emu.RegFile) string {
	regFile, memory := prepare(bench)

	e := emu.NewEmulator(
		emu.WithMemory(memory),
		emu.WithExceptionVector(h.config.Core.ExceptionVector),
		emu.WithHaltOnFault(h.config.Core.HaltOnFault),
		emu.WithMaxInstructions(h.config.Core.MaxCycles),
		emu.WithEmulatorLogger(h.logger.WithField("benchmark", bench.Name)),
	)
	for i := uint8(1); i < 32; i++ {
		e.RegFile().WriteReg(i, regFile.ReadReg(i))
	}
	e.RegFile().CP0 = regFile.CP0
	e.SetPC(ProgramBase)

	if err := e.Run(); err != nil {
		return fmt.Sprintf("emulator: %v", err)
	}

	for i := uint8(1); i < 32; i++ {
		want := e.RegFile().ReadReg(i)
		if got := pipelineRegs.ReadReg(i); got != want {
			return fmt.Sprintf("register %d: pipeline 0x%X, emulator 0x%X", i, got, want)
		}
	}

	for _, r := range crossCheckCP0 {
		want := e.RegFile().ReadCP0(r)
		if got := pipelineRegs.ReadCP0(r); got != want {
			return fmt.Sprintf("CP0 register %d: pipeline 0x%X, emulator 0x%X", r, got, want)
		}
	}

	return ""
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== VR4300 Pipeline Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL: " + r.Error
		}

		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(h.config.Output, "  Status: %s\n", status)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Timing ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(h.config.Output, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(h.config.Output, "  Stall Cycles:         %d\n", r.StallCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Data Hazards:         %d\n", r.DataHazards)
		_, _ = fmt.Fprintf(h.config.Output, "  Branches Taken:       %d\n", r.BranchesTaken)
		if r.Squashes > 0 {
			_, _ = fmt.Fprintf(h.config.Output, "  Squashed Slots:       %d\n", r.Squashes)
		}
		if r.Exceptions > 0 {
			_, _ = fmt.Fprintf(h.config.Output, "  Exceptions:           %d\n", r.Exceptions)
		}
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Time:       %.3f us\n", r.SimulatedSeconds*1e6)
		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,instructions,cpi,stalls,data_hazards,branches_taken,squashes,exceptions,result,passed")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%d,%t\n",
			r.Name,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.StallCycles,
			r.DataHazards,
			r.BranchesTaken,
			r.Squashes,
			r.Exceptions,
			r.Result,
			r.Passed,
		)
	}
}

// BuildProgram assembles instruction words into a big-endian byte slice.
func BuildProgram(words ...insts.Word) []byte {
	program := make([]byte, 4*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint32(program[4*i:], uint32(w))
	}
	return program
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Core is the core configuration used
	Core *core.Config `json:"core"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// Failed is the number of benchmarks that did not pass
	Failed int `json:"failed"`

	// TotalCycles is the sum of all simulated cycles
	TotalCycles uint64 `json:"total_cycles"`

	// TotalInstructions is the sum of all instructions retired
	TotalInstructions uint64 `json:"total_instructions"`

	// AverageCPI is the average cycles per instruction
	AverageCPI float64 `json:"average_cpi"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// Summarize computes aggregate statistics over results.
func Summarize(results []BenchmarkResult) ReportSummary {
	summary := ReportSummary{TotalBenchmarks: len(results)}
	for _, r := range results {
		summary.TotalCycles += r.SimulatedCycles
		summary.TotalInstructions += r.InstructionsRetired
		summary.TotalWallTime += r.WallTime
		if !r.Passed {
			summary.Failed++
		}
	}

	if summary.TotalInstructions > 0 {
		summary.AverageCPI = float64(summary.TotalCycles) / float64(summary.TotalInstructions)
	}

	return summary
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Core:      h.config.Core,
		},
		Results: results,
		Summary: Summarize(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
