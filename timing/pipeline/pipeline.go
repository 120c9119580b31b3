package pipeline

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/vr4300sim/emu"
)

// Statistics holds pipeline performance statistics.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions completed (retired),
	// including squashed delay slots.
	Instructions uint64
	// Stalls is the number of load-use interlock cycles.
	Stalls uint64
	// Flushes is the number of pipeline flushes caused by exceptions.
	Flushes uint64
	// DataHazards is the number of RAW data hazards resolved by forwarding.
	DataHazards uint64
	// BranchesTaken is the number of fetch redirects from branches and jumps.
	BranchesTaken uint64
	// Squashes is the number of delay slots killed by untaken likely branches.
	Squashes uint64
	// Exceptions is the number of faults raised in the execute stage.
	Exceptions uint64
}

// CPI returns the cycles per instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithExceptionVector sets the address fetch is redirected to on a fault.
func WithExceptionVector(vector uint64) PipelineOption {
	return func(p *Pipeline) {
		p.exceptionVector = vector
	}
}

// WithHaltOnFault halts the pipeline at the first fault instead of taking
// the exception.
func WithHaltOnFault(halt bool) PipelineOption {
	return func(p *Pipeline) {
		p.haltOnFault = halt
	}
}

// WithLogger sets the logger used for pipeline events.
func WithLogger(l logrus.FieldLogger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// Pipeline implements the VR4300 5-stage pipeline.
// Stages: Instruction Cache (IC) -> Register Fetch (RF) -> Execute (EX) ->
// Data Cache (DC) -> Writeback (WB).
type Pipeline struct {
	// Pipeline registers
	icrf ICRFRegister
	rfex RFEXRegister
	exdc EXDCRegister
	dcwb DCWBRegister

	// Pipeline stages
	fetchStage     *FetchStage
	decodeStage    *DecodeStage
	executeStage   *ExecuteStage
	memoryStage    *MemoryStage
	writebackStage *WritebackStage

	// Hazard detection
	hazardUnit *HazardUnit

	// Shared resources
	regFile *emu.RegFile
	memory  *emu.Memory

	// Next fetch address
	pc uint64

	exceptionVector uint64
	haltOnFault     bool
	logger          logrus.FieldLogger

	// Statistics
	stats Statistics

	// Execution state
	halted bool
	err    error
}

// NewPipeline creates a new 5-stage pipeline.
func NewPipeline(regFile *emu.RegFile, memory *emu.Memory, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		fetchStage:      NewFetchStage(memory),
		decodeStage:     NewDecodeStage(),
		executeStage:    NewExecuteStage(),
		memoryStage:     NewMemoryStage(memory),
		writebackStage:  NewWritebackStage(regFile),
		hazardUnit:      NewHazardUnit(),
		regFile:         regFile,
		memory:          memory,
		exceptionVector: emu.DefaultExceptionVector,
		logger:          logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// PC returns the next fetch address.
func (p *Pipeline) PC() uint64 {
	return p.pc
}

// SetPC sets the program counter.
func (p *Pipeline) SetPC(pc uint64) {
	p.pc = pc
	p.regFile.PC = pc
}

// GetICRF returns the IC/RF pipeline register.
func (p *Pipeline) GetICRF() *ICRFRegister {
	return &p.icrf
}

// GetRFEX returns the RF/EX pipeline register.
func (p *Pipeline) GetRFEX() *RFEXRegister {
	return &p.rfex
}

// GetEXDC returns the EX/DC pipeline register.
func (p *Pipeline) GetEXDC() *EXDCRegister {
	return &p.exdc
}

// GetDCWB returns the DC/WB pipeline register.
func (p *Pipeline) GetDCWB() *DCWBRegister {
	return &p.dcwb
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// Halted returns true if the pipeline has halted.
func (p *Pipeline) Halted() bool {
	return p.halted
}

// Err returns the error that halted the pipeline, if any.
func (p *Pipeline) Err() error {
	return p.err
}

// Run executes the pipeline until it halts.
func (p *Pipeline) Run() error {
	for !p.halted {
		p.Tick()
	}
	return p.err
}

// RunCycles executes the pipeline for the specified number of cycles.
// Returns true if still running, false if halted.
func (p *Pipeline) RunCycles(cycles uint64) bool {
	for i := uint64(0); i < cycles && !p.halted; i++ {
		p.Tick()
	}
	return !p.halted
}

// Tick executes one pipeline cycle.
//
// Every stage reads the pipeline registers latched at the end of the
// previous cycle and produces the next-state registers, which are latched
// together at the end of the tick. Stages are evaluated WB, DC, EX, RF, IC
// so that the execute outcome reaches RF and IC in the same cycle:
//   - a fetch redirect steers IC, whose instruction follows the delay slot
//     that RF is decoding;
//   - the squash state is stored into the delay slot's decode latch.
//
// Operands are forwarded from EX/DC and DC/WB. A load in EX/DC feeding the
// instruction in EX stalls EX, RF and IC for one cycle.
func (p *Pipeline) Tick() {
	if p.halted {
		return
	}

	p.stats.Cycles++

	// Stage 5: Writeback
	p.writebackStage.Writeback(&p.dcwb)
	if p.dcwb.Valid {
		p.stats.Instructions++
		if p.dcwb.Exit {
			p.halted = true
			return
		}
	}

	// Stage 4: Data cache
	nextDCWB := p.memoryStage.Access(&p.exdc)

	// Stage 3: Execute
	var nextEXDC EXDCRegister
	var outcome emu.Outcome

	stall := p.hazardUnit.DetectLoadUseHazard(&p.rfex, &p.exdc)
	if stall {
		p.stats.Stalls++
	} else if p.rfex.Valid {
		rs, rt := p.readOperands()

		exdc, out, err := p.executeStage.Execute(&p.rfex, rs, rt)
		if err != nil {
			p.takeException(err, nextDCWB)
			return
		}
		nextEXDC, outcome = exdc, out
	}

	// Stage 2: Register fetch
	nextRFEX := p.rfex
	if !stall {
		nextRFEX = p.decodeStage.Decode(&p.icrf, outcome.Squash)
		p.markDelaySlot(&nextRFEX, outcome)
	}

	// Stage 1: Instruction cache
	nextICRF := p.icrf
	if !stall {
		if outcome.Fetch.Valid {
			p.pc = outcome.Fetch.PC
		}
		nextICRF = p.fetchStage.Fetch(p.pc)
		p.pc += 4
	}

	p.icrf = nextICRF
	p.rfex = nextRFEX
	p.exdc = nextEXDC
	p.dcwb = nextDCWB
	p.regFile.PC = p.pc
}

// readOperands reads rs and rt for the instruction in RF/EX, forwarding
// results that have not been written back yet.
func (p *Pipeline) readOperands() (uint64, uint64) {
	inst := p.rfex.Inst
	forwarding := p.hazardUnit.DetectForwarding(&p.rfex, &p.exdc, &p.dcwb)
	if forwarding.Any() {
		p.stats.DataHazards++
	}

	rs := p.hazardUnit.GetForwardedValue(forwarding.ForwardRs,
		p.regFile.ReadReg(inst.Rs), &p.exdc, &p.dcwb)
	rt := p.hazardUnit.GetForwardedValue(forwarding.ForwardRt,
		p.regFile.ReadReg(inst.Rt), &p.exdc, &p.dcwb)

	return rs, rt
}

// markDelaySlot flags the instruction decoded behind a branch that executed
// this cycle.
func (p *Pipeline) markDelaySlot(next *RFEXRegister, outcome emu.Outcome) {
	if outcome.Fetch.Valid {
		p.stats.BranchesTaken++
	}
	if outcome.Squash == emu.SquashSquashed {
		p.stats.Squashes++
	}

	branch := p.rfex
	if !next.Valid || !branch.Valid || branch.Inst == nil ||
		branch.Latch.Squashed() || !branch.Inst.IsBranch {
		return
	}

	next.InDelaySlot = true
	next.Exit = outcome.Fetch.Valid && outcome.Fetch.PC == branch.Latch.PC
}

// takeException handles a fault raised by the instruction in RF/EX. Older
// instructions complete, the faulting one and everything younger is
// flushed.
func (p *Pipeline) takeException(err error, nextDCWB DCWBRegister) {
	f, ok := emu.AsFault(err)
	if !ok {
		p.halt(fmt.Errorf("execute stage: %w", err), nextDCWB)
		return
	}

	p.stats.Exceptions++
	p.logger.WithFields(logrus.Fields{
		"kind":  f.Kind.String(),
		"pc":    fmt.Sprintf("0x%016X", f.PC),
		"cycle": p.stats.Cycles,
		"slot":  p.rfex.InDelaySlot,
	}).Warn("exception")

	if p.haltOnFault {
		p.halt(fmt.Errorf("fault at cycle %d: %w", p.stats.Cycles, f), nextDCWB)
		return
	}

	p.regFile.EnterException(f, p.rfex.InDelaySlot)
	p.stats.Flushes++

	p.icrf.Clear()
	p.rfex.Clear()
	p.exdc.Clear()
	p.dcwb = nextDCWB
	p.SetPC(p.exceptionVector)
}

// halt stops the pipeline after draining the instructions older than the
// current one.
func (p *Pipeline) halt(err error, nextDCWB DCWBRegister) {
	p.writebackStage.Writeback(&nextDCWB)
	if nextDCWB.Valid {
		p.stats.Instructions++
	}

	p.halted = true
	p.err = err
}

// Reset clears all pipeline state.
func (p *Pipeline) Reset() {
	p.icrf.Clear()
	p.rfex.Clear()
	p.exdc.Clear()
	p.dcwb.Clear()
	p.stats = Statistics{}
	p.halted = false
	p.err = nil
	p.pc = 0
}
