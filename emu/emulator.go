package emu

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/vr4300sim/insts"
)

// DefaultExceptionVector is the general exception vector with Status.BEV
// clear.
const DefaultExceptionVector uint64 = 0xFFFFFFFF80000180

// ErrMaxInstructions is returned once the instruction limit is reached.
var ErrMaxInstructions = errors.New("max instructions reached")

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Exited is true once the program parks in a branch-to-self idle loop.
	Exited bool

	// Fault is set when the instruction raised an exception. The exception
	// has already been taken.
	Fault *Fault

	// Err is set if execution cannot continue.
	Err error
}

// Emulator executes VR4300 instructions one at a time, without a pipeline.
// It runs the same execute-stage handlers the pipeline does and serves as
// its architectural reference.
type Emulator struct {
	regFile *RegFile
	memory  *Memory
	decoder *insts.Decoder
	logger  logrus.FieldLogger

	// Branch state carried into the next instruction. slot is set behind
	// every executed branch, taken or not. pending is set only when the
	// branch redirected fetch.
	squash    SquashState
	slot      bool
	pending   bool
	pendingPC uint64
	branchPC  uint64

	exceptionVector uint64
	haltOnFault     bool

	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// WithExceptionVector sets the address fetch is redirected to on a fault.
func WithExceptionVector(vector uint64) EmulatorOption {
	return func(e *Emulator) {
		e.exceptionVector = vector
	}
}

// WithHaltOnFault stops execution at the first fault instead of entering
// the exception vector.
func WithHaltOnFault(halt bool) EmulatorOption {
	return func(e *Emulator) {
		e.haltOnFault = halt
	}
}

// WithMemory runs the emulator against an existing memory.
func WithMemory(m *Memory) EmulatorOption {
	return func(e *Emulator) {
		e.memory = m
	}
}

// WithEmulatorLogger sets the logger used to report exceptions.
func WithEmulatorLogger(l logrus.FieldLogger) EmulatorOption {
	return func(e *Emulator) {
		e.logger = l
	}
}

// NewEmulator creates a new VR4300 emulator.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile:         &RegFile{},
		memory:          NewMemory(),
		decoder:         insts.NewDecoder(),
		logger:          logrus.StandardLogger(),
		exceptionVector: DefaultExceptionVector,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// InstructionCount returns the number of instructions executed, including
// squashed delay slots.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// LoadProgram copies program into memory at entry and starts execution
// there.
func (e *Emulator) LoadProgram(entry uint64, program []byte) {
	e.memory.LoadImage(entry, program)
	e.SetPC(entry)
}

// SetPC restarts execution at pc, dropping any pending branch.
func (e *Emulator) SetPC(pc uint64) {
	e.regFile.PC = pc
	e.slot = false
	e.pending = false
	e.squash = SquashNormal
}

// Step executes a single instruction.
func (e *Emulator) Step() StepResult {
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{Err: ErrMaxInstructions}
	}

	pc := e.regFile.PC
	word := insts.Word(e.memory.Read32(pc))

	inst := e.decoder.Decode(uint32(word))
	in := NewDecodeLatch(word, inst.Op, pc)
	in.Squash = e.squash

	inDelaySlot := e.slot
	redirect := e.pending
	target, branchPC := e.pendingPC, e.branchPC
	isBranch := inst.IsBranch && !in.Squashed()
	e.slot = false
	e.pending = false
	e.squash = SquashNormal

	out, err := Dispatch(in,
		e.regFile.ReadReg(word.Rs()), e.regFile.ReadReg(word.Rt()))
	e.instructionCount++

	if err != nil {
		f, ok := AsFault(err)
		if !ok {
			return StepResult{Err: err}
		}
		return e.takeException(f, inDelaySlot)
	}

	e.memoryAccess(&out.Exec)
	e.regFile.Commit(out.Exec.Dest, out.Exec.Result)
	e.squash = out.Squash
	e.slot = isBranch

	if out.Fetch.Valid {
		e.pending = true
		e.pendingPC = out.Fetch.PC
		e.branchPC = pc
	}

	next := pc + 4
	if redirect {
		next = target
	}
	e.regFile.PC = next

	return StepResult{Exited: redirect && target == branchPC}
}

func (e *Emulator) memoryAccess(exec *ExecuteLatch) {
	req := exec.Request
	if !req.Valid {
		return
	}

	data := e.memory.Service(req)
	if req.Kind == BusRead {
		exec.Result = MergeLoad(exec.Result, data, req.Size)
	}
}

func (e *Emulator) takeException(f *Fault, inDelaySlot bool) StepResult {
	e.logger.WithFields(logrus.Fields{
		"kind": f.Kind.String(),
		"pc":   fmt.Sprintf("0x%016X", f.PC),
		"slot": inDelaySlot,
	}).Warn("exception")

	if e.haltOnFault {
		return StepResult{Fault: f, Err: f}
	}

	e.regFile.EnterException(f, inDelaySlot)
	e.SetPC(e.exceptionVector)

	return StepResult{Fault: f}
}

// Run executes until the program reaches an idle loop or an error stops it.
func (e *Emulator) Run() error {
	for {
		result := e.Step()
		if result.Exited {
			return nil
		}
		if result.Err != nil {
			return fmt.Errorf("emulation stopped at 0x%016X: %w",
				e.regFile.PC, result.Err)
		}
	}
}
