package emu

import "github.com/sarchlab/vr4300sim/insts"

// Handler executes one opcode group. It reads the decode latch and the two
// resolved source operands and returns the latch write-set for the cycle.
// A non-nil error is always a *Fault, and the Outcome is then empty.
type Handler func(in DecodeLatch, rs, rt uint64) (Outcome, error)

var (
	functionTable [insts.NumOps]Handler
	implemented   [insts.NumOps]bool
)

func init() {
	initFunctionTable()
}

func initFunctionTable() {
	// Every group without a dedicated handler falls back to INV.
	for i := range functionTable {
		functionTable[i] = inv
	}

	// Arithmetic and logic
	register(insts.OpAddSub, addSub)
	register(insts.OpAddiSubi, addiSubi)
	register(insts.OpAddiuSubiu, addiuSubiu)
	register(insts.OpAdduSubu, adduSubu)
	register(insts.OpAndOrXor, andOrXor)
	register(insts.OpAndiOriXori, andiOriXori)
	register(insts.OpLui, lui)
	register(insts.OpSll, sll)
	register(insts.OpSrl, srl)

	// Branches and jumps
	register(insts.OpBeqBne, beqBne)
	register(insts.OpBgezBltz, bgezBltz)
	register(insts.OpBgezalBltzal, bgezalBltzal)
	register(insts.OpBgtzBlez, bgtzBlez)
	register(insts.OpJalrJr, jalrJr)

	// Loads and stores
	register(insts.OpLoad, load)
	register(insts.OpStore, store)

	// Coprocessor moves
	register(insts.OpMtcx, mtcx)
}

func register(op insts.Op, h Handler) {
	functionTable[op] = h
	implemented[op] = true
}

// HandlerFor returns the handler registered for op. Ids outside the
// enumeration resolve to the invalid-opcode handler.
func HandlerFor(op insts.Op) Handler {
	if op >= insts.NumOps {
		return inv
	}
	return functionTable[op]
}

// Implemented reports whether op has a dedicated handler.
func Implemented(op insts.Op) bool {
	return op < insts.NumOps && implemented[op]
}

// Dispatch executes the instruction in the decode latch.
func Dispatch(in DecodeLatch, rs, rt uint64) (Outcome, error) {
	// A killed delay slot has decayed to the all-zero word, which is SLL
	// $zero, $zero, 0 regardless of what it decoded as, and its operand
	// fields name $zero.
	if in.Squashed() {
		in.Op = insts.OpSll
		rs, rt = 0, 0
	}

	return HandlerFor(in.Op)(in, rs, rt)
}

// NewDecodeLatch builds a decode latch in the normal squash state.
func NewDecodeLatch(iw insts.Word, op insts.Op, pc uint64) DecodeLatch {
	return DecodeLatch{IW: iw, Op: op, PC: pc}
}
