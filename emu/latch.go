package emu

import "github.com/sarchlab/vr4300sim/insts"

// FetchLatch carries the next fetch address. Valid is set only by
// control-flow handlers; when it is clear the fetch stage keeps its
// sequential address.
type FetchLatch struct {
	Valid bool
	PC    uint64
}

// DecodeLatch holds the instruction in the execute stage. Handlers read it
// and never write it.
type DecodeLatch struct {
	// IW is the raw instruction word.
	IW insts.Word

	// Squash is the state left by the preceding branch. The zero value is
	// SquashNormal. A likely branch that is not taken sets SquashSquashed for
	// its delay-slot instruction, which masks IW to zero.
	Squash SquashState

	// Op is the decoded opcode group.
	Op insts.Op

	// PC is the address of the instruction.
	PC uint64
}

// IWMask returns the mask ANDed into IW before execution.
func (l DecodeLatch) IWMask() uint32 {
	return l.Squash.IWMask()
}

// Word returns the instruction word with the squash mask applied.
func (l DecodeLatch) Word() insts.Word {
	return l.IW & insts.Word(l.IWMask())
}

// Squashed reports whether the squash mask has killed the instruction.
func (l DecodeLatch) Squashed() bool {
	return l.IWMask() != branchLUT[0]
}

// Dest is an optional destination register. Indices 0-31 address GPRs and
// 32-63 address CP0 registers.
type Dest struct {
	Valid bool
	Index uint8
}

// GPR returns a destination for general-purpose register index.
func GPR(index uint8) Dest {
	return Dest{Valid: true, Index: index & 0x1F}
}

// CP0 returns a destination for control register index.
func CP0(index uint8) Dest {
	return Dest{Valid: true, Index: (index & 0x1F) + 32}
}

// IsCP0 reports whether the destination addresses the control register file.
func (d Dest) IsCP0() bool {
	return d.Valid && d.Index >= 32
}

// BusKind is the direction of a bus request.
type BusKind uint8

// Bus request kinds.
const (
	BusRead BusKind = iota
	BusWrite
)

func (k BusKind) String() string {
	if k == BusWrite {
		return "WRITE"
	}
	return "READ"
}

// BusRequest is a pending memory transaction produced by a load or store.
type BusRequest struct {
	// Valid indicates a request is present.
	Valid bool

	Address uint64
	Kind    BusKind

	// Size is the transfer width in bytes: 1, 2 or 4.
	Size uint8

	// Word is the store data, masked to Size bytes and right-aligned.
	Word uint32

	// LaneMask has 0xFF in every byte lane the store modifies. Lane i is
	// bits [8i+7:8i] and corresponds to byte (Address &^ 3) + i.
	LaneMask uint32
}

// ExecuteLatch carries the execute-stage result toward memory and writeback.
type ExecuteLatch struct {
	// Result is the value to commit to Dest. For loads it is the
	// sign-extension seed the fetched data is merged into.
	Result uint64

	Dest    Dest
	Request BusRequest
}

// SquashState is the two-valued state carried from a branch to the decode
// of its delay-slot instruction.
type SquashState uint8

// Squash states.
const (
	SquashNormal SquashState = iota
	SquashSquashed
)

// IWMask returns the instruction-word mask for the state.
func (s SquashState) IWMask() uint32 {
	return branchLUT[s&0x1]
}

func (s SquashState) String() string {
	if s == SquashSquashed {
		return "SQUASHED"
	}
	return "NORMAL"
}

// squashStateOf converts a branch-table mask back into a state.
func squashStateOf(mask uint32) SquashState {
	if mask == branchLUT[0] {
		return SquashNormal
	}
	return SquashSquashed
}

// Outcome is the complete write-set of one handler invocation.
type Outcome struct {
	Fetch  FetchLatch
	Squash SquashState
	Exec   ExecuteLatch
}
