// Package pipeline provides the reference 5-stage VR4300 pipeline that drives
// the execute-stage handlers cycle by cycle.
package pipeline

import (
	"github.com/sarchlab/vr4300sim/emu"
	"github.com/sarchlab/vr4300sim/insts"
)

// ICRFRegister holds state between the Instruction Cache and Register
// Fetch stages.
type ICRFRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// PC is the program counter of the fetched instruction.
	PC uint64

	// InstructionWord is the raw 32-bit instruction word.
	InstructionWord insts.Word
}

// Clear resets the IC/RF register to empty state.
func (r *ICRFRegister) Clear() {
	*r = ICRFRegister{}
}

// RFEXRegister holds state between the Register Fetch and Execute stages.
type RFEXRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// Latch is the decode latch handed to the execute handler. Its Squash
	// field carries the state written by the preceding branch.
	Latch emu.DecodeLatch

	// Inst is the decoded instruction, used for hazard detection.
	Inst *insts.Instruction

	// InDelaySlot is set when the instruction sits in a branch delay slot.
	InDelaySlot bool

	// Exit marks the delay slot of a branch-to-self idle loop.
	Exit bool
}

// Clear resets the RF/EX register to empty state.
func (r *RFEXRegister) Clear() {
	*r = RFEXRegister{}
}

// usesReg reports whether the instruction reads GPR reg.
func (r *RFEXRegister) usesReg(reg uint8) bool {
	if !r.Valid || r.Inst == nil || r.Latch.Squashed() || reg == insts.RegZero {
		return false
	}
	return (r.Inst.UsesRs && r.Inst.Rs == reg) ||
		(r.Inst.UsesRt && r.Inst.Rt == reg)
}

// EXDCRegister holds state between the Execute and Data Cache stages.
type EXDCRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// PC is the program counter of the instruction.
	PC uint64

	// Exec is the write-set produced by the execute handler.
	Exec emu.ExecuteLatch

	// Exit is propagated from RF/EX.
	Exit bool
}

// Clear resets the EX/DC register to empty state.
func (r *EXDCRegister) Clear() {
	*r = EXDCRegister{}
}

// isLoad reports whether the instruction still waits for load data.
func (r *EXDCRegister) isLoad() bool {
	return r.Valid && r.Exec.Request.Valid && r.Exec.Request.Kind == emu.BusRead
}

// DCWBRegister holds state between the Data Cache and Writeback stages.
type DCWBRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// PC is the program counter of the instruction.
	PC uint64

	// Dest is the register written at writeback.
	Dest emu.Dest

	// Value is the final result, with load data already merged.
	Value uint64

	// Exit is propagated from EX/DC.
	Exit bool
}

// Clear resets the DC/WB register to empty state.
func (r *DCWBRegister) Clear() {
	*r = DCWBRegister{}
}
