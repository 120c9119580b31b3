package insts

// Instruction is a decoded VR4300 instruction word together with the
// register usage the pipeline needs for hazard detection.
type Instruction struct {
	Op   Op   // Opcode group
	Word Word // Raw instruction word

	// Source registers read by the instruction.
	Rs     uint8
	Rt     uint8
	UsesRs bool
	UsesRt bool

	// Dest is the GPR written by the instruction when WritesDest is set.
	Dest       uint8
	WritesDest bool

	// Control classification.
	IsLoad   bool
	IsStore  bool
	IsBranch bool
}

// Primary opcodes.
const (
	opSpecial = 0x00
	opRegimm  = 0x01
	opJ       = 0x02
	opJal     = 0x03
	opBeq     = 0x04
	opBne     = 0x05
	opBlez    = 0x06
	opBgtz    = 0x07
	opAddi    = 0x08
	opAddiu   = 0x09
	opSlti    = 0x0A
	opSltiu   = 0x0B
	opAndi    = 0x0C
	opOri     = 0x0D
	opXori    = 0x0E
	opLui     = 0x0F
	opCop0    = 0x10
	opCop1    = 0x11
	opCop2    = 0x12
	opBeql    = 0x14
	opBnel    = 0x15
	opBlezl   = 0x16
	opBgtzl   = 0x17
	opDaddi   = 0x18
	opDaddiu  = 0x19
	opLdl     = 0x1A
	opLdr     = 0x1B
	opLb      = 0x20
	opLh      = 0x21
	opLwl     = 0x22
	opLw      = 0x23
	opLbu     = 0x24
	opLhu     = 0x25
	opLwr     = 0x26
	opLwu     = 0x27
	opSb      = 0x28
	opSh      = 0x29
	opSwl     = 0x2A
	opSw      = 0x2B
	opSdl     = 0x2C
	opSdr     = 0x2D
	opSwr     = 0x2E
	opCache   = 0x2F
	opLl      = 0x30
	opLwc1    = 0x31
	opLld     = 0x34
	opLdc1    = 0x35
	opLd      = 0x37
	opSc      = 0x38
	opSwc1    = 0x39
	opScd     = 0x3C
	opSdc1    = 0x3D
	opSd      = 0x3F
)

// primaryOps maps primary opcodes other than SPECIAL, REGIMM and COPz.
// Zero entries (OpINV) are either reserved or unsupported.
var primaryOps = [64]Op{
	opJ:      OpJ,
	opJal:    OpJal,
	opBeq:    OpBeqBne,
	opBne:    OpBeqBne,
	opBlez:   OpBgtzBlez,
	opBgtz:   OpBgtzBlez,
	opAddi:   OpAddiSubi,
	opAddiu:  OpAddiuSubiu,
	opSlti:   OpSlti,
	opSltiu:  OpSlti,
	opAndi:   OpAndiOriXori,
	opOri:    OpAndiOriXori,
	opXori:   OpAndiOriXori,
	opLui:    OpLui,
	opCop1:   OpCop1,
	opBeql:   OpBeqBne,
	opBnel:   OpBeqBne,
	opBlezl:  OpBgtzBlez,
	opBgtzl:  OpBgtzBlez,
	opDaddi:  OpDoubleArith,
	opDaddiu: OpDoubleArith,
	opLdl:    OpLoadPartial,
	opLdr:    OpLoadPartial,
	opLb:     OpLoad,
	opLh:     OpLoad,
	opLwl:    OpLoadPartial,
	opLw:     OpLoad,
	opLbu:    OpLoad,
	opLhu:    OpLoad,
	opLwr:    OpLoadPartial,
	opLwu:    OpLoad,
	opSb:     OpStore,
	opSh:     OpStore,
	opSwl:    OpStorePartial,
	opSw:     OpStore,
	opSdl:    OpStorePartial,
	opSdr:    OpStorePartial,
	opSwr:    OpStorePartial,
	opCache:  OpCache,
	opLl:     OpLoadDouble,
	opLwc1:   OpCop1,
	opLld:    OpLoadDouble,
	opLdc1:   OpCop1,
	opLd:     OpLoadDouble,
	opSc:     OpStoreDouble,
	opSwc1:   OpCop1,
	opScd:    OpStoreDouble,
	opSdc1:   OpCop1,
	opSd:     OpStoreDouble,
}

// specialOps maps SPECIAL function codes.
var specialOps = [64]Op{
	0x00: OpSll,
	0x02: OpSrl,
	0x03: OpSra,
	0x04: OpShiftVar,
	0x06: OpShiftVar,
	0x07: OpShiftVar,
	0x08: OpJalrJr,
	0x09: OpJalrJr,
	0x0C: OpSyscall,
	0x0D: OpBreak,
	0x0F: OpSync,
	0x10: OpHiLo,
	0x11: OpHiLo,
	0x12: OpHiLo,
	0x13: OpHiLo,
	0x14: OpDoubleShift,
	0x16: OpDoubleShift,
	0x17: OpDoubleShift,
	0x18: OpMulDiv,
	0x19: OpMulDiv,
	0x1A: OpMulDiv,
	0x1B: OpMulDiv,
	0x1C: OpMulDiv,
	0x1D: OpMulDiv,
	0x1E: OpMulDiv,
	0x1F: OpMulDiv,
	0x20: OpAddSub,
	0x21: OpAdduSubu,
	0x22: OpAddSub,
	0x23: OpAdduSubu,
	0x24: OpAndOrXor,
	0x25: OpAndOrXor,
	0x26: OpAndOrXor,
	0x27: OpNor,
	0x2A: OpSlt,
	0x2B: OpSlt,
	0x2C: OpDoubleArith,
	0x2D: OpDoubleArith,
	0x2E: OpDoubleArith,
	0x2F: OpDoubleArith,
	0x30: OpTrap,
	0x31: OpTrap,
	0x32: OpTrap,
	0x33: OpTrap,
	0x34: OpTrap,
	0x36: OpTrap,
	0x38: OpDoubleShift,
	0x3A: OpDoubleShift,
	0x3B: OpDoubleShift,
	0x3C: OpDoubleShift,
	0x3E: OpDoubleShift,
	0x3F: OpDoubleShift,
}

// Reserved encodings raise a reserved-instruction exception on hardware.
var (
	reservedPrimary = map[uint32]bool{
		0x13: true, 0x1C: true, 0x1D: true, 0x1E: true, 0x1F: true,
		0x33: true, 0x3B: true,
	}
	reservedSpecial = map[uint32]bool{
		0x01: true, 0x05: true, 0x0A: true, 0x0B: true, 0x0E: true,
		0x15: true, 0x28: true, 0x29: true, 0x35: true, 0x37: true,
		0x39: true, 0x3D: true,
	}
)

// IsReserved reports whether w is an architecturally reserved encoding, as
// opposed to a valid instruction this core does not implement.
func IsReserved(w Word) bool {
	switch w.Opcode() {
	case opSpecial:
		return reservedSpecial[w.Funct()]
	case opRegimm:
		return regimmOp(w) == OpINV
	default:
		return reservedPrimary[w.Opcode()]
	}
}

// Decoder decodes VR4300 machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new VR4300 instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// DecodeOp returns only the opcode group of w.
func (d *Decoder) DecodeOp(w Word) Op {
	switch w.Opcode() {
	case opSpecial:
		return specialOps[w.Funct()]
	case opRegimm:
		return regimmOp(w)
	case opCop0, opCop2:
		return copOp(w)
	default:
		return primaryOps[w.Opcode()]
	}
}

// Decode decodes a 32-bit instruction word.
func (d *Decoder) Decode(word uint32) *Instruction {
	w := Word(word)
	inst := &Instruction{
		Op:   d.DecodeOp(w),
		Word: w,
		Rs:   w.Rs(),
		Rt:   w.Rt(),
	}

	switch inst.Op {
	case OpAddSub, OpAdduSubu, OpAndOrXor:
		inst.UsesRs, inst.UsesRt = true, true
		inst.Dest, inst.WritesDest = w.Rd(), true
	case OpAddiSubi, OpAddiuSubiu, OpAndiOriXori:
		inst.UsesRs = true
		inst.Dest, inst.WritesDest = w.Rt(), true
	case OpLui:
		inst.Dest, inst.WritesDest = w.Rt(), true
	case OpSll, OpSrl:
		inst.UsesRt = true
		inst.Dest, inst.WritesDest = w.Rd(), true
	case OpBeqBne:
		inst.UsesRs, inst.UsesRt = true, true
		inst.IsBranch = true
	case OpBgezBltz, OpBgtzBlez:
		inst.UsesRs = true
		inst.IsBranch = true
	case OpBgezalBltzal:
		inst.UsesRs = true
		inst.IsBranch = true
		inst.Dest, inst.WritesDest = RegRA, true
	case OpJalrJr:
		inst.UsesRs = true
		inst.IsBranch = true
		if w.Bit(0) == 1 {
			inst.Dest, inst.WritesDest = w.Rd(), true
		}
	case OpLoad:
		inst.UsesRs = true
		inst.IsLoad = true
		inst.Dest, inst.WritesDest = w.Rt(), true
	case OpStore:
		inst.UsesRs, inst.UsesRt = true, true
		inst.IsStore = true
	case OpMtcx:
		inst.UsesRt = true
	}

	// GPR 0 never carries a dependency.
	if inst.Dest == RegZero {
		inst.WritesDest = false
	}

	return inst
}

func regimmOp(w Word) Op {
	switch rt := w.Rt(); {
	case rt <= 0x03:
		return OpBgezBltz
	case rt >= 0x08 && rt <= 0x0E && rt != 0x0D:
		return OpTrap
	case rt >= 0x10 && rt <= 0x13:
		return OpBgezalBltzal
	default:
		return OpINV
	}
}

func copOp(w Word) Op {
	// COP2 has no coprocessor attached on the VR4300; only COP0 moves decode.
	if w.Opcode() != opCop0 {
		return OpINV
	}

	switch w.Rs() {
	case 0x00:
		return OpMfcx
	case 0x04:
		return OpMtcx
	case 0x10:
		if w.Funct() == 0x18 {
			return OpEret
		}
	}
	return OpINV
}
