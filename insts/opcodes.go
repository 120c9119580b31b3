package insts

import "strconv"

// Op identifies an instruction group. Each group is executed by exactly one
// handler; variants inside a group are selected by instruction-word bits.
type Op uint8

// VR4300 opcode groups. OpINV is the catch-all for every encoding that has
// no dedicated group.
const (
	OpINV Op = iota

	// Groups with execute handlers.
	OpAddSub       // ADD, SUB
	OpAddiSubi     // ADDI
	OpAddiuSubiu   // ADDIU
	OpAdduSubu     // ADDU, SUBU
	OpAndOrXor     // AND, OR, XOR
	OpAndiOriXori  // ANDI, ORI, XORI
	OpBeqBne       // BEQ, BEQL, BNE, BNEL
	OpBgezBltz     // BGEZ, BGEZL, BLTZ, BLTZL
	OpBgezalBltzal // BGEZAL, BGEZALL, BLTZAL, BLTZALL
	OpBgtzBlez     // BGTZ, BGTZL, BLEZ, BLEZL
	OpJalrJr       // JALR, JR
	OpLoad         // LB, LBU, LH, LHU, LW, LWU
	OpLui          // LUI
	OpMtcx         // MTC0
	OpSll          // SLL
	OpSrl          // SRL
	OpStore        // SB, SH, SW

	// Decoded groups that dispatch to the invalid handler.
	OpJ
	OpJal
	OpNor
	OpSra
	OpShiftVar    // SLLV, SRLV, SRAV
	OpSlt         // SLT, SLTU
	OpSlti        // SLTI, SLTIU
	OpMulDiv      // MULT, MULTU, DIV, DIVU
	OpHiLo        // MFHI, MTHI, MFLO, MTLO
	OpSyscall     // SYSCALL
	OpBreak       // BREAK
	OpSync        // SYNC
	OpTrap        // TGE, TGEU, TLT, TLTU, TEQ, TNE and immediate forms
	OpMfcx        // MFC0
	OpEret        // ERET
	OpCop1        // all COP1 (FPU) encodings
	OpCache       // CACHE
	OpLoadPartial // LWL, LWR, LDL, LDR
	OpStorePartial
	OpLoadDouble  // LD, LL, LLD
	OpStoreDouble // SD, SC, SCD
	OpDoubleArith // DADD, DADDU, DSUB, DSUBU, DADDI, DADDIU
	OpDoubleShift // DSLL, DSRL, DSRA and their 32/V forms

	// NumOps is the number of opcode groups.
	NumOps
)

var mnemonics = [NumOps]string{
	OpINV:          "INV",
	OpAddSub:       "ADD/SUB",
	OpAddiSubi:     "ADDI/SUBI",
	OpAddiuSubiu:   "ADDIU/SUBIU",
	OpAdduSubu:     "ADDU/SUBU",
	OpAndOrXor:     "AND/OR/XOR",
	OpAndiOriXori:  "ANDI/ORI/XORI",
	OpBeqBne:       "BEQ/BEQL/BNE/BNEL",
	OpBgezBltz:     "BGEZ/BGEZL/BLTZ/BLTZL",
	OpBgezalBltzal: "BGEZAL/BGEZALL/BLTZAL/BLTZALL",
	OpBgtzBlez:     "BGTZ/BGTZL/BLEZ/BLEZL",
	OpJalrJr:       "JALR/JR",
	OpLoad:         "LOAD",
	OpLui:          "LUI",
	OpMtcx:         "MTCx",
	OpSll:          "SLL",
	OpSrl:          "SRL",
	OpStore:        "STORE",
	OpJ:            "J",
	OpJal:          "JAL",
	OpNor:          "NOR",
	OpSra:          "SRA",
	OpShiftVar:     "SLLV/SRLV/SRAV",
	OpSlt:          "SLT/SLTU",
	OpSlti:         "SLTI/SLTIU",
	OpMulDiv:       "MULT/MULTU/DIV/DIVU",
	OpHiLo:         "MFHI/MTHI/MFLO/MTLO",
	OpSyscall:      "SYSCALL",
	OpBreak:        "BREAK",
	OpSync:         "SYNC",
	OpTrap:         "TRAP",
	OpMfcx:         "MFCx",
	OpEret:         "ERET",
	OpCop1:         "COP1",
	OpCache:        "CACHE",
	OpLoadPartial:  "LWL/LWR/LDL/LDR",
	OpStorePartial: "SWL/SWR/SDL/SDR",
	OpLoadDouble:   "LD/LL/LLD",
	OpStoreDouble:  "SD/SC/SCD",
	OpDoubleArith:  "DADD/DADDU/DSUB/DSUBU",
	OpDoubleShift:  "DSLL/DSRL/DSRA",
}

// String returns the mnemonic group name, used for diagnostics only.
func (op Op) String() string {
	if op >= NumOps {
		return "INV"
	}
	return mnemonics[op]
}

// Well-known GPR indices.
const (
	RegZero uint8 = 0
	RegAT   uint8 = 1
	RegT0   uint8 = 8
	RegSP   uint8 = 29
	RegRA   uint8 = 31
)

var regNames = [32]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

// RegName returns the ABI name of a GPR, or "c<n>" for a CP0 index in 32-63.
func RegName(index uint8) string {
	switch {
	case index < 32:
		return regNames[index]
	case index < 64:
		return "c" + strconv.Itoa(int(index-32))
	default:
		return "?"
	}
}
