package emu

import "github.com/sarchlab/vr4300sim/insts"

// branchTarget returns the PC-relative target of a conditional branch.
func branchTarget(in DecodeLatch) uint64 {
	offset := in.Word().SImm() << 2
	return in.PC + (offset + 4)
}

// resolveBranch produces the outcome of a conditional branch. A branch that
// is not taken leaves fetch untouched and, for likely variants, squashes the
// delay slot. A taken branch redirects fetch and keeps the slot.
func resolveBranch(in DecodeLatch, taken bool, likely uint32, out Outcome) Outcome {
	if !taken {
		out.Squash = squashStateOf(branchLUT[likely&0x1])
		return out
	}

	out.Fetch = FetchLatch{Valid: true, PC: branchTarget(in)}
	return out
}

// beqBne executes BEQ, BEQL, BNE and BNEL. Opcode bit 4 marks likely and
// bit 0 marks not-equal.
func beqBne(in DecodeLatch, rs, rt uint64) (Outcome, error) {
	iw := in.Word()
	likely := iw.Bit(30)
	isNE := iw.Bit(26) == 1
	cmp := rs == rt

	return resolveBranch(in, cmp != isNE, likely, Outcome{}), nil
}

// bgezBltz executes BGEZ, BGEZL, BLTZ and BLTZL, selected by the rt field.
func bgezBltz(in DecodeLatch, rs, _ uint64) (Outcome, error) {
	iw := in.Word()
	likely := iw.Bit(17)
	isGE := iw.Bit(16) == 1
	cmp := int64(rs) < 0

	return resolveBranch(in, cmp != isGE, likely, Outcome{}), nil
}

// bgezalBltzal executes BGEZAL, BGEZALL, BLTZAL and BLTZALL. The return
// address is written to $ra on every execution, whether or not the branch
// is taken.
func bgezalBltzal(in DecodeLatch, rs, _ uint64) (Outcome, error) {
	iw := in.Word()
	likely := iw.Bit(17)
	isGE := iw.Bit(16) == 1
	cmp := int64(rs) < 0

	link := writeback(GPR(insts.RegRA), in.PC+4)

	return resolveBranch(in, cmp != isGE, likely, link), nil
}

// bgtzBlez executes BGTZ, BGTZL, BLEZ and BLEZL.
func bgtzBlez(in DecodeLatch, rs, _ uint64) (Outcome, error) {
	iw := in.Word()
	likely := iw.Bit(30)
	isGT := iw.Bit(26) == 1
	cmp := int64(rs) <= 0

	return resolveBranch(in, cmp != isGT, likely, Outcome{}), nil
}

// jalrJr executes JALR and JR. Function-code bit 0 distinguishes JALR, which
// links to rd; JR has no destination at all.
func jalrJr(in DecodeLatch, rs, _ uint64) (Outcome, error) {
	iw := in.Word()

	var out Outcome
	if iw.Bit(0) == 1 {
		out = writeback(GPR(iw.Rd()), in.PC+4)
	}

	out.Fetch = FetchLatch{Valid: true, PC: rs}
	return out, nil
}
