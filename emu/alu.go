// Package emu provides the VR4300 execute-stage core.
//
// Every supported opcode group has one handler. A handler reads the decode
// latch and the two source-operand values resolved by the driver, and
// returns the complete latch write-set for the cycle as an Outcome, or a
// *Fault. Handlers keep no state between invocations.
package emu

// sext32 sign-extends the low 32 bits of v.
func sext32(v uint64) uint64 {
	return uint64(int64(int32(uint32(v))))
}

// overflows32 reports whether a 32-bit signed sum carried into bit 32 with
// a different value than bit 31.
func overflows32(sum uint64) bool {
	return (sum>>31)&0x1 != (sum>>32)&0x1
}

func writeback(dest Dest, value uint64) Outcome {
	return Outcome{Exec: ExecuteLatch{Result: value, Dest: dest}}
}

// addSub executes ADD and SUB. Function-code bit 1 selects subtraction;
// both trap on signed 32-bit overflow.
func addSub(in DecodeLatch, rs, rt uint64) (Outcome, error) {
	iw := in.Word()
	mask := addSubLUT[iw>>1&0x1]

	rt = (rt ^ mask) - mask
	rd := rs + rt

	if overflows32(rd) {
		return Outcome{}, newFault(IntegerOverflow, in)
	}

	return writeback(GPR(iw.Rd()), sext32(rd)), nil
}

// addiSubi executes ADDI. The immediate group has no subtract encoding, so
// the selector is fixed at addition.
func addiSubi(in DecodeLatch, rs, _ uint64) (Outcome, error) {
	iw := in.Word()
	mask := addSubLUT[0]

	rt := iw.SImm()
	rt = (rt ^ mask) - mask
	rt = rs + rt

	if overflows32(rt) {
		return Outcome{}, newFault(IntegerOverflow, in)
	}

	return writeback(GPR(iw.Rt()), sext32(rt)), nil
}

// addiuSubiu executes ADDIU.
func addiuSubiu(in DecodeLatch, rs, _ uint64) (Outcome, error) {
	iw := in.Word()
	mask := addSubLUT[0]

	rt := iw.SImm()
	rt = (rt ^ mask) - mask
	rt = rs + rt

	return writeback(GPR(iw.Rt()), sext32(rt)), nil
}

// adduSubu executes ADDU and SUBU.
func adduSubu(in DecodeLatch, rs, rt uint64) (Outcome, error) {
	iw := in.Word()
	mask := addSubLUT[iw>>1&0x1]

	rt = (rt ^ mask) - mask
	rd := rs + rt

	return writeback(GPR(iw.Rd()), sext32(rd)), nil
}

// bitwise computes AND, OR, XOR or zero depending on the table row.
func bitwise(sel uint32, a, b uint64) uint64 {
	andMask := bitwiseLUT[sel&0x3][0]
	xorMask := bitwiseLUT[sel&0x3][1]

	return ((a & b) & andMask) | ((a ^ b) & xorMask)
}

// andOrXor executes AND, OR and XOR, selected by the low function-code bits.
func andOrXor(in DecodeLatch, rs, rt uint64) (Outcome, error) {
	iw := in.Word()
	rd := bitwise(uint32(iw), rs, rt)

	return writeback(GPR(iw.Rd()), rd), nil
}

// andiOriXori executes ANDI, ORI and XORI with a zero-extended immediate.
func andiOriXori(in DecodeLatch, rs, _ uint64) (Outcome, error) {
	iw := in.Word()
	rt := bitwise(iw.Opcode(), rs, uint64(iw.Imm()))

	return writeback(GPR(iw.Rt()), rt), nil
}

// lui loads the immediate into the upper half, sign-extended.
func lui(in DecodeLatch, _, _ uint64) (Outcome, error) {
	iw := in.Word()
	imm := iw.SImm() << 16

	return writeback(GPR(iw.Rt()), imm), nil
}

// sll shifts the low word of rt left by sa.
func sll(in DecodeLatch, _, rt uint64) (Outcome, error) {
	iw := in.Word()
	sa := iw.SA()

	return writeback(GPR(iw.Rd()), sext32(uint64(uint32(rt)<<sa))), nil
}

// srl shifts the low word of rt right by sa, filling with zeros.
func srl(in DecodeLatch, _, rt uint64) (Outcome, error) {
	iw := in.Word()
	sa := iw.SA()

	return writeback(GPR(iw.Rd()), sext32(uint64(uint32(rt)>>sa))), nil
}
