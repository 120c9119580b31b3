package emu

// mtcx moves the low word of rt, sign-extended, into control register rd.
// Control registers are addressed as destination indices 32-63.
func mtcx(in DecodeLatch, _, rt uint64) (Outcome, error) {
	iw := in.Word()

	return writeback(CP0(iw.Rd()), sext32(rt)), nil
}
