package emu

// effectiveAddress computes base + sign-extended 16-bit offset.
func effectiveAddress(in DecodeLatch, rs uint64) uint64 {
	return rs + in.Word().SImm()
}

// transferSize decodes the width from opcode bits [27:26]: 1, 2 or 4 bytes.
func transferSize(in DecodeLatch) uint8 {
	return uint8(in.Word()>>26&0x3) + 1
}

// fitsBusWord reports whether size bytes at addr stay within one 32-bit
// bus word, so that a single lane mask can describe the access.
func fitsBusWord(addr uint64, size uint8) bool {
	return addr&0x3+uint64(size) <= 4
}

// widthMask returns a right-aligned mask covering size bytes.
func widthMask(size uint8) uint32 {
	return ^uint32(0) >> (32 - 8*uint32(size))
}

// load executes LB, LBU, LH, LHU, LW and LWU. Opcode bit 2 selects zero
// extension; the result is seeded so the memory stage only merges data in.
func load(in DecodeLatch, rs, _ uint64) (Outcome, error) {
	iw := in.Word()
	sexMask := loadSexLUT[iw>>28&0x1]
	address := effectiveAddress(in, rs)
	size := transferSize(in)

	if !fitsBusWord(address, size) {
		fault := newFault(UnalignedAddress, in)
		fault.Address = address
		return Outcome{}, fault
	}

	out := writeback(GPR(iw.Rt()), sexMask)
	out.Exec.Request = BusRequest{
		Valid:   true,
		Address: address,
		Kind:    BusRead,
		Size:    size,
	}

	return out, nil
}

// store executes SB, SH and SW.
func store(in DecodeLatch, rs, rt uint64) (Outcome, error) {
	address := effectiveAddress(in, rs)
	size := transferSize(in)
	mask := widthMask(size)

	if !fitsBusWord(address, size) {
		fault := newFault(UnalignedAddress, in)
		fault.Address = address
		fault.Store = true
		return Outcome{}, fault
	}

	var out Outcome
	out.Exec.Request = BusRequest{
		Valid:    true,
		Address:  address,
		Kind:     BusWrite,
		Size:     size,
		Word:     uint32(rt) & mask,
		LaneMask: mask << (8 * uint32(address&0x3)),
	}

	return out, nil
}

// MergeLoad combines data fetched for a load with the seed the load handler
// left in the result. data holds size bytes, right-aligned. An all-ones seed
// sign-extends from the top bit of the transfer; a zero seed zero-extends.
func MergeLoad(seed, data uint64, size uint8) uint64 {
	bits := 8 * uint64(size)
	if bits >= 64 {
		return data
	}

	data &= (uint64(1) << bits) - 1
	sign := (data >> (bits - 1)) & 0x1
	fill := seed & (0 - sign)

	return data | fill<<bits
}
