package insts

// EncodeR builds a SPECIAL (R-type) instruction word.
func EncodeR(funct uint32, rs, rt, rd, sa uint8) Word {
	return Word(uint32(rs&0x1F)<<21 | uint32(rt&0x1F)<<16 |
		uint32(rd&0x1F)<<11 | uint32(sa&0x1F)<<6 | funct&0x3F)
}

// EncodeI builds an I-type instruction word from a primary opcode.
func EncodeI(opcode uint32, rs, rt uint8, imm uint16) Word {
	return Word((opcode&0x3F)<<26 | uint32(rs&0x1F)<<21 |
		uint32(rt&0x1F)<<16 | uint32(imm))
}

// EncodeRegimm builds a REGIMM branch, where the rt field selects the variant.
func EncodeRegimm(variant, rs uint8, imm uint16) Word {
	return EncodeI(opRegimm, rs, variant, imm)
}

// EncodeMTC0 builds MTC0 rt, rd.
func EncodeMTC0(rt, rd uint8) Word {
	return Word(uint32(opCop0)<<26|0x04<<21) | EncodeR(0, 0, rt, rd, 0)
}
