package insts

// Word is a raw 32-bit VR4300 instruction word.
type Word uint32

// NOP is the canonical no-op encoding (SLL $zero, $zero, 0). A squashed
// instruction word always decays to it.
const NOP Word = 0

// Opcode returns the primary opcode in bits [31:26].
func (w Word) Opcode() uint32 {
	return uint32(w) >> 26
}

// Rs returns the register index in bits [25:21].
func (w Word) Rs() uint8 {
	return uint8(w>>21) & 0x1F
}

// Rt returns the register index in bits [20:16].
func (w Word) Rt() uint8 {
	return uint8(w>>16) & 0x1F
}

// Rd returns the register index in bits [15:11].
func (w Word) Rd() uint8 {
	return uint8(w>>11) & 0x1F
}

// SA returns the shift amount in bits [10:6].
func (w Word) SA() uint8 {
	return uint8(w>>6) & 0x1F
}

// Funct returns the SPECIAL function code in bits [5:0].
func (w Word) Funct() uint32 {
	return uint32(w) & 0x3F
}

// Imm returns the raw 16-bit immediate in bits [15:0].
func (w Word) Imm() uint16 {
	return uint16(w)
}

// SImm returns the 16-bit immediate sign-extended to 64 bits.
func (w Word) SImm() uint64 {
	return uint64(int64(int16(w)))
}

// Target returns the 26-bit jump target in bits [25:0].
func (w Word) Target() uint32 {
	return uint32(w) & 0x3FFFFFF
}

// Bit returns bit n of the word as 0 or 1.
func (w Word) Bit(n uint) uint32 {
	return uint32(w>>n) & 0x1
}
