package emu

// CP0 register indices.
const (
	CP0Index    uint8 = 0
	CP0BadVAddr uint8 = 8
	CP0Count    uint8 = 9
	CP0Compare  uint8 = 11
	CP0Status   uint8 = 12
	CP0Cause    uint8 = 13
	CP0EPC      uint8 = 14
	CP0PRId     uint8 = 15
)

// Status and Cause bits touched by exception entry.
const (
	statusEXL   uint64 = 1 << 1
	causeBD     uint64 = 1 << 31
	causeExcMsk uint64 = 0x1F << 2
)

// RegFile represents the VR4300 register file.
// It contains 32 general-purpose registers, the 32 CP0 control registers
// addressed as destination indices 32-63, and the program counter.
type RegFile struct {
	// GPR holds general-purpose registers. GPR[0] always reads as 0.
	GPR [32]uint64

	// CP0 holds the system control coprocessor registers.
	CP0 [32]uint64

	// PC is the program counter.
	PC uint64
}

// ReadReg reads a GPR. Register 0 returns 0.
func (r *RegFile) ReadReg(reg uint8) uint64 {
	if reg == 0 || reg >= 32 {
		return 0
	}
	return r.GPR[reg]
}

// WriteReg writes a GPR. Writes to register 0 are discarded.
func (r *RegFile) WriteReg(reg uint8, value uint64) {
	if reg == 0 || reg >= 32 {
		return
	}
	r.GPR[reg] = value
}

// ReadCP0 reads a control register.
func (r *RegFile) ReadCP0(reg uint8) uint64 {
	return r.CP0[reg&0x1F]
}

// WriteCP0 writes a control register.
func (r *RegFile) WriteCP0(reg uint8, value uint64) {
	r.CP0[reg&0x1F] = value
}

// Read reads an extended register index: 0-31 GPR, 32-63 CP0.
func (r *RegFile) Read(index uint8) uint64 {
	if index >= 32 {
		return r.ReadCP0(index - 32)
	}
	return r.ReadReg(index)
}

// Commit writes value to dest. An absent destination writes nothing.
func (r *RegFile) Commit(dest Dest, value uint64) {
	if !dest.Valid {
		return
	}

	if dest.IsCP0() {
		r.WriteCP0(dest.Index-32, value)
		return
	}

	r.WriteReg(dest.Index, value)
}

// EnterException records a fault in CP0 the way the VR4300 does on
// exception entry: Cause.ExcCode and Cause.BD, EPC, BadVAddr for address
// errors, and Status.EXL. When the faulting instruction sits in a branch
// delay slot, EPC points at the branch.
func (r *RegFile) EnterException(f *Fault, inDelaySlot bool) {
	cause := r.CP0[CP0Cause] &^ (causeExcMsk | causeBD)
	cause |= uint64(f.ExcCode()) << 2

	epc := f.PC
	if inDelaySlot {
		cause |= causeBD
		epc -= 4
	}

	r.CP0[CP0Cause] = cause
	r.CP0[CP0EPC] = epc
	r.CP0[CP0Status] |= statusEXL

	if f.Kind == UnalignedAddress {
		r.CP0[CP0BadVAddr] = f.Address
	}
}
