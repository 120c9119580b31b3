package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vr4300sim/emu"
)

var _ = Describe("RegFile", func() {
	var regs *emu.RegFile

	BeforeEach(func() {
		regs = &emu.RegFile{}
	})

	It("should discard writes to $zero", func() {
		regs.Commit(emu.GPR(0), 0x1234)

		Expect(regs.ReadReg(0)).To(BeZero())
		Expect(regs.GPR[0]).To(BeZero())
	})

	It("should commit to general-purpose registers", func() {
		regs.Commit(emu.GPR(8), 100)

		Expect(regs.ReadReg(8)).To(Equal(uint64(100)))
		Expect(regs.Read(8)).To(Equal(uint64(100)))
	})

	It("should commit to control registers through the extended index", func() {
		regs.Commit(emu.CP0(emu.CP0Compare), 0xABCD)

		Expect(regs.ReadCP0(emu.CP0Compare)).To(Equal(uint64(0xABCD)))
		Expect(regs.Read(32 + emu.CP0Compare)).To(Equal(uint64(0xABCD)))
		Expect(regs.GPR[emu.CP0Compare]).To(BeZero())
	})

	It("should ignore an absent destination", func() {
		before := *regs

		regs.Commit(emu.Dest{}, 0xFFFF)

		Expect(*regs).To(Equal(before))
	})

	Describe("EnterException", func() {
		It("should record an overflow", func() {
			regs.CP0[emu.CP0Cause] = 0x300 // pending interrupt bits
			f := &emu.Fault{Kind: emu.IntegerOverflow, PC: 0xFFFFFFFF80001000}

			regs.EnterException(f, false)

			Expect(regs.CP0[emu.CP0Cause]).To(Equal(uint64(0x300 | 12<<2)))
			Expect(regs.CP0[emu.CP0EPC]).To(Equal(uint64(0xFFFFFFFF80001000)))
			Expect(regs.CP0[emu.CP0Status] & 0x2).To(Equal(uint64(0x2)))
			Expect(regs.CP0[emu.CP0BadVAddr]).To(BeZero())
		})

		It("should point EPC at the branch for a delay-slot fault", func() {
			f := &emu.Fault{Kind: emu.ReservedInstruction, PC: 0xFFFFFFFF80001004}

			regs.EnterException(f, true)

			Expect(regs.CP0[emu.CP0EPC]).To(Equal(uint64(0xFFFFFFFF80001000)))
			Expect(regs.CP0[emu.CP0Cause] >> 31 & 1).To(Equal(uint64(1)))
			Expect(regs.CP0[emu.CP0Cause] >> 2 & 0x1F).To(Equal(uint64(10)))
		})

		It("should record the bad address for an address error", func() {
			f := &emu.Fault{
				Kind:    emu.UnalignedAddress,
				PC:      0xFFFFFFFF80001000,
				Address: 0xFFFFFFFF80002001,
				Store:   true,
			}

			regs.EnterException(f, false)

			Expect(regs.CP0[emu.CP0BadVAddr]).To(Equal(uint64(0xFFFFFFFF80002001)))
			Expect(regs.CP0[emu.CP0Cause] >> 2 & 0x1F).To(Equal(uint64(5)))
			Expect(regs.CP0[emu.CP0Cause] >> 31 & 1).To(BeZero())
		})
	})
})
