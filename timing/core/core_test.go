package core_test

import (
	"encoding/binary"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/vr4300sim/emu"
	"github.com/sarchlab/vr4300sim/insts"
	"github.com/sarchlab/vr4300sim/timing/core"
)

const entry = uint64(0xFFFFFFFF80001000)

var idle = insts.EncodeI(0x04, 0, 0, 0xFFFF) // b .

func writeProgram(memory *emu.Memory, addr uint64, words ...insts.Word) {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint32(buf[4*i:], uint32(w))
	}
	memory.LoadImage(addr, buf)
}

var _ = Describe("Core", func() {
	var (
		regFile *emu.RegFile
		memory  *emu.Memory
		c       *core.Core
	)

	BeforeEach(func() {
		logrus.SetLevel(logrus.ErrorLevel)
		regFile = &emu.RegFile{}
		memory = emu.NewMemory()
		c = core.NewCore(regFile, memory, nil)
	})

	It("should create a core with pipeline", func() {
		Expect(c).NotTo(BeNil())
		Expect(c.Pipeline).NotTo(BeNil())
	})

	It("should start fetching at the reset vector", func() {
		Expect(c.Pipeline.PC()).To(Equal(uint64(0xFFFFFFFFBFC00000)))
	})

	It("should set and get PC", func() {
		c.SetPC(entry)
		Expect(c.Pipeline.PC()).To(Equal(entry))
	})

	It("should not be halted initially", func() {
		Expect(c.Halted()).To(BeFalse())
	})

	It("should execute instructions through tick", func() {
		writeProgram(memory, entry, insts.EncodeI(0x09, 0, 1, 42)) // addiu $at, $zero, 42
		c.SetPC(entry)

		for i := 0; i < 10; i++ {
			c.Tick()
		}

		Expect(regFile.GPR[1]).To(Equal(uint64(42)))
	})

	It("should return stats with simulated time", func() {
		c.SetPC(entry)
		c.Tick()
		c.Tick()

		stats := c.Stats()
		Expect(stats.Cycles).To(Equal(uint64(2)))
		Expect(stats.SimulatedSeconds).To(BeNumerically("~", 2/93.75e6, 1e-15))
	})

	It("should run until the program idles", func() {
		writeProgram(memory, entry,
			insts.EncodeI(0x09, 0, 2, 10), // addiu $v0, $zero, 10
			idle, insts.NOP)
		c.SetPC(entry)

		Expect(c.Run()).To(Succeed())
		Expect(c.Halted()).To(BeTrue())
		Expect(regFile.ReadReg(2)).To(Equal(uint64(10)))
	})

	It("should run for specified cycles and return running status", func() {
		c.SetPC(entry)
		running := c.RunCycles(5)

		Expect(running).To(BeTrue())
		Expect(c.Halted()).To(BeFalse())
		Expect(c.Stats().Cycles).To(Equal(uint64(5)))
	})

	It("should stop at the cycle budget", func() {
		config := core.DefaultConfig()
		config.MaxCycles = 20
		c = core.NewCore(regFile, memory, config)
		c.SetPC(entry) // zero memory: an endless run of NOPs

		err := c.Run()

		Expect(err).To(MatchError(core.ErrMaxCycles))
		Expect(c.Stats().Cycles).To(Equal(uint64(20)))
	})

	It("should halt on a fault when configured to", func() {
		config := core.DefaultConfig()
		config.HaltOnFault = true
		c = core.NewCore(regFile, memory, config)
		writeProgram(memory, entry, insts.EncodeI(0x1F, 0, 0, 0))
		c.SetPC(entry)

		err := c.Run()

		Expect(err).To(MatchError(emu.ErrReservedInstruction))
		Expect(c.Err()).To(HaveOccurred())
	})

	It("should enter the configured exception vector", func() {
		config := core.DefaultConfig()
		config.ExceptionVector = 0xFFFFFFFF80000000
		c = core.NewCore(regFile, memory, config)
		writeProgram(memory, config.ExceptionVector,
			insts.EncodeI(0x09, 0, 3, 1), idle, insts.NOP)
		writeProgram(memory, entry, insts.EncodeI(0x1F, 0, 0, 0))
		c.SetPC(entry)

		Expect(c.Run()).To(Succeed())
		Expect(regFile.ReadReg(3)).To(Equal(uint64(1)))
		Expect(c.Stats().Exceptions).To(Equal(uint64(1)))
	})

	It("should reset core state", func() {
		c.SetPC(entry)
		for i := 0; i < 10; i++ {
			c.Tick()
		}

		Expect(c.Stats().Cycles).To(BeNumerically(">", 0))

		c.Reset()

		statsAfterReset := c.Stats()
		Expect(statsAfterReset.Cycles).To(Equal(uint64(0)))
		Expect(statsAfterReset.Instructions).To(Equal(uint64(0)))
		Expect(c.Halted()).To(BeFalse())
		Expect(c.Pipeline.PC()).To(Equal(uint64(0xFFFFFFFFBFC00000)))
	})
})
