package loader_test

import (
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vr4300sim/emu"
	"github.com/sarchlab/vr4300sim/loader"
)

// addiu $t0, $zero, 100 ; b . ; nop
var code = []byte{
	0x24, 0x08, 0x00, 0x64,
	0x10, 0x00, 0xFF, 0xFF,
	0x00, 0x00, 0x00, 0x00,
}

var _ = Describe("ELF Loader", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "elf-loader-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	Describe("Load", func() {
		Context("with a valid 32-bit MIPS ELF binary", func() {
			var elfPath string

			BeforeEach(func() {
				elfPath = filepath.Join(tempDir, "test.elf")
				createMIPSELF32(elfPath, 0x80001000, 0x80001000, code, uint32(len(code)), binary.BigEndian, 8)
			})

			It("should load without error", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog).NotTo(BeNil())
			})

			It("should sign-extend the entry point", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.EntryPoint).To(Equal(uint64(0xFFFFFFFF80001000)))
			})

			It("should sign-extend segment addresses", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.Segments).To(HaveLen(1))
				Expect(prog.Segments[0].VirtAddr).To(Equal(uint64(0xFFFFFFFF80001000)))
				Expect(prog.Segments[0].Data).To(Equal(code))
			})

			It("should report permissions", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				flags := prog.Segments[0].Flags
				Expect(flags & loader.SegmentFlagExecute).NotTo(BeZero())
				Expect(flags & loader.SegmentFlagRead).NotTo(BeZero())
				Expect(flags & loader.SegmentFlagWrite).To(BeZero())
			})

			It("should set up the initial stack pointer", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.InitialSP).To(Equal(uint64(loader.DefaultStackTop)))
			})

			It("should run once loaded into memory", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())

				e := emu.NewEmulator(emu.WithMaxInstructions(100))
				prog.LoadInto(e.Memory())
				e.SetPC(prog.EntryPoint)

				Expect(e.Run()).To(Succeed())
				Expect(e.RegFile().ReadReg(8)).To(Equal(uint64(100)))
			})
		})

		Context("with a BSS tail", func() {
			It("should zero-fill memory beyond the file data", func() {
				elfPath := filepath.Join(tempDir, "bss.elf")
				createMIPSELF32(elfPath, 0x80002000, 0x80002000, code, 64, binary.BigEndian, 8)

				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.Segments[0].MemSize).To(Equal(uint64(64)))

				mem := emu.NewMemory()
				mem.Write32(0xFFFFFFFF80002020, 0xDEADBEEF)
				prog.LoadInto(mem)

				Expect(mem.Read32(0xFFFFFFFF80002000)).To(Equal(uint32(0x24080064)))
				Expect(mem.Read32(0xFFFFFFFF80002020)).To(BeZero())
			})
		})

		Context("with a 64-bit MIPS ELF binary", func() {
			It("should keep 64-bit addresses as they are", func() {
				elfPath := filepath.Join(tempDir, "test64.elf")
				createMIPSELF64(elfPath, 0xFFFFFFFF80003000, code)

				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.EntryPoint).To(Equal(uint64(0xFFFFFFFF80003000)))
				Expect(prog.Segments[0].VirtAddr).To(Equal(uint64(0xFFFFFFFF80003000)))
			})
		})

		Context("with an invalid file", func() {
			It("should return error for non-existent file", func() {
				_, err := loader.Load(filepath.Join(tempDir, "absent.elf"))
				Expect(err).To(MatchError(ContainSubstring("failed to open ELF file")))
			})

			It("should return error for non-ELF file", func() {
				path := filepath.Join(tempDir, "text.elf")
				Expect(os.WriteFile(path, []byte("not an elf"), 0644)).To(Succeed())

				_, err := loader.Load(path)
				Expect(err).To(HaveOccurred())
			})
		})

		Context("with a foreign ELF", func() {
			It("should reject another machine type", func() {
				path := filepath.Join(tempDir, "x86.elf")
				createMIPSELF32(path, 0x1000, 0x1000, code, uint32(len(code)), binary.BigEndian, 3)

				_, err := loader.Load(path)
				Expect(err).To(MatchError(ContainSubstring("not a MIPS ELF file")))
			})

			It("should reject little-endian MIPS", func() {
				path := filepath.Join(tempDir, "mipsel.elf")
				createMIPSELF32(path, 0x1000, 0x1000, code, uint32(len(code)), binary.LittleEndian, 8)

				_, err := loader.Load(path)
				Expect(err).To(MatchError(ContainSubstring("not a big-endian ELF file")))
			})
		})
	})

	Describe("LoadRaw", func() {
		It("should wrap an image in a single segment", func() {
			path := filepath.Join(tempDir, "image.bin")
			Expect(os.WriteFile(path, code, 0644)).To(Succeed())

			prog, err := loader.LoadRaw(path, 0xFFFFFFFFA4000040)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.EntryPoint).To(Equal(uint64(0xFFFFFFFFA4000040)))
			Expect(prog.Segments).To(HaveLen(1))
			Expect(prog.Segments[0].MemSize).To(Equal(uint64(len(code))))

			mem := emu.NewMemory()
			prog.LoadInto(mem)
			Expect(mem.Read32(0xFFFFFFFFA4000044)).To(Equal(uint32(0x1000FFFF)))
		})

		It("should reject an empty image", func() {
			path := filepath.Join(tempDir, "empty.bin")
			Expect(os.WriteFile(path, nil, 0644)).To(Succeed())

			_, err := loader.LoadRaw(path, 0)
			Expect(err).To(MatchError(ContainSubstring("empty")))
		})

		It("should report a missing image", func() {
			_, err := loader.LoadRaw(filepath.Join(tempDir, "absent.bin"), 0)
			Expect(err).To(MatchError(ContainSubstring("failed to read image file")))
		})
	})
})

// createMIPSELF32 writes a minimal 32-bit ELF with one PT_LOAD segment.
func createMIPSELF32(path string, loadAddr, entryPoint uint32, code []byte, memSize uint32,
	order binary.ByteOrder, machine uint16) {
	elfHeader := make([]byte, 52)

	copy(elfHeader[0:4], []byte{0x7f, 'E', 'L', 'F'})
	elfHeader[4] = 1 // 32-bit
	elfHeader[5] = 2 // big endian
	if order == binary.LittleEndian {
		elfHeader[5] = 1
	}
	elfHeader[6] = 1                          // version
	order.PutUint16(elfHeader[16:18], 2)       // executable
	order.PutUint16(elfHeader[18:20], machine) // 8 = MIPS
	order.PutUint32(elfHeader[20:24], 1)       // version
	order.PutUint32(elfHeader[24:28], entryPoint)
	order.PutUint32(elfHeader[28:32], 52) // phoff
	order.PutUint16(elfHeader[40:42], 52) // ehsize
	order.PutUint16(elfHeader[42:44], 32) // phentsize
	order.PutUint16(elfHeader[44:46], 1)  // phnum
	order.PutUint16(elfHeader[46:48], 40) // shentsize

	progHeader := make([]byte, 32)
	order.PutUint32(progHeader[0:4], 1)   // PT_LOAD
	order.PutUint32(progHeader[4:8], 84)  // offset
	order.PutUint32(progHeader[8:12], loadAddr)
	order.PutUint32(progHeader[12:16], loadAddr)
	order.PutUint32(progHeader[16:20], uint32(len(code)))
	order.PutUint32(progHeader[20:24], memSize)
	order.PutUint32(progHeader[24:28], 0x5) // PF_R | PF_X
	order.PutUint32(progHeader[28:32], 0x1000)

	file, _ := os.Create(path)
	defer func() { _ = file.Close() }()

	_, _ = file.Write(elfHeader)
	_, _ = file.Write(progHeader)
	_, _ = file.Write(code)
}

// createMIPSELF64 writes a minimal big-endian 64-bit MIPS ELF.
func createMIPSELF64(path string, addr uint64, code []byte) {
	be := binary.BigEndian
	elfHeader := make([]byte, 64)

	copy(elfHeader[0:4], []byte{0x7f, 'E', 'L', 'F'})
	elfHeader[4] = 2                  // 64-bit
	elfHeader[5] = 2                  // big endian
	elfHeader[6] = 1                  // version
	be.PutUint16(elfHeader[16:18], 2) // executable
	be.PutUint16(elfHeader[18:20], 8) // MIPS
	be.PutUint32(elfHeader[20:24], 1)
	be.PutUint64(elfHeader[24:32], addr)
	be.PutUint64(elfHeader[32:40], 64) // phoff
	be.PutUint16(elfHeader[52:54], 64) // ehsize
	be.PutUint16(elfHeader[54:56], 56) // phentsize
	be.PutUint16(elfHeader[56:58], 1)  // phnum
	be.PutUint16(elfHeader[58:60], 64) // shentsize

	progHeader := make([]byte, 56)
	be.PutUint32(progHeader[0:4], 1)     // PT_LOAD
	be.PutUint32(progHeader[4:8], 0x7)   // PF_R | PF_W | PF_X
	be.PutUint64(progHeader[8:16], 120)  // offset
	be.PutUint64(progHeader[16:24], addr)
	be.PutUint64(progHeader[24:32], addr)
	be.PutUint64(progHeader[32:40], uint64(len(code)))
	be.PutUint64(progHeader[40:48], uint64(len(code)))
	be.PutUint64(progHeader[48:56], 0x1000)

	file, _ := os.Create(path)
	defer func() { _ = file.Close() }()

	_, _ = file.Write(elfHeader)
	_, _ = file.Write(progHeader)
	_, _ = file.Write(code)
}
