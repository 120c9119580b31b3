// Package loader provides program loading for big-endian MIPS (VR4300)
// executables: ELF binaries and raw memory images.
package loader

import (
	"debug/elf"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/vr4300sim/emu"
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// DefaultStackTop is the conventional initial $sp for bare-metal N64 code:
// the top of the 4 MiB RDRAM window in KSEG0, 16-byte aligned.
const DefaultStackTop = 0xFFFFFFFF803FFFF0

// Segment represents a loadable segment.
type Segment struct {
	// VirtAddr is the virtual address where this segment should be loaded.
	VirtAddr uint64
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint64
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Program represents a loaded program ready for execution.
type Program struct {
	// EntryPoint is the virtual address where execution should begin.
	EntryPoint uint64
	// Segments contains all loadable segments.
	Segments []Segment
	// InitialSP is the initial stack pointer value.
	InitialSP uint64
}

// signExtend32 widens a 32-bit address the way the VR4300 does in 32-bit
// addressing mode, so that KSEG0 0x80000000 becomes 0xFFFFFFFF80000000.
func signExtend32(addr uint64) uint64 {
	return uint64(int64(int32(uint32(addr))))
}

// Load parses a big-endian MIPS ELF binary, 32- or 64-bit, and returns a
// Program ready for loading into memory. 32-bit addresses are
// sign-extended.
func Load(path string) (*Program, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if f.Machine != elf.EM_MIPS {
		return nil, fmt.Errorf("not a MIPS ELF file (machine type: %v)", f.Machine)
	}

	if f.Data != elf.ELFDATA2MSB {
		return nil, fmt.Errorf("not a big-endian ELF file")
	}

	widen := func(addr uint64) uint64 { return addr }
	if f.Class == elf.ELFCLASS32 {
		widen = signExtend32
	}

	prog := &Program{
		EntryPoint: widen(f.Entry),
		InitialSP:  DefaultStackTop,
	}

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
			}
			if uint64(n) != phdr.Filesz {
				return nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= SegmentFlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= SegmentFlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= SegmentFlagRead
		}

		prog.Segments = append(prog.Segments, Segment{
			VirtAddr: widen(phdr.Vaddr),
			Data:     data,
			MemSize:  phdr.Memsz,
			Flags:    flags,
		})
	}

	return prog, nil
}

// LoadRaw reads a flat big-endian memory image that executes from addr.
func LoadRaw(path string, addr uint64) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("image file %s is empty", path)
	}

	return &Program{
		EntryPoint: addr,
		InitialSP:  DefaultStackTop,
		Segments: []Segment{{
			VirtAddr: addr,
			Data:     data,
			MemSize:  uint64(len(data)),
			Flags:    SegmentFlagRead | SegmentFlagWrite | SegmentFlagExecute,
		}},
	}, nil
}

// LoadInto copies every segment into memory, zero-filling the part of a
// segment beyond its file data.
func (p *Program) LoadInto(memory *emu.Memory) {
	for _, seg := range p.Segments {
		memory.LoadImage(seg.VirtAddr, seg.Data)
		for off := uint64(len(seg.Data)); off < seg.MemSize; off++ {
			memory.Write8(seg.VirtAddr+off, 0)
		}
	}
}
