package emu

const (
	pageBits = 12
	pageSize = 1 << pageBits
	pageMask = pageSize - 1
)

// Memory is a sparse, big-endian backing store. Unmapped addresses read as
// zero. Addresses in the unmapped kernel segments KSEG0 and KSEG1 alias the
// same physical bytes; every other address is used as-is.
type Memory struct {
	pages map[uint64]*[pageSize]byte
}

// NewMemory creates an empty memory.
func NewMemory() *Memory {
	return &Memory{pages: make(map[uint64]*[pageSize]byte)}
}

// Physical maps a KSEG0/KSEG1 virtual address onto its physical address.
func Physical(addr uint64) uint64 {
	if addr >= 0xFFFFFFFF80000000 && addr < 0xFFFFFFFFC0000000 {
		return addr & 0x1FFFFFFF
	}
	return addr
}

func (m *Memory) page(addr uint64, create bool) *[pageSize]byte {
	key := Physical(addr) >> pageBits
	p, ok := m.pages[key]
	if !ok && create {
		p = new([pageSize]byte)
		m.pages[key] = p
	}
	return p
}

// Read8 reads a byte.
func (m *Memory) Read8(addr uint64) uint8 {
	p := m.page(addr, false)
	if p == nil {
		return 0
	}
	return p[Physical(addr)&pageMask]
}

// Write8 writes a byte.
func (m *Memory) Write8(addr uint64, value uint8) {
	p := m.page(addr, true)
	p[Physical(addr)&pageMask] = value
}

// ReadN reads size bytes big-endian and returns them right-aligned.
func (m *Memory) ReadN(addr uint64, size uint8) uint64 {
	var v uint64
	for i := uint64(0); i < uint64(size); i++ {
		v = v<<8 | uint64(m.Read8(addr+i))
	}
	return v
}

// WriteN writes the low size bytes of value big-endian.
func (m *Memory) WriteN(addr uint64, size uint8, value uint64) {
	for i := uint64(0); i < uint64(size); i++ {
		shift := 8 * (uint64(size) - 1 - i)
		m.Write8(addr+i, uint8(value>>shift))
	}
}

// Read16 reads a big-endian halfword.
func (m *Memory) Read16(addr uint64) uint16 {
	return uint16(m.ReadN(addr, 2))
}

// Read32 reads a big-endian word.
func (m *Memory) Read32(addr uint64) uint32 {
	return uint32(m.ReadN(addr, 4))
}

// Write16 writes a big-endian halfword.
func (m *Memory) Write16(addr uint64, value uint16) {
	m.WriteN(addr, 2, uint64(value))
}

// Write32 writes a big-endian word.
func (m *Memory) Write32(addr uint64, value uint32) {
	m.WriteN(addr, 4, uint64(value))
}

// LoadImage copies data into memory starting at addr.
func (m *Memory) LoadImage(addr uint64, data []byte) {
	for i, b := range data {
		m.Write8(addr+uint64(i), b)
	}
}

// Service performs a bus request. For reads it returns the fetched bytes,
// right-aligned. For writes it stores exactly the lanes in LaneMask and
// returns 0.
func (m *Memory) Service(req BusRequest) uint64 {
	if !req.Valid {
		return 0
	}

	if req.Kind == BusRead {
		return m.ReadN(req.Address, req.Size)
	}

	base := req.Address &^ 0x3
	first := uint32(req.Address & 0x3)
	for i := uint32(0); i < uint32(req.Size); i++ {
		lane := first + i
		if req.LaneMask>>(8*lane)&0xFF == 0 {
			continue
		}
		shift := 8 * (uint32(req.Size) - 1 - i)
		m.Write8(base+uint64(lane), uint8(req.Word>>shift))
	}

	return 0
}
