package emu

import (
	"errors"
	"fmt"

	"github.com/sarchlab/vr4300sim/insts"
)

// FaultKind classifies an instruction-scoped fault.
type FaultKind uint8

// Fault kinds.
const (
	IntegerOverflow FaultKind = iota + 1
	UnimplementedOpcode
	ReservedInstruction
	UnalignedAddress
)

var faultNames = map[FaultKind]string{
	IntegerOverflow:     "integer overflow",
	UnimplementedOpcode: "unimplemented opcode",
	ReservedInstruction: "reserved instruction",
	UnalignedAddress:    "unaligned address",
}

func (k FaultKind) String() string {
	if name, ok := faultNames[k]; ok {
		return name
	}
	return fmt.Sprintf("fault(%d)", uint8(k))
}

// Sentinel errors, one per kind, matched by errors.Is against a *Fault.
var (
	ErrIntegerOverflow     = errors.New("integer overflow")
	ErrUnimplementedOpcode = errors.New("unimplemented opcode")
	ErrReservedInstruction = errors.New("reserved instruction")
	ErrUnalignedAddress    = errors.New("unaligned address")
)

var faultSentinels = map[FaultKind]error{
	IntegerOverflow:     ErrIntegerOverflow,
	UnimplementedOpcode: ErrUnimplementedOpcode,
	ReservedInstruction: ErrReservedInstruction,
	UnalignedAddress:    ErrUnalignedAddress,
}

// Fault is returned by a handler instead of an outcome. The driver turns it
// into a simulated exception.
type Fault struct {
	Kind FaultKind
	Op   insts.Op
	Word insts.Word
	PC   uint64

	// Address is the offending effective address for UnalignedAddress.
	Address uint64

	// Store is set when an UnalignedAddress fault came from a store.
	Store bool
}

func (f *Fault) Error() string {
	if f.Kind == UnalignedAddress {
		return fmt.Sprintf("%v: %v [0x%08X] @ 0x%016X addr 0x%016X",
			f.Kind, f.Op, uint32(f.Word), f.PC, f.Address)
	}
	return fmt.Sprintf("%v: %v [0x%08X] @ 0x%016X",
		f.Kind, f.Op, uint32(f.Word), f.PC)
}

// Is matches the sentinel for the fault kind.
func (f *Fault) Is(target error) bool {
	return faultSentinels[f.Kind] == target
}

// ExcCode returns the CP0 Cause.ExcCode for the fault.
func (f *Fault) ExcCode() uint8 {
	switch f.Kind {
	case IntegerOverflow:
		return 12 // Ov
	case UnalignedAddress:
		if f.Store {
			return 5 // AdES
		}
		return 4 // AdEL
	default:
		return 10 // RI
	}
}

func newFault(kind FaultKind, in DecodeLatch) *Fault {
	return &Fault{Kind: kind, Op: in.Op, Word: in.Word(), PC: in.PC}
}

// AsFault extracts a *Fault from err.
func AsFault(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
