package pipeline

import (
	"github.com/sarchlab/vr4300sim/emu"
	"github.com/sarchlab/vr4300sim/insts"
)

// FetchStage handles instruction fetch from memory.
type FetchStage struct {
	memory *emu.Memory
}

// NewFetchStage creates a new fetch stage.
func NewFetchStage(memory *emu.Memory) *FetchStage {
	return &FetchStage{memory: memory}
}

// Fetch reads the instruction at the given PC.
func (s *FetchStage) Fetch(pc uint64) ICRFRegister {
	return ICRFRegister{
		Valid:           true,
		PC:              pc,
		InstructionWord: insts.Word(s.memory.Read32(pc)),
	}
}

// DecodeStage handles the register fetch stage: it decodes the opcode group
// and builds the decode latch for the execute stage.
type DecodeStage struct {
	decoder *insts.Decoder
}

// NewDecodeStage creates a new decode stage.
func NewDecodeStage() *DecodeStage {
	return &DecodeStage{decoder: insts.NewDecoder()}
}

// Decode builds the RF/EX register for the fetched instruction. squash is
// the state left by the branch executing in the same cycle.
func (s *DecodeStage) Decode(icrf *ICRFRegister, squash emu.SquashState) RFEXRegister {
	if !icrf.Valid {
		return RFEXRegister{}
	}

	inst := s.decoder.Decode(uint32(icrf.InstructionWord))
	latch := emu.NewDecodeLatch(icrf.InstructionWord, inst.Op, icrf.PC)
	latch.Squash = squash

	return RFEXRegister{
		Valid: true,
		Latch: latch,
		Inst:  inst,
	}
}

// ExecuteStage runs the execute handlers.
type ExecuteStage struct{}

// NewExecuteStage creates a new execute stage.
func NewExecuteStage() *ExecuteStage {
	return &ExecuteStage{}
}

// Execute dispatches the instruction in RF/EX with its resolved operands.
// On a fault the returned register is empty.
func (s *ExecuteStage) Execute(rfex *RFEXRegister, rs, rt uint64) (EXDCRegister, emu.Outcome, error) {
	if !rfex.Valid {
		return EXDCRegister{}, emu.Outcome{}, nil
	}

	out, err := emu.Dispatch(rfex.Latch, rs, rt)
	if err != nil {
		return EXDCRegister{}, emu.Outcome{}, err
	}

	return EXDCRegister{
		Valid: true,
		PC:    rfex.Latch.PC,
		Exec:  out.Exec,
		Exit:  rfex.Exit,
	}, out, nil
}

// MemoryStage services bus requests in the data cache stage.
type MemoryStage struct {
	memory *emu.Memory
}

// NewMemoryStage creates a new memory stage.
func NewMemoryStage(memory *emu.Memory) *MemoryStage {
	return &MemoryStage{memory: memory}
}

// Access performs the pending bus request of the instruction in EX/DC and
// produces its final writeback value.
func (s *MemoryStage) Access(exdc *EXDCRegister) DCWBRegister {
	if !exdc.Valid {
		return DCWBRegister{}
	}

	value := exdc.Exec.Result
	if req := exdc.Exec.Request; req.Valid {
		data := s.memory.Service(req)
		if req.Kind == emu.BusRead {
			value = emu.MergeLoad(value, data, req.Size)
		}
	}

	return DCWBRegister{
		Valid: true,
		PC:    exdc.PC,
		Dest:  exdc.Exec.Dest,
		Value: value,
		Exit:  exdc.Exit,
	}
}

// WritebackStage commits results to the register file.
type WritebackStage struct {
	regFile *emu.RegFile
}

// NewWritebackStage creates a new writeback stage.
func NewWritebackStage(regFile *emu.RegFile) *WritebackStage {
	return &WritebackStage{regFile: regFile}
}

// Writeback commits the DC/WB register.
func (s *WritebackStage) Writeback(dcwb *DCWBRegister) {
	if !dcwb.Valid {
		return
	}
	s.regFile.Commit(dcwb.Dest, dcwb.Value)
}
