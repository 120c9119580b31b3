package pipeline

import (
	"github.com/sarchlab/vr4300sim/emu"
	"github.com/sarchlab/vr4300sim/insts"
)

// ForwardSource indicates where a forwarded value should come from.
type ForwardSource int

const (
	// ForwardNone means no forwarding needed - use register file value.
	ForwardNone ForwardSource = iota
	// ForwardFromEXDC means forward from the EX/DC pipeline register.
	ForwardFromEXDC
	// ForwardFromDCWB means forward from the DC/WB pipeline register.
	ForwardFromDCWB
)

// ForwardingResult contains forwarding decisions for both source operands.
type ForwardingResult struct {
	// ForwardRs specifies the forwarding source for the rs operand.
	ForwardRs ForwardSource
	// ForwardRt specifies the forwarding source for the rt operand.
	ForwardRt ForwardSource
}

// Any reports whether either operand is forwarded.
func (f ForwardingResult) Any() bool {
	return f.ForwardRs != ForwardNone || f.ForwardRt != ForwardNone
}

// HazardUnit detects data hazards and determines forwarding/stall signals.
type HazardUnit struct{}

// NewHazardUnit creates a new hazard detection unit.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// DetectForwarding determines if forwarding is needed for the RF/EX stage.
// It checks if the source registers match the destination register of the
// instructions in the DC and WB stages.
func (h *HazardUnit) DetectForwarding(
	rfex *RFEXRegister,
	exdc *EXDCRegister,
	dcwb *DCWBRegister,
) ForwardingResult {
	result := ForwardingResult{}

	if !rfex.Valid || rfex.Inst == nil || rfex.Latch.Squashed() {
		return result
	}

	if rfex.Inst.UsesRs {
		result.ForwardRs = h.detectForwardForReg(rfex.Inst.Rs, exdc, dcwb)
	}
	if rfex.Inst.UsesRt {
		result.ForwardRt = h.detectForwardForReg(rfex.Inst.Rt, exdc, dcwb)
	}

	return result
}

// writesGPR reports whether dest names general-purpose register reg.
func writesGPR(dest emu.Dest, reg uint8) bool {
	return dest.Valid && !dest.IsCP0() && dest.Index == reg
}

// detectForwardForReg checks if a specific register needs forwarding.
func (h *HazardUnit) detectForwardForReg(
	reg uint8,
	exdc *EXDCRegister,
	dcwb *DCWBRegister,
) ForwardSource {
	// $zero always reads as 0, no need to forward
	if reg == insts.RegZero {
		return ForwardNone
	}

	// EX/DC has precedence over DC/WB (more recent value)
	if exdc.Valid && writesGPR(exdc.Exec.Dest, reg) {
		return ForwardFromEXDC
	}

	if dcwb.Valid && writesGPR(dcwb.Dest, reg) {
		return ForwardFromDCWB
	}

	return ForwardNone
}

// DetectLoadUseHazard detects an instruction in RF/EX that needs the result
// of a load still in EX/DC. The data only arrives in the DC stage, so the
// execute stage has to stall for one cycle.
func (h *HazardUnit) DetectLoadUseHazard(rfex *RFEXRegister, exdc *EXDCRegister) bool {
	if !exdc.isLoad() {
		return false
	}

	dest := exdc.Exec.Dest
	if !dest.Valid || dest.IsCP0() {
		return false
	}

	return rfex.usesReg(dest.Index)
}

// GetForwardedValue returns the value to use based on forwarding decision.
func (h *HazardUnit) GetForwardedValue(
	forward ForwardSource,
	originalValue uint64,
	exdc *EXDCRegister,
	dcwb *DCWBRegister,
) uint64 {
	switch forward {
	case ForwardFromEXDC:
		return exdc.Exec.Result
	case ForwardFromDCWB:
		return dcwb.Value
	default:
		return originalValue
	}
}
