package benchmarks

import (
	"github.com/sarchlab/vr4300sim/emu"
	"github.com/sarchlab/vr4300sim/insts"
)

// Registers used by the benchmark programs.
const (
	regV0 = 2
	regV1 = 3
	regA0 = 4
	regT0 = 8
	regT1 = 9
	regT2 = 10
	regT9 = 25
	regRA = 31
)

// dataBase is a KSEG0 scratch buffer well clear of the program.
const dataBase = uint64(0xFFFFFFFF80008000)

// GetMicrobenchmarks returns the standard set of microbenchmarks.
// Each benchmark targets a specific pipeline characteristic.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		memorySequential(),
		loadUse(),
		countedLoop(),
		likelyLoop(),
		functionCalls(),
		branchOver(),
		mixedOperations(),
		delaySlotException(),
	}
}

// GetCoreBenchmarks returns a minimal set of benchmarks for quick validation:
// a loop, memory traffic and likely-branch squashing.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		countedLoop(),
		memorySequential(),
		likelyLoop(),
	}
}

// Instruction helpers

func addiu(rt, rs uint8, imm uint16) insts.Word { return insts.EncodeI(0x09, rs, rt, imm) }
func andi(rt, rs uint8, imm uint16) insts.Word { return insts.EncodeI(0x0C, rs, rt, imm) }
func ori(rt, rs uint8, imm uint16) insts.Word { return insts.EncodeI(0x0D, rs, rt, imm) }
func lui(rt uint8, imm uint16) insts.Word { return insts.EncodeI(0x0F, 0, rt, imm) }
func lw(rt, base uint8, off uint16) insts.Word { return insts.EncodeI(0x23, base, rt, off) }
func sw(rt, base uint8, off uint16) insts.Word { return insts.EncodeI(0x2B, base, rt, off) }
func beq(rs, rt uint8, off uint16) insts.Word { return insts.EncodeI(0x04, rs, rt, off) }
func bne(rs, rt uint8, off uint16) insts.Word { return insts.EncodeI(0x05, rs, rt, off) }
func bnel(rs, rt uint8, off uint16) insts.Word { return insts.EncodeI(0x15, rs, rt, off) }
func add(rd, rs, rt uint8) insts.Word { return insts.EncodeR(0x20, rs, rt, rd, 0) }
func addu(rd, rs, rt uint8) insts.Word { return insts.EncodeR(0x21, rs, rt, rd, 0) }
func subu(rd, rs, rt uint8) insts.Word { return insts.EncodeR(0x23, rs, rt, rd, 0) }
func or(rd, rs, rt uint8) insts.Word { return insts.EncodeR(0x25, rs, rt, rd, 0) }
func xor(rd, rs, rt uint8) insts.Word { return insts.EncodeR(0x26, rs, rt, rd, 0) }
func sll(rd, rt, sa uint8) insts.Word { return insts.EncodeR(0x00, 0, rt, rd, sa) }
func srl(rd, rt, sa uint8) insts.Word { return insts.EncodeR(0x02, 0, rt, rd, sa) }
func jr(rs uint8) insts.Word { return insts.EncodeR(0x08, rs, 0, 0, 0) }
func jalr(rd, rs uint8) insts.Word { return insts.EncodeR(0x09, rs, 0, rd, 0) }

// idle is the branch-to-self loop every program ends with.
var idle = []insts.Word{beq(0, 0, 0xFFFF), insts.NOP}

func withIdle(words ...insts.Word) []insts.Word {
	return append(words, idle...)
}

// 1. Arithmetic Sequential - Tests ALU throughput with independent operations
func arithmeticSequential() Benchmark {
	words := make([]insts.Word, 0, 20)
	for i := 0; i < 4; i++ {
		for reg := uint8(regV0); reg <= 6; reg++ {
			words = append(words, addiu(reg, reg, 1))
		}
	}

	return Benchmark{
		Name:        "arithmetic_sequential",
		Description: "20 ADDIUs round-robin over 5 registers - measures ALU throughput",
		Program:     withIdle(words...),
		Expected:    4,
	}
}

// 2. Dependency Chain - Tests forwarding with back-to-back RAW hazards
func dependencyChain() Benchmark {
	words := make([]insts.Word, 0, 20)
	for i := 0; i < 20; i++ {
		words = append(words, addiu(regV0, regV0, 1))
	}

	return Benchmark{
		Name:        "dependency_chain",
		Description: "20 dependent ADDIUs ($v0 += 1) - measures forwarding",
		Program:     withIdle(words...),
		Expected:    20,
	}
}

// 3. Memory Sequential - Tests store/load round trips
func memorySequential() Benchmark {
	words := make([]insts.Word, 0, 20)
	for i := uint16(0); i < 10; i++ {
		words = append(words, sw(regV0, regA0, 4*i), lw(regV0, regA0, 4*i))
	}

	return Benchmark{
		Name:        "memory_sequential",
		Description: "10 SW/LW pairs to sequential words - measures load interlocks on store data",
		Setup: func(regFile *emu.RegFile, memory *emu.Memory) {
			regFile.WriteReg(regA0, dataBase)
			regFile.WriteReg(regV0, 42)
		},
		Program:  withIdle(words...),
		Expected: 42,
	}
}

// 4. Load Use - Tests the one-cycle load-use interlock
func loadUse() Benchmark {
	words := make([]insts.Word, 0, 16)
	for i := uint16(0); i < 8; i++ {
		words = append(words, lw(regT0, regA0, 4*i), addu(regV0, regV0, regT0))
	}

	return Benchmark{
		Name:        "load_use",
		Description: "8 LWs each consumed by the next ADDU - measures load-use stalls",
		Setup: func(regFile *emu.RegFile, memory *emu.Memory) {
			regFile.WriteReg(regA0, dataBase)
			for i := uint64(0); i < 8; i++ {
				memory.Write32(dataBase+4*i, uint32(i+1))
			}
		},
		Program:  withIdle(words...),
		Expected: 36,
	}
}

// 5. Counted Loop - Tests a BNE loop with an empty delay slot
func countedLoop() Benchmark {
	return Benchmark{
		Name:        "counted_loop",
		Description: "10-iteration BNE loop - measures taken-branch overhead",
		Setup: func(regFile *emu.RegFile, memory *emu.Memory) {
			regFile.WriteReg(regT0, 10)
		},
		Program: withIdle(
			addiu(regV0, regV0, 3),
			addiu(regT0, regT0, 0xFFFF),
			bne(regT0, 0, 0xFFFD),
			insts.NOP,
		),
		Expected: 30,
	}
}

// 6. Likely Loop - Tests BNEL with useful work in the delay slot
func likelyLoop() Benchmark {
	return Benchmark{
		Name:        "likely_loop",
		Description: "BNEL loop doing its work in the delay slot - measures squashing",
		Setup: func(regFile *emu.RegFile, memory *emu.Memory) {
			regFile.WriteReg(regT0, 8)
		},
		Program: withIdle(
			addiu(regT0, regT0, 0xFFFF),
			bnel(regT0, 0, 0xFFFE),
			addiu(regV0, regV0, 2),
		),
		// 7 taken iterations run the slot; the final fall-through squashes it.
		Expected: 14,
	}
}

// 7. Function Calls - Tests JALR/JR pairs
func functionCalls() Benchmark {
	return Benchmark{
		Name:        "function_calls",
		Description: "3 calls through JALR returning with JR - measures call overhead",
		Setup: func(regFile *emu.RegFile, memory *emu.Memory) {
			regFile.WriteReg(regT9, ProgramBase+8*4)
		},
		Program: []insts.Word{
			jalr(regRA, regT9), insts.NOP,
			jalr(regRA, regT9), insts.NOP,
			jalr(regRA, regT9), insts.NOP,
			idle[0], idle[1],

			// add_one (at offset 32); returns to the caller's delay slot
			addiu(regV0, regV0, 1),
			jr(regRA),
			insts.NOP,
		},
		Expected: 3,
	}
}

// 8. Branch Over - Tests forward unconditional branches
func branchOver() Benchmark {
	words := make([]insts.Word, 0, 20)
	for i := 0; i < 5; i++ {
		words = append(words,
			beq(0, 0, 2),            // skip the next instruction
			insts.NOP,               // delay slot
			addiu(regV1, regV1, 99), // skipped
			addiu(regV0, regV0, 1),
		)
	}

	return Benchmark{
		Name:        "branch_over",
		Description: "5 forward BEQ $zero,$zero branches - measures redirect cost",
		Program:     withIdle(words...),
		Expected:    5,
	}
}

// 9. Mixed Operations - Combination of ALU, shifts, logic and memory
func mixedOperations() Benchmark {
	return Benchmark{
		Name:        "mixed_operations",
		Description: "LUI/ORI address build, shifts, logic, SW/LW - realistic mix",
		Program: withIdle(
			lui(regA0, 0x8000),        // $a0 = 0xFFFFFFFF80000000
			ori(regA0, regA0, 0x9000), // $a0 = 0xFFFFFFFF80009000
			ori(regT0, 0, 0x00F0),     // $t0 = 0xF0
			sll(regT1, regT0, 4),      // $t1 = 0xF00
			or(regV0, regT0, regT1),   // $v0 = 0xFF0
			sw(regV0, regA0, 0),
			lw(regT2, regA0, 0),        // $t2 = 0xFF0
			xor(regV0, regV0, regT2),   // $v0 = 0
			addu(regV0, regT2, regT0),  // $v0 = 0x10E0
			subu(regV0, regV0, regT0),  // $v0 = 0xFF0
			andi(regV0, regV0, 0x00FF), // $v0 = 0xF0
			srl(regV0, regV0, 4),       // $v0 = 0xF
		),
		Expected: 0xF,
	}
}

// 10. Delay Slot Exception - Overflow in the slot of an untaken branch,
// recovered by a handler at the exception vector
func delaySlotException() Benchmark {
	return Benchmark{
		Name:        "delay_slot_exception",
		Description: "Overflow in the delay slot of an untaken branch",
		Setup: func(_ *emu.RegFile, memory *emu.Memory) {
			memory.LoadImage(emu.DefaultExceptionVector,
				BuildProgram(withIdle(addiu(regV0, regV0, 0x40))...))
		},
		Program: withIdle(
			lui(regT0, 0x7FFF),
			ori(regT0, regT0, 0xFFFF), // $t0 = 0x7FFFFFFF
			addiu(regT1, 0, 1),
			addiu(regV0, 0, 2),
			bne(0, 0, 2),
			add(regV0, regT0, regT1), // overflows, $v0 unchanged
			addiu(regV0, regV0, 1),
		),
		Expected: 0x42,
	}
}
