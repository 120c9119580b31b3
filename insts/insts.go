// Package insts provides VR4300 (MIPS III) instruction definitions and decoding.
//
// This package implements the pieces the execute core treats as external
// collaborators:
//   - Word: field accessors for a raw 32-bit instruction word
//   - Op: the exhaustive opcode-group enumeration, one id per handler group
//     plus the single catch-all OpINV
//   - Decoder: maps a raw word onto its Op and the register operands it
//     reads and writes
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x20080064) // ADDI $t0, $zero, 100
//	fmt.Printf("Op: %v, Rs: %d, Rt: %d, Imm: %d\n", inst.Op, inst.Rs, inst.Rt, inst.Word.SImm())
package insts
