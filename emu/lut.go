package emu

// Selection tables pick an instruction variant from instruction-word bits
// without data-dependent branching.

// addSubLUT negates the second operand when indexed with 1: (x ^ m) - m.
var addSubLUT = [2]uint64{
	0x0, ^uint64(0),
}

// bitwiseLUT holds {and mask, xor mask} pairs for
// ((a & b) & andMask) | ((a ^ b) & xorMask).
var bitwiseLUT = [4][2]uint64{
	{^uint64(0), 0},          // AND
	{^uint64(0), ^uint64(0)}, // OR
	{0, ^uint64(0)},          // XOR
	{0, 0},                   // -
}

// branchLUT is the delay-slot mask applied when a branch is not taken.
// Likely variants (index 1) kill the delay-slot instruction.
var branchLUT = [2]uint32{
	^uint32(0), 0,
}

// loadSexLUT seeds a load result: all-ones sign-extends, zero zero-extends.
var loadSexLUT = [2]uint64{
	^uint64(0), 0,
}
