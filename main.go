// Package main provides the entry point for vr4300sim.
// vr4300sim models the NEC VR4300 (Nintendo 64) integer pipeline.
//
// For the full CLI, use: go run ./cmd/vr4300
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("vr4300sim - NEC VR4300 Pipeline Simulator")
	fmt.Println("Cycle-level model of the five-stage MIPS III integer pipeline")
	fmt.Println("")
	fmt.Println("Usage: vr4300 <command> [flags]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  exec    Execute one instruction word and print its outcome")
	fmt.Println("  run     Run a program on the pipeline or the functional emulator")
	fmt.Println("  bench   Run the pipeline microbenchmarks")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/vr4300' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/vr4300' instead.")
	}
}
