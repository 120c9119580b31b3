package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarchlab/vr4300sim/emu"
	"github.com/sarchlab/vr4300sim/insts"
)

type execOptions struct {
	rs     uint64
	rt     uint64
	pc     uint64
	squash bool
}

func newExecCmd() *cobra.Command {
	var opts execOptions

	cmd := &cobra.Command{
		Use:   "exec <word>",
		Short: "Execute one instruction word and print its outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			word, err := parseWord(args[0])
			if err != nil {
				return err
			}
			return execWord(cmd.OutOrStdout(), word, opts)
		},
	}

	cmd.Flags().Uint64Var(&opts.rs, "rs", 0, "Value of the rs operand")
	cmd.Flags().Uint64Var(&opts.rt, "rt", 0, "Value of the rt operand")
	cmd.Flags().Uint64Var(&opts.pc, "pc", 0xFFFFFFFF80001000, "Address of the instruction")
	cmd.Flags().BoolVar(&opts.squash, "squash", false,
		"Execute as the squashed delay slot of an untaken likely branch")

	return cmd
}

// parseWord accepts a 32-bit instruction word in hex, with or without 0x.
func parseWord(s string) (insts.Word, error) {
	digits := strings.TrimPrefix(strings.ToLower(s), "0x")
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid instruction word %q: %w", s, err)
	}
	return insts.Word(v), nil
}

func execWord(w io.Writer, word insts.Word, opts execOptions) error {
	op := insts.NewDecoder().DecodeOp(word)

	in := emu.NewDecodeLatch(word, op, opts.pc)
	if opts.squash {
		in.Squash = emu.SquashSquashed
	}

	_, _ = fmt.Fprintf(w, "Word:   0x%08X (%v)\n", uint32(word), op)
	_, _ = fmt.Fprintf(w, "PC:     0x%016X\n", opts.pc)

	out, err := emu.Dispatch(in, opts.rs, opts.rt)
	if err != nil {
		f, ok := emu.AsFault(err)
		if !ok {
			return err
		}
		_, _ = fmt.Fprintf(w, "Fault:  %v (ExcCode %d)\n", f, f.ExcCode())
		return nil
	}

	printOutcome(w, out)
	return nil
}

func printOutcome(w io.Writer, out emu.Outcome) {
	exec := out.Exec

	if exec.Dest.Valid {
		_, _ = fmt.Fprintf(w, "Dest:   $%s = 0x%016X\n",
			insts.RegName(exec.Dest.Index), exec.Result)
	} else {
		_, _ = fmt.Fprintln(w, "Dest:   none")
	}

	if req := exec.Request; req.Valid {
		_, _ = fmt.Fprintf(w, "Bus:    %v %d bytes @ 0x%016X", req.Kind, req.Size, req.Address)
		if req.Kind == emu.BusWrite {
			_, _ = fmt.Fprintf(w, " data 0x%08X lanes 0x%08X", req.Word, req.LaneMask)
		}
		_, _ = fmt.Fprintln(w)
	}

	if out.Fetch.Valid {
		_, _ = fmt.Fprintf(w, "Fetch:  0x%016X\n", out.Fetch.PC)
	}

	_, _ = fmt.Fprintf(w, "Slot:   %v\n", out.Squash)
}
