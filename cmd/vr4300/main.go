// Package main provides the vr4300 command line tool.
//
// Usage:
//
//	vr4300 exec <word> [--rs N] [--rt N] [--pc ADDR] [--squash]
//	vr4300 run <program> [--raw --addr ADDR] [--config FILE] [--functional]
//	vr4300 bench [--csv | --json]
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "vr4300",
		Short: "VR4300 execute-stage and pipeline simulator",
		Long: `A model of the NEC VR4300 (Nintendo 64) integer pipeline: evaluate a
single instruction word, run a program on the five-stage pipeline or the
functional emulator, or run the pipeline microbenchmarks.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}
			logrus.SetLevel(level)
			logrus.SetOutput(cmd.ErrOrStderr())
			return nil
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn",
		"Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newExecCmd(), newRunCmd(), newBenchCmd())

	return rootCmd
}
