// main.go - Main entry point for the Mercury88 emulator core
//
// (c) 2024-2026 Zayn Otley
// https://github.com/IntuitionAmiga/Mercury88
// License: GPLv3 or later

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mercury88",
		Short: "Mercury88 — cycle-accurate Intel 8088 CPU core",
	}

	// run command
	var entryCS, entryIP uint16
	var maxInstr uint64
	var trace bool
	var traceLimit int
	var offRails bool
	var perf bool

	runCmd := &cobra.Command{
		Use:   "run <binary>",
		Short: "Load a flat binary and execute it headless",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			runner := NewCPU8088Runner(CPU8088Config{
				EntryCS:  entryCS,
				EntryIP:  entryIP,
				MaxInstr: maxInstr,
				OffRails: offRails,
			})
			runner.PerfEnabled = perf
			runner.LoadProgram(data)

			var tl *TraceLog
			if trace {
				tl = NewTraceLog(traceLimit)
				runner.CPU().SetTraceSink(tl)
			}

			err = runner.Run()
			if tl != nil {
				fmt.Println(tl.String())
			}
			return err
		},
	}
	runCmd.Flags().Uint16Var(&entryCS, "cs", 0x0000, "entry code segment")
	runCmd.Flags().Uint16Var(&entryIP, "ip", 0x0100, "entry instruction pointer")
	runCmd.Flags().Uint64Var(&maxInstr, "max-instructions", 0, "instruction budget (0 = unlimited)")
	runCmd.Flags().BoolVar(&trace, "trace", false, "print the per-cycle microcode trace")
	runCmd.Flags().IntVar(&traceLimit, "trace-limit", 100000, "trace line cap (0 = unlimited)")
	runCmd.Flags().BoolVar(&offRails, "off-rails-detection", false, "halt after a run of 0x00 opcodes")
	runCmd.Flags().BoolVar(&perf, "perf", false, "report MIPS when done")
	rootCmd.AddCommand(runCmd)

	// monitor command
	var monCS, monIP uint16

	monitorCmd := &cobra.Command{
		Use:   "monitor <binary>",
		Short: "Load a flat binary and step it in the interactive monitor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			runner := NewCPU8088Runner(CPU8088Config{
				EntryCS: monCS,
				EntryIP: monIP,
			})
			runner.LoadProgram(data)

			return NewMachineMonitor(runner).Run()
		},
	}
	monitorCmd.Flags().Uint16Var(&monCS, "cs", 0x0000, "entry code segment")
	monitorCmd.Flags().Uint16Var(&monIP, "ip", 0x0100, "entry instruction pointer")
	rootCmd.AddCommand(monitorCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
