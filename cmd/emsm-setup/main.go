// Command emsm-setup runs the one-time Groth16 + EMSM trusted setup for
// one of the example circuits and writes the resulting server-aided
// proving key to a directory (spec §4.8, §9; teacher's phase1/phase2
// ceremony workflow collapsed to a single in-process call — see
// DESIGN.md).
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"emsm/circuits"
	"emsm/groth16adapter"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	setupCmd := flag.NewFlagSet("setup", flag.ContinueOnError)
	setupCmd.SetOutput(stderr)

	var circuit, out string
	setupCmd.StringVar(&circuit, "circuit", "cube", "circuit to set up: cube or multiplier")
	setupCmd.StringVar(&out, "out", "out", "output directory for pk.bin/vk.bin/pp_*.bin")
	if err := setupCmd.Parse(args); err != nil {
		return 2
	}

	var ccs groth16adapter.ConstraintCompiler
	switch circuit {
	case "cube":
		nr, err := groth16adapter.NewNativeReduction(&circuits.CubeCircuit{}, circuits.CubeAssignment)
		if err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
		ccs = nr
	case "multiplier":
		fmt.Fprintln(stderr, "error: multiplier circuit requires an externally supplied proving key; use emsm-setup -circuit=cube or load one via the groth16adapter.CompiledCircuit API directly")
		return 2
	default:
		fmt.Fprintln(stderr, "error: unknown -circuit", circuit)
		return 2
	}

	pk, err := groth16adapter.SetupServerAided(ccs)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	if err := groth16adapter.SaveServerAided(pk, out); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	fmt.Fprintln(stdout, "setup complete:", out)
	return 0
}
