package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stela-lang/stela/pkg/stela/diag"
	"github.com/stela-lang/stela/pkg/stela/driver"
	"github.com/stela-lang/stela/pkg/stela/source"
)

// runCmd compiles a set of source files and invokes one named exported
// function via ExecutionEngine.AddressOf, printing its result. This is the
// harness behind spec.md §8's `extern func ... ⇒ value` scenarios: "stela
// run fac.st --entry fac --arg 5" is the CLI equivalent of calling fac(5)
// and printing the return value.
var runCmd = &cobra.Command{
	Use:   "run [flags] source_file(s)",
	Short: "compile source files and invoke one exported function, printing its result.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)
		cfg := buildConfig(cmd)
		entry := GetString(cmd, "entry")
		//
		files, err := source.ReadFiles(args...)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		//
		sink := diag.NewCollectingSink()
		engine, ok := driver.Compile(cfg, files, sink)
		emitRecords(sink)
		//
		if !ok {
			os.Exit(1)
		}
		//
		call, ok := engine.AddressOf(entry)
		if !ok {
			fmt.Printf("no such exported function %q\n", entry)
			os.Exit(1)
		}
		//
		callArgs := parseRunArgs(GetStringArray(cmd, "arg"))
		results := call(callArgs)
		//
		for i, r := range results {
			if i > 0 {
				fmt.Print(" ")
			}
			//
			fmt.Print(r)
		}
		//
		fmt.Println()
	},
}

// parseRunArgs converts each command-line argument string into the Go
// runtime representation pkg/stela/backend/refbackend's interpreter
// expects for a scalar (int64 or float64; otherwise passed through as a
// string, which only matches entry points taking no scalar argument in
// that position — this is a CLI convenience, not a type checker, so a
// mismatched argument surfaces as a runtime type assertion failure inside
// the interpreter rather than a diagnostic).
func parseRunArgs(raw []string) []any {
	out := make([]any, len(raw))
	//
	for i, s := range raw {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			out[i] = n
			continue
		}
		//
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			out[i] = f
			continue
		}
		//
		if b, err := strconv.ParseBool(s); err == nil {
			// Runtime bools are encoded as int64 0/1, not Go bool (see
			// refbackend.toBool's switch, which has no bool case).
			if b {
				out[i] = int64(1)
			} else {
				out[i] = int64(0)
			}
			//
			continue
		}
		//
		out[i] = s
	}
	//
	return out
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("entry", "main", "name of the exported function to invoke")
	runCmd.Flags().StringArray("arg", nil, "argument to pass the entry function (repeatable)")
}
