package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stela-lang/stela/pkg/stela/diag"
	"github.com/stela-lang/stela/pkg/stela/driver"
	"github.com/stela-lang/stela/pkg/stela/source"
)

// compileCmd runs the whole pipeline — tokenize, parse, analyze, generate
// IR, link, and JIT — over a set of source files, reporting every
// diagnostic produced along the way. Unlike go-corset's compile subcommand
// there is no binary artifact to write: STELA's driver hands a ready-to-run
// backend.ExecutionEngine straight to "stela run" in-process (see
// DESIGN.md's note on why pkg/binfile has no STELA counterpart), so this
// command's job is purely to prove the source compiles cleanly.
var compileCmd = &cobra.Command{
	Use:   "compile [flags] source_file(s)",
	Short: "compile source files, reporting any diagnostics, without running them.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)
		cfg := buildConfig(cmd)
		//
		files, err := source.ReadFiles(args...)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		//
		sink := diag.NewCollectingSink()
		_, ok := driver.Compile(cfg, files, sink)
		emitRecords(sink)
		//
		if !ok {
			os.Exit(1)
		}
		//
		fmt.Println("ok")
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)
}
