package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stela-lang/stela/pkg/stela/diag"
	"github.com/stela-lang/stela/pkg/stela/driver"
	"github.com/stela-lang/stela/pkg/stela/source"
)

// checkCmd runs only the front end (tokenize, parse, analyze) over a set of
// source files, reporting every diagnostic without generating IR or
// JIT-ing anything, mirroring go-corset's own "parse and validate, don't
// build a binary" check subcommands.
var checkCmd = &cobra.Command{
	Use:   "check [flags] source_file(s)",
	Short: "parse and semantically analyze source files without compiling them.",
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
		_, ok := driver.Check(cfg, files, sink)
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
	rootCmd.AddCommand(checkCmd)
}
