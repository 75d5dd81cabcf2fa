// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package cmd implements the stela command-line driver: a cobra command
// tree wiring pkg/stela/driver's pipeline to disk I/O and the terminal.
package cmd

import (
	"fmt"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/stela-lang/stela/pkg/stela/driver"
)

// Version is filled when building with make, but *not* when installing via
// "go install".
var Version string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "stela",
	Short: "An ahead-of-time compiler for the STELA language.",
	Long:  "An ahead-of-time compiler for the STELA language: lexer, parser, semantic analyzer, code generator and module linker.",
	Run: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "version") {
			fmt.Print("stela ")
			if Version != "" {
				// Built via "make"
				fmt.Printf("%s", Version)
			} else if info, ok := debug.ReadBuildInfo(); ok {
				// Built via "go install"
				fmt.Printf("%s", info.Main.Version)
			} else {
				// Unknown, perhaps "go run"
				fmt.Printf("(unknown version)")
			}
			fmt.Println()
		}
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// configureLogging sets logrus' level from the persistent --verbose flag and
// disables colour when stdout isn't a terminal or --no-color was passed,
// following the same term.IsTerminal check the teacher applies in
// pkg/util/termio before deciding whether to emit ANSI control codes.
func configureLogging(cmd *cobra.Command) {
	if GetFlag(cmd, "verbose") {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
	//
	color := !GetFlag(cmd, "no-color") && term.IsTerminal(int(os.Stdout.Fd()))
	log.SetFormatter(&log.TextFormatter{DisableColors: !color})
}

// buildConfig reads the persistent compilation flags into a driver.Config
// (§[NEW] Configuration); Stdlib is the negation of --no-stdlib.
func buildConfig(cmd *cobra.Command) driver.Config {
	return driver.Config{
		Stdlib: !GetFlag(cmd, "no-stdlib"),
		Strict: GetFlag(cmd, "strict"),
		Debug:  GetFlag(cmd, "debug"),
	}
}

func init() {
	rootCmd.Flags().Bool("version", false, "report version of this executable")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable coloured diagnostic output")
	rootCmd.PersistentFlags().Bool("debug", false, "set driver.Config.Debug (no effect on generated IR)")
	rootCmd.PersistentFlags().Bool("strict", false, "treat unused-symbol warnings as fatal errors")
	rootCmd.PersistentFlags().Bool("no-stdlib", false, "exclude the embedded builtin-function prelude")
}
