package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd is the base command when stencilgen is invoked without a
// subcommand.
var rootCmd = &cobra.Command{
	Use:   "stencilgen",
	Short: "Generates a copy-and-patch JIT stencil header",
	Long: `stencilgen compiles one C template per interpreter opcode, reads the
resulting object files, lowers their relocations into patch sites, and
emits a single generated C header declaring one Stencil per opcode.`,
}

// Execute adds all child commands to rootCmd and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a stencilgen YAML config file")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable verbose logging")
	rootCmd.PersistentFlags().String("log-file", "", "also write structured JSON logs to this file")
}
