package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/justin-jit/stencilgen/pkg/header"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <generated-header>",
	Short: "Report per-opcode byte/hole/load counts for a generated header",
	Long: `inspect re-reads a header previously written by "stencilgen build" and
reports each opcode's body size, hole count, and load count, flagging any
stencil with no holes at all as a likely sign the compile pipeline silently
produced an empty body. This is a Go-native stand-in for the original
toolchain's Capstone-based disassemble.py sanity check.`,
	Args: cobra.ExactArgs(1),
	Run:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) {
	source, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	stats, err := header.ParseHeaderStats(string(source))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })

	empty := 0
	for _, s := range stats {
		flag := ""
		if s.EmptyHoles {
			flag = "  <-- no holes"
			empty++
		}
		fmt.Printf("%-24s bytes=%-6d holes=%-4d loads=%-4d%s\n", s.Name, s.BodyBytes, s.HoleCount, s.LoadCount, flag)
	}

	if empty > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d stencils have no holes at all\n", empty, len(stats))
		os.Exit(1)
	}
}
