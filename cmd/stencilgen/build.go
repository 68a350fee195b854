package main

import (
	"context"
	"fmt"
	"os"

	"github.com/justin-jit/stencilgen/internal/config"
	"github.com/justin-jit/stencilgen/pkg/casetable"
	"github.com/justin-jit/stencilgen/pkg/engine"
	"github.com/justin-jit/stencilgen/pkg/logging"
	"github.com/justin-jit/stencilgen/pkg/progress"
	"github.com/spf13/cobra"
)

var (
	buildCaseTablePath  string
	buildTemplatePath   string
	buildTrampolinePath string
	buildWindows        string
	buildClangPath      string
	buildReaderPath     string
	buildIncludePaths   []string
	buildTOSCaching     int
	buildGHCCC          bool
	buildTUI            bool
)

var buildCmd = &cobra.Command{
	Use:   "build <output-header>",
	Short: "Compile every opcode and emit a generated stencil header",
	Long: `build reads the upstream case table, compiles one object file per
opcode (plus the trampoline), lowers every relocation into a patch site,
and writes a single generated C header to <output-header>.`,
	Args: cobra.ExactArgs(1),
	Run:  runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildCaseTablePath, "case-table", "", "path to the generated case-table source (required)")
	buildCmd.Flags().StringVar(&buildTemplatePath, "template", "", "path to the primary C template (required)")
	buildCmd.Flags().StringVar(&buildTrampolinePath, "trampoline", "", "path to the trampoline C source (required)")
	buildCmd.Flags().StringVar(&buildWindows, "windows", "", `cross-build for Windows using a "<Config>|<Arch>" pair, e.g. "Debug|Win32" or "Release|x64"`)
	buildCmd.Flags().StringVar(&buildClangPath, "clang", "", "override clang path (otherwise auto-discovered)")
	buildCmd.Flags().StringVar(&buildReaderPath, "reader", "", "override object-reader path (otherwise llvm-readobj)")
	buildCmd.Flags().StringArrayVar(&buildIncludePaths, "include", nil, "additional -I include path (repeatable)")
	buildCmd.Flags().IntVar(&buildTOSCaching, "tos-caching", 0, "top-of-stack caching depth (0 disables)")
	buildCmd.Flags().BoolVar(&buildGHCCC, "ghccc", false, "tag well-known entry symbols with the GHC calling convention")
	buildCmd.Flags().BoolVar(&buildTUI, "tui", false, "show a live terminal progress dashboard instead of plain output")

	_ = buildCmd.MarkFlagRequired("case-table")
	_ = buildCmd.MarkFlagRequired("template")
	_ = buildCmd.MarkFlagRequired("trampoline")

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) {
	outputPath := args[0]

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if buildWindows != "" {
		cfg.Windows = buildWindows
	}
	if buildClangPath != "" {
		cfg.ClangPath = buildClangPath
	}
	if buildReaderPath != "" {
		cfg.ReaderPath = buildReaderPath
	}
	if len(buildIncludePaths) > 0 {
		cfg.IncludePaths = append(cfg.IncludePaths, buildIncludePaths...)
	}

	caseTable, err := os.ReadFile(buildCaseTablePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	tmpl, err := os.ReadFile(buildTemplatePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	trampoline, err := os.ReadFile(buildTrampolinePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	logFile, _ := cmd.Flags().GetString("log-file")
	logger, closeLog, err := logging.New(logging.Options{Verbose: verbose, LogFile: logFile})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closeLog()

	var reporter progress.Reporter
	if buildTUI {
		cases := casetable.Extract(string(caseTable))
		opcodes := make([]string, 0, len(cases))
		for name := range cases {
			opcodes = append(opcodes, name)
		}
		reporter, err = progress.NewTUI(opcodes)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	} else {
		reporter = progress.NewPlain(os.Stdout)
	}
	defer reporter.Close()

	opts := engine.Options{
		Config: cfg,
		Sources: engine.Sources{
			CaseTable:            string(caseTable),
			Template:             string(tmpl),
			Trampoline:           string(trampoline),
			TOSCachingDepth:      buildTOSCaching,
			GHCCallingConvention: buildGHCCC,
		},
		Logger:   logger,
		Reporter: reporter,
	}

	ctx := context.Background()
	e, err := engine.New(ctx, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	doc, err := e.Build(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := engine.WriteHeader(outputPath, doc); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "wrote %d opcode stencils to %s\n", len(doc.Opcodes), outputPath)
}
