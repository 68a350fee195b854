// Package engine is the top-level driver: it wires toolchain discovery,
// case-table extraction, template assembly, the compile/read/parse
// pipeline, and header emission into the single entry point a CLI command
// calls. Grounded on build.py's Compiler.build/__main__ driving sequence.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/justin-jit/stencilgen/internal/config"
	"github.com/justin-jit/stencilgen/pkg/casetable"
	"github.com/justin-jit/stencilgen/pkg/compiler"
	"github.com/justin-jit/stencilgen/pkg/header"
	"github.com/justin-jit/stencilgen/pkg/objreader"
	"github.com/justin-jit/stencilgen/pkg/progress"
	"github.com/justin-jit/stencilgen/pkg/stencil"
	"github.com/justin-jit/stencilgen/pkg/template"
	"github.com/justin-jit/stencilgen/pkg/toolchain"
	"github.com/justin-jit/stencilgen/pkg/winconfig"
)

// Sources bundles the three text inputs the pipeline needs, per §6's
// consumed interfaces.
type Sources struct {
	// CaseTable is the upstream generated case-table text (§6).
	CaseTable string
	// Template is the primary C template with one %s substitution point.
	Template string
	// Trampoline is the trampoline template's source, used verbatim.
	Trampoline string
	// TOSCachingDepth, if nonzero, enables top-of-stack caching to that
	// depth before splicing (§4.B); zero strips every `_tos*` line.
	TOSCachingDepth int
	// GHCCallingConvention applies the ghccc return-type tag to the
	// well-known entry symbols in the emitted LLVM IR, between the two
	// compile passes (§4.B).
	GHCCallingConvention bool
}

// Options configures one build run. RunClang and RunReader are normally
// left nil (the Engine shells out to real processes); tests override them
// to exercise the pipeline's wiring without a real toolchain.
type Options struct {
	Config    config.Config
	Sources   Sources
	Logger    *slog.Logger
	Reporter  progress.Reporter
	RunClang  func(ctx context.Context, clangPath string, args []string) error
	RunReader func(ctx context.Context, readerPath, objectPath string) ([]objreader.Section, error)
}

// Engine drives one full build: discover tools, compile every opcode
// concurrently, and emit the header.
type Engine struct {
	opts     Options
	compiler *compiler.Compiler
}

// New discovers the clang and object-reader tools (unless Options.Config
// already names them) and returns a ready-to-run Engine.
func New(ctx context.Context, opts Options) (*Engine, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Reporter == nil {
		opts.Reporter = progress.Noop()
	}

	clangPath := opts.Config.ClangPath
	if clangPath == "" {
		tool, err := toolchain.Discover("clang", opts.Config.LLVMVersions)
		if err != nil {
			return nil, fmt.Errorf("engine: discover clang: %w", err)
		}
		clangPath = tool.Path
	}

	readerPath := opts.Config.ReaderPath
	if readerPath == "" {
		tool, err := toolchain.Discover("llvm-readobj", opts.Config.LLVMVersions)
		if err != nil {
			return nil, fmt.Errorf("engine: discover llvm-readobj: %w", err)
		}
		readerPath = tool.Path
	}

	// Platform selects the section-walker format and symbol prefix the
	// same way build.py's sys.platform dispatch does: Mach-O on darwin,
	// COFF when a --windows configuration is given, ELF otherwise. Unlike
	// build.py, a --windows configuration is only ever supplied when
	// actually cross-building for Windows; the host GOOS still drives the
	// darwin/linux split.
	format := stencil.FormatELF
	symbolPrefix := ""
	if runtime.GOOS == "darwin" {
		format = stencil.FormatMachO
		symbolPrefix = "_"
	}

	extraCFLAGS := append([]string{}, opts.Config.ExtraCFLAGS...)

	if opts.Config.Windows != "" {
		settings, err := winconfig.Parse(opts.Config.Windows)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		format = stencil.FormatCOFF
		symbolPrefix = settings.SymbolPrefix()
		extraCFLAGS = append(extraCFLAGS, settings.ExtraCFLAGS()...)
	}

	c := compiler.New(compiler.Config{
		ClangPath:    clangPath,
		ReaderPath:   readerPath,
		IncludePaths: opts.Config.IncludePaths,
		Defines:      map[string]string{},
		ExtraCFLAGS:  extraCFLAGS,
		Format:       format,
		SymbolPrefix: symbolPrefix,
		Logger:       opts.Logger,
		Reporter:     opts.Reporter,
		RunClang:     opts.RunClang,
		RunReader:    opts.RunReader,
	})

	return &Engine{opts: opts, compiler: c}, nil
}

// Build extracts every opcode's case body, splices it into the template,
// compiles and parses every opcode (and the trampoline) concurrently, and
// returns the resulting header.Document. The header is only ever written
// after every task in this call has completed successfully, per §5.
func (e *Engine) Build(ctx context.Context) (header.Document, error) {
	cases := casetable.Extract(e.opts.Sources.CaseTable)
	skip := e.opts.Config.SkipSet()

	tasks := make([]compiler.Task, 0, len(cases)+1)
	for opname, body := range cases {
		if skip[opname] {
			continue
		}
		source := e.spliceSource(body)
		tasks = append(tasks, compiler.Task{
			Opcode:               opname,
			Source:               source,
			GHCCallingConvention: e.opts.Sources.GHCCallingConvention,
		})
	}
	tasks = append(tasks, compiler.Task{
		Opcode:               "trampoline",
		Source:               e.opts.Sources.Trampoline,
		GHCCallingConvention: e.opts.Sources.GHCCallingConvention,
	})

	stencils, err := e.compiler.BuildAll(ctx, tasks)
	if err != nil {
		return header.Document{}, fmt.Errorf("engine: build: %w", err)
	}

	doc, err := header.Build(stencils)
	if err != nil {
		return header.Document{}, fmt.Errorf("engine: assemble header: %w", err)
	}

	return doc, nil
}

// spliceSource applies top-of-stack caching to body (§4.B) before
// substituting it into the primary template. The GHC calling-convention
// rewrite is a separate, later-stage transform applied by the compiler to
// the emitted LLVM IR, not to this C source.
func (e *Engine) spliceSource(body string) string {
	body = template.ApplyTOSCaching(body, e.opts.Sources.TOSCachingDepth)

	return template.Splice(e.opts.Sources.Template, body)
}

// WriteHeader renders doc and writes it to path, per §4.H.
func WriteHeader(path string, doc header.Document) error {
	gen, err := header.NewGenerator()
	if err != nil {
		return fmt.Errorf("engine: new header generator: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("engine: create header file: %w", err)
	}
	defer f.Close()

	if err := gen.GenerateTo(f, doc); err != nil {
		return fmt.Errorf("engine: render header: %w", err)
	}
	return nil
}
