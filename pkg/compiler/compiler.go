// Package compiler implements §4.C's external compile driver: for each
// opcode, run the two-pass C toolchain invocation in sequence, hand the
// resulting object file to the reader and stencil parser, and fan the whole
// per-opcode pipeline out across opcodes concurrently.
package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/justin-jit/stencilgen/pkg/objreader"
	"github.com/justin-jit/stencilgen/pkg/progress"
	"github.com/justin-jit/stencilgen/pkg/stencil"
	"github.com/justin-jit/stencilgen/pkg/template"
	"github.com/sourcegraph/conc/pool"
)

// BaseCFLAGS is the fixed flag set every pass shares, per §4.C: build-core
// preprocessor flag, JIT-active flag, aggressive optimization, suppression
// of noisy diagnostics, no unwind tables, no stack protector, no frame
// pointer (the GHC convention claims that register), no debug info, and
// the large code model so every hole can be patched as a 64-bit absolute.
var BaseCFLAGS = []string{
	"-DPy_BUILD_CORE",
	"-DJIT_ACTIVE",
	"-O3",
	"-Wno-unreachable-code",
	"-Wno-unused-label",
	"-Wno-unused-variable",
	"-Wno-unused-command-line-argument",
	"-fno-asynchronous-unwind-tables",
	"-fno-stack-protector",
	"-fomit-frame-pointer",
	"-g0",
	"-mcmodel=large",
}

// Config configures every compile task the Compiler runs.
type Config struct {
	ClangPath    string
	ReaderPath   string
	IncludePaths []string
	Defines      map[string]string
	// ExtraCFLAGS is appended after BaseCFLAGS in every pass, e.g. the
	// -m32/-D_DEBUG flags a --windows configuration implies (§6).
	ExtraCFLAGS  []string
	Format       stencil.Format
	SymbolPrefix string
	Logger       *slog.Logger
	Reporter     progress.Reporter

	// RunClang and RunReader are overridable for testing; they default to
	// exec.CommandContext-backed implementations.
	RunClang  func(ctx context.Context, clangPath string, args []string) error
	RunReader func(ctx context.Context, readerPath, objectPath string) ([]objreader.Section, error)
}

// Task is one opcode's C source body, already spliced into its template.
type Task struct {
	Opcode string
	Source string
	Entry  int
	// GHCCallingConvention tags the well-known entry symbols with the ghccc
	// calling convention in the emitted LLVM IR, between the two compile
	// passes (§4.B).
	GHCCallingConvention bool
}

// Compiler drives the two-pass compile plus object-read-and-parse pipeline
// described in §4.C/§4.D, fanned out across opcodes per §5's task-group
// model: spawn one task per opcode, await all, propagate the first error.
type Compiler struct {
	cfg Config
}

// New returns a Compiler for cfg, filling in default process runners.
func New(cfg Config) *Compiler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RunClang == nil {
		cfg.RunClang = runClangProcess
	}
	if cfg.RunReader == nil {
		cfg.RunReader = objreader.Read
	}
	if cfg.Reporter == nil {
		cfg.Reporter = progress.Noop()
	}
	return &Compiler{cfg: cfg}
}

// BuildAll runs every task's pipeline concurrently and returns the
// resulting stencils keyed by opcode. Per §5, no task is canceled on a
// sibling's failure; Wait propagates the first error only after every task
// has finished.
func (c *Compiler) BuildAll(ctx context.Context, tasks []Task) (map[string]stencil.Stencil, error) {
	results := make(map[string]stencil.Stencil, len(tasks))
	var mu sync.Mutex

	p := pool.New().WithErrors().WithFirstError()
	for _, task := range tasks {
		task := task
		p.Go(func() error {
			stencilOut, err := c.buildOne(ctx, task)
			if err != nil {
				c.cfg.Reporter.Report(progress.Event{Opcode: task.Opcode, Stage: progress.StageFailed, Err: err})
				return fmt.Errorf("opcode %s: %w", task.Opcode, err)
			}
			c.cfg.Reporter.Report(progress.Event{Opcode: task.Opcode, Stage: progress.StageDone})
			mu.Lock()
			results[task.Opcode] = stencilOut
			mu.Unlock()
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// buildOne compiles one opcode's two passes strictly in sequence, reads the
// resulting object file, and parses it into a Stencil. Each task owns a
// private temporary directory, released on every exit path.
func (c *Compiler) buildOne(ctx context.Context, task Task) (stencil.Stencil, error) {
	dir, err := os.MkdirTemp("", "stencilgen-"+task.Opcode+"-")
	if err != nil {
		return stencil.Stencil{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	sourcePath := filepath.Join(dir, task.Opcode+".c")
	if err := os.WriteFile(sourcePath, []byte(task.Source), 0o644); err != nil {
		return stencil.Stencil{}, fmt.Errorf("write source: %w", err)
	}

	c.cfg.Reporter.Report(progress.Event{Opcode: task.Opcode, Stage: progress.StageCompileIR})
	irPath := filepath.Join(dir, task.Opcode+".ll")
	if err := c.cfg.RunClang(ctx, c.cfg.ClangPath, c.irArgs(sourcePath, irPath)); err != nil {
		return stencil.Stencil{}, fmt.Errorf("compile to IR: %w", err)
	}

	if task.GHCCallingConvention {
		if err := c.applyGHCCallingConvention(irPath); err != nil {
			return stencil.Stencil{}, err
		}
	}

	c.cfg.Reporter.Report(progress.Event{Opcode: task.Opcode, Stage: progress.StageCompileObject})
	objectPath := filepath.Join(dir, task.Opcode+".o")
	if err := c.cfg.RunClang(ctx, c.cfg.ClangPath, c.objectArgs(irPath, objectPath)); err != nil {
		return stencil.Stencil{}, fmt.Errorf("compile to object: %w", err)
	}

	c.cfg.Reporter.Report(progress.Event{Opcode: task.Opcode, Stage: progress.StageReadObject})
	sections, err := c.cfg.RunReader(ctx, c.cfg.ReaderPath, objectPath)
	if err != nil {
		return stencil.Stencil{}, fmt.Errorf("read object: %w", err)
	}

	c.cfg.Reporter.Report(progress.Event{Opcode: task.Opcode, Stage: progress.StageParse})
	parser := stencil.NewParser(c.cfg.Format, c.cfg.SymbolPrefix, c.cfg.Logger)
	return parser.Parse(sections, task.Entry)
}

// applyGHCCallingConvention rewrites the IR file at irPath in place, tagging
// the well-known entry symbols with the ghccc calling convention, matching
// build.py's `_use_ghccc(ll, True)` call between its two compile passes.
func (c *Compiler) applyGHCCallingConvention(irPath string) error {
	ir, err := os.ReadFile(irPath)
	if err != nil {
		return fmt.Errorf("read IR for ghccc tagging: %w", err)
	}
	tagged := template.ApplyGHCCallingConvention(string(ir))
	if err := os.WriteFile(irPath, []byte(tagged), 0o644); err != nil {
		return fmt.Errorf("write ghccc-tagged IR: %w", err)
	}
	return nil
}

func (c *Compiler) irArgs(sourcePath, irPath string) []string {
	args := append([]string{}, BaseCFLAGS...)
	args = append(args, c.cfg.ExtraCFLAGS...)
	args = append(args, c.includeAndDefineArgs()...)
	args = append(args, "-emit-llvm", "-S", "-o", irPath, sourcePath)
	return args
}

func (c *Compiler) objectArgs(irPath, objectPath string) []string {
	args := append([]string{}, BaseCFLAGS...)
	args = append(args, c.cfg.ExtraCFLAGS...)
	args = append(args, "-c", "-o", objectPath, irPath)
	return args
}

func (c *Compiler) includeAndDefineArgs() []string {
	var args []string
	for _, inc := range c.cfg.IncludePaths {
		args = append(args, "-I"+inc)
	}
	for name, value := range c.cfg.Defines {
		if value == "" {
			args = append(args, "-D"+name)
		} else {
			args = append(args, fmt.Sprintf("-D%s=%s", name, value))
		}
	}
	return args
}
