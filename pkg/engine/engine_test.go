package engine_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/justin-jit/stencilgen/internal/config"
	"github.com/justin-jit/stencilgen/pkg/engine"
	"github.com/justin-jit/stencilgen/pkg/objreader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const caseTable = `
        TARGET(NOP) {
            nop_body();
        }

        TARGET(SKIP_ME) {
            skip_body();
        }

        TARGET(LOAD_FAST) {
            load_body();
        }
`

func fakeSections() []objreader.Section {
	progbits := objreader.Section{
		"Type":  objreader.Section{"Value": "SHT_PROGBITS"},
		"Index": float64(1),
		"Flags": objreader.Section{"Flags": []any{objreader.Section{"Name": "SHF_ALLOC"}}},
		"SectionData": objreader.Section{
			"Bytes": []any{float64(1), float64(2), float64(3), float64(4), float64(5), float64(6), float64(7), float64(8)},
		},
		"Symbols": []any{
			objreader.Section{"Symbol": objreader.Section{"Name": objreader.Section{"Value": "_stencil_base"}, "Value": float64(0)}},
		},
	}
	rela := objreader.Section{
		"Type":  objreader.Section{"Value": "SHT_RELA"},
		"Info":  float64(1),
		"Flags": objreader.Section{"Flags": []any{objreader.Section{"Name": "SHF_INFO_LINK"}}},
		"Relocations": []any{
			objreader.Section{"Relocation": objreader.Section{
				"Offset": float64(0),
				"Type":   objreader.Section{"Value": "R_X86_64_64"},
				"Symbol": objreader.Section{"Value": "_stencil_base"},
				"Addend": float64(0),
			}},
		},
	}
	return []objreader.Section{progbits, rela}
}

func TestBuildSkipsConfiguredOpcodes(t *testing.T) {
	opts := engine.Options{
		Config: config.Config{
			ClangPath:   "clang",
			ReaderPath:  "llvm-readobj",
			SkipOpcodes: []string{"SKIP_ME"},
		},
		Sources: engine.Sources{
			CaseTable:  caseTable,
			Template:   "void run(void) {\n%s\n}\n",
			Trampoline: "void trampoline(void) {}\n",
		},
		RunClang: func(ctx context.Context, path string, args []string) error { return nil },
		RunReader: func(ctx context.Context, readerPath, objectPath string) ([]objreader.Section, error) {
			return fakeSections(), nil
		},
	}

	e, err := engine.New(context.Background(), opts)
	require.NoError(t, err)

	doc, err := e.Build(context.Background())
	require.NoError(t, err)

	var names []string
	for _, op := range doc.Opcodes {
		names = append(names, op.Name)
	}
	assert.Contains(t, names, "NOP")
	assert.Contains(t, names, "LOAD_FAST")
	assert.NotContains(t, names, "SKIP_ME")
	assert.Equal(t, "trampoline", doc.Trampoline.Name)
}

// fakeCOFFSections uses a doubly-underscore-prefixed symbol name
// ("__stencil_base") because Win32's C name mangling adds one leading
// underscore on top of the template's own "_stencil_" well-known-name
// marker; the parser's per-platform SymbolPrefix ("_") strips exactly one
// of them, recovering "_stencil_base" == stencil.BaseSymbol.
func fakeCOFFSections() []objreader.Section {
	section := objreader.Section{
		"Number": float64(1),
		"Characteristics": objreader.Section{
			"Flags": []any{objreader.Section{"Name": "IMAGE_SCN_MEM_READ"}},
		},
		"SectionData": objreader.Section{
			"Bytes": []any{float64(0), float64(0), float64(0), float64(0), float64(0), float64(0), float64(0), float64(0)},
		},
		"Symbols": []any{
			objreader.Section{"Symbol": objreader.Section{"Name": "__stencil_base", "Value": float64(0)}},
		},
		"Relocations": []any{
			objreader.Section{"Relocation": objreader.Section{
				"Offset": float64(0),
				"Type":   objreader.Section{"Value": "IMAGE_REL_AMD64_ADDR64"},
				"Symbol": "__stencil_base",
			}},
		},
	}
	return []objreader.Section{section}
}

func TestBuildWindowsConfigSelectsCOFFAndAddsCFLAGS(t *testing.T) {
	var seenArgs [][]string

	opts := engine.Options{
		Config: config.Config{
			ClangPath:  "clang",
			ReaderPath: "llvm-readobj",
			Windows:    "Debug|Win32",
		},
		Sources: engine.Sources{
			CaseTable:  caseTable,
			Template:   "void run(void) {\n%s\n}\n",
			Trampoline: "void trampoline(void) {}\n",
		},
		RunClang: func(ctx context.Context, path string, args []string) error {
			seenArgs = append(seenArgs, append([]string(nil), args...))
			return nil
		},
		RunReader: func(ctx context.Context, readerPath, objectPath string) ([]objreader.Section, error) {
			return fakeCOFFSections(), nil
		},
	}

	e, err := engine.New(context.Background(), opts)
	require.NoError(t, err)

	doc, err := e.Build(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, doc.Opcodes)

	require.NotEmpty(t, seenArgs)
	for _, args := range seenArgs {
		assert.Contains(t, args, "-m32")
		assert.Contains(t, args, "-D_DEBUG")
	}
}

func TestBuildRejectsUnknownWindowsConfig(t *testing.T) {
	opts := engine.Options{
		Config: config.Config{ClangPath: "clang", ReaderPath: "llvm-readobj", Windows: "Hotfix|Win32"},
		Sources: engine.Sources{
			CaseTable:  caseTable,
			Template:   "void run(void) {\n%s\n}\n",
			Trampoline: "void trampoline(void) {}\n",
		},
		RunClang: func(ctx context.Context, path string, args []string) error { return nil },
	}

	_, err := engine.New(context.Background(), opts)
	assert.Error(t, err)
}

func TestBuildPropagatesCompileFailure(t *testing.T) {
	opts := engine.Options{
		Config: config.Config{ClangPath: "clang", ReaderPath: "llvm-readobj"},
		Sources: engine.Sources{
			CaseTable:  caseTable,
			Template:   "void run(void) {\n%s\n}\n",
			Trampoline: "void trampoline(void) {}\n",
		},
		RunClang: func(ctx context.Context, path string, args []string) error {
			return assert.AnError
		},
	}

	e, err := engine.New(context.Background(), opts)
	require.NoError(t, err)

	_, err = e.Build(context.Background())
	assert.Error(t, err)
}
