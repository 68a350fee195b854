package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/justin-jit/stencilgen/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithNoFile(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, []int{14, 15, 16}, cfg.LLVMVersions)
	assert.Equal(t, "llvm-readobj", cfg.ReaderPath)
}

func TestLoadMergesYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stencilgen.yaml")
	contents := "skip_opcodes:\n  - INSTRUMENTED_LINE\n  - RERAISE\nextra_cflags:\n  - -Wno-foo\nwindows: Debug|Win32\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"INSTRUMENTED_LINE", "RERAISE"}, cfg.SkipOpcodes)
	assert.Equal(t, []string{"-Wno-foo"}, cfg.ExtraCFLAGS)
	assert.Equal(t, "Debug|Win32", cfg.Windows)
	assert.True(t, cfg.SkipSet()["RERAISE"])
}

func TestLoadEnvOverridesClangPath(t *testing.T) {
	t.Setenv("STENCILGEN_CLANG_PATH", "/opt/llvm/bin/clang")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "/opt/llvm/bin/clang", cfg.ClangPath)
}

func TestLoadForcedLLVMVersionNarrowsAcceptableSet(t *testing.T) {
	t.Setenv("STENCILGEN_LLVM_VERSION", "15")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, []int{15}, cfg.LLVMVersions)
}

func TestLoadForcedLLVMVersionOutsideDefaultsNarrowsToEmpty(t *testing.T) {
	// Mirrors build.py's `versions &= {forced}`: forcing a version absent
	// from the acceptable set leaves nothing, deferring the "can't find
	// tool" error to toolchain.Discover rather than failing here.
	t.Setenv("STENCILGEN_LLVM_VERSION", "99")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.LLVMVersions)
}

func TestLoadForcedLLVMVersionAppliesAfterYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stencilgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llvm_versions:\n  - 15\n  - 16\n"), 0o644))
	t.Setenv("STENCILGEN_LLVM_VERSION", "16")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []int{16}, cfg.LLVMVersions)
}

func TestLoadForcedLLVMVersionRejectsNonInteger(t *testing.T) {
	t.Setenv("STENCILGEN_LLVM_VERSION", "not-a-number")

	_, err := config.Load("")
	assert.Error(t, err)
}
