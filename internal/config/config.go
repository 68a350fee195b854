// Package config loads stencilgen's build configuration: LLVM toolchain
// version preferences, the opcode skip-set, and CFLAGS overrides. Grounded
// on the teacher's cmd/root.go initConfig, generalized from a package-level
// viper singleton to a per-call instance so loading is testable without
// global state.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for every environment variable this package
// reads, e.g. STENCILGEN_LLVM_VERSIONS.
const EnvPrefix = "STENCILGEN"

// forcedLLVMVersionEnv mirrors build.py's PYTHON_LLVM_VERSION: when set, it
// narrows the acceptable LLVM major version down to this one value, rather
// than overriding the whole LLVMVersions list the way AutomaticEnv does for
// every other field.
const forcedLLVMVersionEnv = EnvPrefix + "_LLVM_VERSION"

// Config is the merged build configuration: defaults, overridden by an
// optional YAML file, overridden by STENCILGEN_-prefixed environment
// variables.
type Config struct {
	// LLVMVersions lists acceptable clang/llvm-readobj major versions,
	// mirroring toolchain.DefaultVersions; toolchain.Discover tries the
	// highest version first whatever the list order.
	LLVMVersions []int `mapstructure:"llvm_versions"`

	// SkipOpcodes names opcodes excluded from stencil generation, per
	// §4.H's skip-set (exception handling, dynamic name lookups,
	// instrumentation, deep call forms, tier-2 branches).
	SkipOpcodes []string `mapstructure:"skip_opcodes"`

	// ExtraCFLAGS is appended to compiler.BaseCFLAGS for every pass.
	ExtraCFLAGS []string `mapstructure:"extra_cflags"`

	// IncludePaths is passed to the compiler as -I entries.
	IncludePaths []string `mapstructure:"include_paths"`

	// ClangPath and ReaderPath override toolchain auto-discovery when set.
	ClangPath  string `mapstructure:"clang_path"`
	ReaderPath string `mapstructure:"reader_path"`

	// Windows is a `<Config>|<Arch>` string (e.g. "Debug|Win32") selecting
	// one of the fixed MSBuild configurations §6's CLI contract accepts.
	// Empty means the non-Windows ELF/Mach-O path.
	Windows string `mapstructure:"windows"`
}

// Default returns the configuration used when no file or environment
// variable overrides anything.
func Default() Config {
	return Config{
		LLVMVersions: []int{14, 15, 16},
		ReaderPath:   "llvm-readobj",
	}
}

// Load merges Default() with path (a YAML file, skipped if empty) and any
// STENCILGEN_-prefixed environment variables, per §ambient-config.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("llvm_versions", def.LLVMVersions)
	v.SetDefault("reader_path", def.ReaderPath)
	// Keys without a default must be bound explicitly for Unmarshal to see
	// their environment variables.
	for _, key := range []string{"skip_opcodes", "extra_cflags", "include_paths", "clang_path", "windows"} {
		_ = v.BindEnv(key)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	if forced, ok := os.LookupEnv(forcedLLVMVersionEnv); ok && forced != "" {
		version, err := strconv.Atoi(forced)
		if err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", forcedLLVMVersionEnv, err)
		}
		cfg.LLVMVersions = intersectLLVMVersion(cfg.LLVMVersions, version)
	}

	return cfg, nil
}

// intersectLLVMVersion mirrors build.py's `versions &= {forced}`: it narrows
// versions down to forced alone when forced is already acceptable, or to
// nothing when it isn't — toolchain.Discover is left to report the resulting
// unavailability, exactly as find_llvm_tool's RuntimeError does.
func intersectLLVMVersion(versions []int, forced int) []int {
	for _, v := range versions {
		if v == forced {
			return []int{forced}
		}
	}
	return nil
}

// SkipSet returns SkipOpcodes as a lookup set.
func (c Config) SkipSet() map[string]bool {
	skip := make(map[string]bool, len(c.SkipOpcodes))
	for _, name := range c.SkipOpcodes {
		skip[name] = true
	}
	return skip
}
