// Package winconfig parses the `--windows <config>` CLI argument described
// in spec.md §6: a `<Config>|<Arch>` pair selecting one of a fixed set of
// build configurations, and derives the CFLAGS/symbol-prefix adjustments
// each one implies. Grounded directly on build.py's `sys.platform ==
// "win32"` dispatch (lines ~522-542), which hardcodes exactly these eight
// configuration strings.
package winconfig

import "fmt"

// Config names one of the four MSBuild configurations build.py accepts.
type Config string

const (
	Debug        Config = "Debug"
	PGInstrument Config = "PGInstrument"
	PGUpdate     Config = "PGUpdate"
	Release      Config = "Release"
)

// Arch names one of the two architectures build.py accepts.
type Arch string

const (
	Win32 Arch = "Win32"
	X64   Arch = "x64"
)

// Settings is one parsed `--windows` argument.
type Settings struct {
	Config Config
	Arch   Arch
}

// validConfigs mirrors the exact set build.py's if/elif chain accepts; any
// other combination is build.py's `assert False, sys.argv[2]`.
var validConfigs = map[string]Settings{
	"Debug|Win32":        {Debug, Win32},
	"Debug|x64":          {Debug, X64},
	"PGInstrument|Win32": {PGInstrument, Win32},
	"PGUpdate|Win32":     {PGUpdate, Win32},
	"Release|Win32":      {Release, Win32},
	"PGInstrument|x64":   {PGInstrument, X64},
	"PGUpdate|x64":       {PGUpdate, X64},
	"Release|x64":        {Release, X64},
}

// Parse validates raw against the fixed configuration set and returns the
// matching Settings. An unrecognized string is spec.md §7's
// PlatformConfigMissing error.
func Parse(raw string) (Settings, error) {
	settings, ok := validConfigs[raw]
	if !ok {
		return Settings{}, fmt.Errorf("winconfig: unknown --windows configuration %q", raw)
	}
	return settings, nil
}

// SymbolPrefix is "_" for Win32 (32-bit COFF mangles cdecl symbols with a
// leading underscore) and "" for x64, matching ObjectParserCOFF's
// symbol_prefix argument in every branch of build.py's dispatch.
func (s Settings) SymbolPrefix() string {
	if s.Arch == Win32 {
		return "_"
	}
	return ""
}

// ExtraCFLAGS returns the flags build.py appends for this configuration:
// -m32 for every Win32 build, plus -D_DEBUG for the Debug configuration.
func (s Settings) ExtraCFLAGS() []string {
	var flags []string
	if s.Config == Debug {
		flags = append(flags, "-D_DEBUG")
	}
	if s.Arch == Win32 {
		flags = append(flags, "-m32")
	}
	return flags
}
