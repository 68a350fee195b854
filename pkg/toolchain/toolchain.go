// Package toolchain implements §4.A tool discovery: locating a versioned
// LLVM tool (clang, llvm-readobj) on the host.
package toolchain

import (
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"sort"
)

// DefaultVersions are the acceptable major LLVM versions, matching
// build.py's `versions = {14, 15, 16}`.
var DefaultVersions = []int{14, 15, 16}

var versionPattern = regexp.MustCompile(`version\s+(\d+)\.\d+\.\d+`)

// Tool is a discovered toolchain executable.
type Tool struct {
	Path    string
	Version int
}

// runVersion is overridable in tests so Discover doesn't need a real
// compiler installed.
var runVersion = func(path string) ([]byte, error) {
	return exec.Command(path, "--version").Output()
}

var runBrewPrefix = func(pkg string) ([]byte, error) {
	return exec.Command("brew", "--prefix", pkg).Output()
}

// getVersion runs `<path> --version` and extracts the major version,
// mirroring build.py's get_llvm_tool_version. Returns (0, false) if the
// tool can't be run or the output doesn't match.
func getVersion(path string) (int, bool) {
	out, err := runVersion(path)
	if err != nil {
		return 0, false
	}

	match := versionPattern.FindSubmatch(out)
	if match == nil {
		return 0, false
	}

	var major int
	if _, err := fmt.Sscanf(string(match[1]), "%d", &major); err != nil {
		return 0, false
	}

	return major, true
}

func contains(versions []int, v int) bool {
	for _, w := range versions {
		if w == v {
			return true
		}
	}
	return false
}

// Discover locates an acceptable version of the named tool, probing in
// order: the unversioned executable, `<name>-<v>` in descending version
// order, then (on macOS) a Homebrew `llvm@<v>` prefix. Matches
// build.py's find_llvm_tool.
func Discover(name string, versions []int) (Tool, error) {
	if version, ok := getVersion(name); ok && contains(versions, version) {
		return Tool{Path: name, Version: version}, nil
	}

	sorted := append([]int(nil), versions...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	for _, version := range sorted {
		path := fmt.Sprintf("%s-%d", name, version)
		if got, ok := getVersion(path); ok && got == version {
			return Tool{Path: path, Version: version}, nil
		}

		if runtime.GOOS == "darwin" {
			if out, err := runBrewPrefix(fmt.Sprintf("llvm@%d", version)); err == nil {
				prefix := trimTrailingNewline(out)
				path := fmt.Sprintf("%s/bin/%s", prefix, name)
				if got, ok := getVersion(path); ok && got == version {
					return Tool{Path: path, Version: version}, nil
				}
			}
		}
	}

	return Tool{}, fmt.Errorf("toolchain: can't find %s (acceptable versions: %v)", name, versions)
}

func trimTrailingNewline(b []byte) string {
	s := string(b)
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
