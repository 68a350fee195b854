// Package template implements §4.B template assembly: splicing an opcode's
// C case body into the fixed C template, and the two optional source-level
// rewrites (top-of-stack caching, GHC calling-convention tagging).
package template

import (
	"fmt"
	"strings"
)

// Splice substitutes body into template's single `%s` placeholder,
// mirroring build.py's `template % self._cases[opname]`.
func Splice(tmpl, body string) string {
	return fmt.Sprintf(tmpl, body)
}

// ApplyTOSCaching rewrites `stack_pointer[-i]` references into `_tosN`
// locals for i in 1..depth, and strips any line mentioning `_tosJ` for
// J > depth. depth == 0 (the default) strips every `_tos*` line, matching
// build.py's `_use_tos_caching(c, enable=0)`.
func ApplyTOSCaching(source string, depth int) string {
	for i := 1; i <= depth; i++ {
		old := fmt.Sprintf(" = stack_pointer[-%d];", i)
		new := fmt.Sprintf(" = _tos%d;", i)
		source = strings.ReplaceAll(source, old, new)
	}

	lines := splitKeepEnds(source)
	var kept strings.Builder
	for _, line := range lines {
		drop := false
		for j := depth + 1; j <= 4; j++ {
			if strings.Contains(line, fmt.Sprintf("_tos%d", j)) {
				drop = true
				break
			}
		}
		if !drop {
			kept.WriteString(line)
		}
	}

	return kept.String()
}

// splitKeepEnds splits s into lines, keeping the trailing newline on every
// line but the (possibly absent) last one, matching Python's
// str.splitlines(True).
func splitKeepEnds(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

// entrySymbols are the two well-known entry points the GHC calling
// convention tag applies to.
var entrySymbols = []string{"_stencil_continue", "_stencil_entry"}

// ApplyGHCCallingConvention prepends `ghccc` to the declared return type of
// the well-known entry symbols in LLVM IR text, matching build.py's
// `_use_ghccc`.
func ApplyGHCCallingConvention(ir string) string {
	for _, symbol := range entrySymbols {
		ir = strings.ReplaceAll(ir, "i32 @"+symbol, "ghccc i32 @"+symbol)
	}
	return ir
}
