// Package casetable extracts per-opcode C case bodies from an upstream
// generated dispatch table, as described in spec.md §6 ("Consumed —
// upstream case table"). This is the one out-of-core-scope collaborator
// spec.md still names an interface for, so a minimal concrete
// implementation lives here to keep the repo runnable end-to-end.
package casetable

import (
	"regexp"
	"strings"
)

// casePattern matches `        TARGET(opname) {\n ... \n        }` blocks,
// mirroring build.py's `r"(?s:\n( {8}TARGET\((\w+)\) \{\n.*?\n {8}\})\n)"`.
var casePattern = regexp.MustCompile(`(?s)\n( {8}TARGET\((\w+)\) \{\n.*?\n {8}\})\n`)

// Extract parses generatedCases (the text of a file like
// Python/generated_cases.c.h) and returns a map from opcode name to its
// case body, reindented from 8-space to 4-space indentation.
func Extract(generatedCases string) map[string]string {
	cases := make(map[string]string)

	for _, match := range casePattern.FindAllStringSubmatch(generatedCases, -1) {
		body, opname := match[1], match[2]
		cases[opname] = reindent(body)
	}

	return cases
}

func reindent(body string) string {
	return strings.ReplaceAll(body, strings.Repeat(" ", 8), strings.Repeat(" ", 4))
}
