package header

import (
	"fmt"
	"regexp"
)

// Stats summarizes one opcode's stencil, the Go-native analogue of the
// original build.py toolchain's disassemble.py sanity check: instead of
// disassembling the body bytes, it counts them and flags stencils that
// carry no well-known hole at all.
type Stats struct {
	Name       string
	BodyBytes  int
	HoleCount  int
	LoadCount  int
	EmptyHoles bool
}

// ComputeStats reports one Stats entry per opcode plus the trampoline, in
// the same order as doc.Opcodes.
func ComputeStats(doc Document) []Stats {
	stats := make([]Stats, 0, len(doc.Opcodes)+1)
	for _, op := range doc.Opcodes {
		stats = append(stats, statsFor(op))
	}
	stats = append(stats, statsFor(doc.Trampoline))
	return stats
}

func statsFor(op OpcodeStencil) Stats {
	return Stats{
		Name:       op.Name,
		BodyBytes:  len(op.Bytes),
		HoleCount:  len(op.Holes),
		LoadCount:  len(op.Loads),
		EmptyHoles: len(op.Holes) == 0,
	}
}

var (
	stencilBytesPattern = regexp.MustCompile(`(?s)static unsigned char (\w+)_stencil_bytes\[\] = \{(.*?)\};`)
	stencilHolesPattern = regexp.MustCompile(`(?s)static const Hole (\w+)_stencil_holes\[\] = \{(.*?)\};`)
	stencilLoadsPattern = regexp.MustCompile(`(?s)static const SymbolLoad (\w+)_stencil_loads\[\] = \{(.*?)\};`)
	holeEntryPattern    = regexp.MustCompile(`\.offset\s*=`)
	loadSentinelPattern = regexp.MustCompile(`\.symbol\s*=\s*NULL`)
	byteLiteralPattern  = regexp.MustCompile(`0x[0-9A-Fa-f]{2}`)
)

// ParseHeaderStats re-derives per-opcode Stats from a previously generated
// header's text, without re-running the build. It matches the emitter's
// own naming convention (`<name>_stencil_bytes`, `..._holes`, `..._loads`)
// rather than parsing full C, mirroring build.py's disassemble.py script
// reading its own generated output back for a sanity check.
func ParseHeaderStats(source string) ([]Stats, error) {
	byteCounts := map[string]int{}
	for _, m := range stencilBytesPattern.FindAllStringSubmatch(source, -1) {
		byteCounts[m[1]] = len(byteLiteralPattern.FindAllString(m[2], -1))
	}

	holeCounts := map[string]int{}
	for _, m := range stencilHolesPattern.FindAllStringSubmatch(source, -1) {
		holeCounts[m[1]] = len(holeEntryPattern.FindAllString(m[2], -1))
	}

	loadCounts := map[string]int{}
	for _, m := range stencilLoadsPattern.FindAllStringSubmatch(source, -1) {
		total := len(holeEntryPattern.FindAllString(m[2], -1))
		sentinels := len(loadSentinelPattern.FindAllString(m[2], -1))
		loadCounts[m[1]] = total - sentinels
	}

	if len(byteCounts) == 0 {
		return nil, fmt.Errorf("header: no stencil bodies found")
	}

	stats := make([]Stats, 0, len(byteCounts))
	for name, bytes := range byteCounts {
		stats = append(stats, Stats{
			Name:       name,
			BodyBytes:  bytes,
			HoleCount:  holeCounts[name],
			LoadCount:  loadCounts[name],
			EmptyHoles: holeCounts[name] == 0,
		})
	}
	return stats, nil
}
