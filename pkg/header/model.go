package header

import (
	"fmt"
	"strings"

	"github.com/justin-jit/stencilgen/internal/xutil"
	"github.com/justin-jit/stencilgen/pkg/stencil"
)

// HoleEntry is a patch site resolved to a well-known HoleKind at build
// time, per §4.H.
type HoleEntry struct {
	Offset int
	Addend int64
	Kind   string
	PC     stencil.PC
}

// LoadEntry is a patch site requiring a runtime symbol lookup, per §4.H.
type LoadEntry struct {
	Offset int
	Addend int64
	Symbol string
	PC     stencil.PC
}

// OpcodeStencil is one opcode's (or the trampoline's) rendered stencil.
type OpcodeStencil struct {
	Name  string
	Bytes []byte
	Holes []HoleEntry
	Loads []LoadEntry
}

// Document is everything the header template needs to render the full
// generated file.
type Document struct {
	Kinds      []string
	Opcodes    []OpcodeStencil
	Trampoline OpcodeStencil
}

// Build classifies every stencil's holes into well-known Holes versus
// external Loads and assembles a Document ready for rendering. trampoline
// must be present under the key "trampoline".
func Build(stencils map[string]stencil.Stencil) (Document, error) {
	trampoline, ok := stencils["trampoline"]
	if !ok {
		return Document{}, fmt.Errorf("header: missing trampoline stencil")
	}

	names := xutil.SortedKeys(stencils)

	kindSet := make(map[string]bool, len(stencil.WellKnownNames))
	for _, name := range stencil.WellKnownNames {
		kindSet["HOLE_"+name] = true
	}
	kinds := xutil.SortedKeys(kindSet)

	opcodes := make([]OpcodeStencil, 0, len(names))
	for _, name := range names {
		if name == "trampoline" {
			continue
		}
		op, err := renderOpcode(name, stencils[name], kindSet)
		if err != nil {
			return Document{}, err
		}
		opcodes = append(opcodes, op)
	}

	trampolineOp, err := renderOpcode("trampoline", trampoline, kindSet)
	if err != nil {
		return Document{}, err
	}

	return Document{Kinds: kinds, Opcodes: opcodes, Trampoline: trampolineOp}, nil
}

func renderOpcode(name string, s stencil.Stencil, kindSet map[string]bool) (OpcodeStencil, error) {
	if len(s.Body) == 0 {
		return OpcodeStencil{}, fmt.Errorf("header: opcode %s has an empty stencil body", name)
	}

	var holes []HoleEntry
	var loads []LoadEntry
	for _, hole := range s.Holes {
		if strings.HasPrefix(hole.Symbol, stencil.SymbolPrefix) {
			kind := "HOLE_" + strings.TrimPrefix(hole.Symbol, stencil.SymbolPrefix)
			if !kindSet[kind] {
				return OpcodeStencil{}, fmt.Errorf("header: opcode %s: unrecognized well-known symbol %q", name, hole.Symbol)
			}
			holes = append(holes, HoleEntry{Offset: hole.Offset, Addend: hole.Addend, Kind: kind, PC: hole.PC})
			continue
		}
		loads = append(loads, LoadEntry{Offset: hole.Offset, Addend: hole.Addend, Symbol: hole.Symbol, PC: hole.PC})
	}

	if len(holes) == 0 {
		return OpcodeStencil{}, fmt.Errorf("header: opcode %s produced no well-known holes", name)
	}

	return OpcodeStencil{Name: name, Bytes: s.Body, Holes: holes, Loads: loads}, nil
}
