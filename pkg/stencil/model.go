// Package stencil implements the spec's core data model and lowering
// pipeline: the §3 data model (Hole, Stencil, parser state), the §4.E
// per-format section walkers, the §4.F relocation lowering switch, and the
// §4.G stencil assembly step.
package stencil

// PC selects absolute versus PC-relative addressing for a Hole, per §3.
type PC int

const (
	// Absolute means the patcher writes the resolved address as-is.
	Absolute PC = 0
	// PCRelative means the patcher subtracts the patch-site address.
	PCRelative PC = -1
)

// Hole is an immutable patch-site record, per §3.
type Hole struct {
	Symbol string
	Offset int
	Addend int64
	PC     PC
}

// Stencil is the immutable output of parsing one object file: a body image
// plus its sorted holes, per §3.
type Stencil struct {
	Body  []byte
	Holes []Hole
}

// SymbolPrefix marks a symbol as well-known rather than requiring runtime
// lookup: the C template declares its well-known entry points and slots
// with this prefix (e.g. "_stencil_base"), and the header emitter (§4.H)
// strips it to recover the HoleKind name.
const SymbolPrefix = "_stencil_"

// WellKnownNames are the symbolic targets the header emitter (§4.H)
// resolves to a HoleKind rather than a runtime symbol lookup, after
// stripping SymbolPrefix.
var WellKnownNames = []string{
	"base",
	"continue",
	"next_instr",
	"next_trace",
	"oparg_plus_one",
}

// BaseSymbol is the well-known symbol meaning "the runtime address at which
// this stencil is placed" (§3 invariant 3).
const BaseSymbol = SymbolPrefix + "base"
