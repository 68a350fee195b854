package stencil

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/justin-jit/stencilgen/pkg/objreader"
)

// Format selects which section walker handles a Parser's input.
type Format int

const (
	FormatELF Format = iota
	FormatMachO
	FormatCOFF
)

// pendingRelocation is a relocation queued for phase-2 processing, paired
// with the base offset of the section it was found on. Mirrors
// relocations_todo in §3.
type pendingRelocation struct {
	base       int
	relocation objreader.Section
}

// Parser is the transient per-object-file state described in §3. It is
// constructed once per object file, mutated only during Parse, and
// discarded after producing one immutable Stencil.
type Parser struct {
	Format       Format
	SymbolPrefix string
	Logger       *slog.Logger

	body         []byte
	bodySymbols  map[string]int
	bodyOffsets  map[int]int
	dupes        map[string]bool
	gotEntries   []string
	todo         []pendingRelocation
}

// NewParser creates parser state for one object file. symbolPrefix is the
// per-platform string stripped from every symbol name (e.g. a leading "_"
// on Mach-O and 32-bit COFF, per §3).
func NewParser(format Format, symbolPrefix string, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}

	return &Parser{
		Format:       format,
		SymbolPrefix: symbolPrefix,
		Logger:       logger,
		bodySymbols:  make(map[string]int),
		bodyOffsets:  make(map[int]int),
		dupes:        make(map[string]bool),
	}
}

// stripPrefix removes the parser's symbol_prefix from name, matching §3's
// "per-platform string stripped from each symbol name".
func (p *Parser) stripPrefix(name string) string {
	return strings.TrimPrefix(name, p.SymbolPrefix)
}

// defineSymbol records name at offset, tracking duplicates per §3/invariant
// 2 ("Holes never reference a symbol in dupes").
func (p *Parser) defineSymbol(name string, offset int) {
	name = p.stripPrefix(name)
	if _, exists := p.bodySymbols[name]; exists {
		p.dupes[name] = true
	}
	p.bodySymbols[name] = offset
}

// queueRelocation defers relocation lowering to phase 2, since relocations
// may reference sections not yet walked.
func (p *Parser) queueRelocation(base int, relocation objreader.Section) {
	p.todo = append(p.todo, pendingRelocation{base: base, relocation: relocation})
}

// Parse walks every section (dispatching on p.Format), then lowers every
// queued relocation, assembles the GOT appendix, and returns the resulting
// Stencil. entry is the distinguished entry offset; spec.md §9 leaves
// selecting anything other than 0 an open question, so every caller in this
// repository passes 0.
func (p *Parser) Parse(sections []objreader.Section, entry int) (Stencil, error) {
	for _, section := range sections {
		var err error
		switch p.Format {
		case FormatELF:
			err = p.walkELFSection(section)
		case FormatMachO:
			err = p.walkMachOSection(section)
		case FormatCOFF:
			err = p.walkCOFFSection(section)
		default:
			err = fmt.Errorf("stencil: unknown format %v", p.Format)
		}
		if err != nil {
			return Stencil{}, err
		}
	}

	return p.assemble(entry)
}

func sectionString(section objreader.Section, key string) (string, bool) {
	v, ok := section[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func sectionNested(section objreader.Section, key, field string) (any, bool) {
	v, ok := section[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	f, ok := m[field]
	return f, ok
}

func sectionNestedString(section objreader.Section, key, field string) (string, bool) {
	v, ok := sectionNested(section, key, field)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func sectionInt(section objreader.Section, key string) (int, bool) {
	v, ok := section[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return int(f), ok
}

func flagNames(section objreader.Section, key string) map[string]bool {
	names := make(map[string]bool)

	v, ok := section[key]
	if !ok {
		return names
	}
	m, ok := v.(map[string]any)
	if !ok {
		return names
	}
	list, ok := m["Flags"].([]any)
	if !ok {
		return names
	}
	for _, f := range list {
		fm, ok := f.(map[string]any)
		if !ok {
			continue
		}
		name, ok := fm["Name"].(string)
		if ok {
			names[name] = true
		}
	}

	return names
}

func sectionBytes(section objreader.Section) []byte {
	data, ok := section["SectionData"].(map[string]any)
	if !ok {
		return nil
	}
	rawBytes, ok := data["Bytes"].([]any)
	if !ok {
		return nil
	}
	out := make([]byte, len(rawBytes))
	for i, v := range rawBytes {
		out[i] = byte(int(v.(float64)))
	}
	return out
}

func sectionSymbols(section objreader.Section) []objreader.Section {
	raw, ok := section["Symbols"].([]any)
	if !ok {
		return nil
	}
	out := make([]objreader.Section, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		sym, ok := m["Symbol"].(map[string]any)
		if !ok {
			continue
		}
		out = append(out, sym)
	}
	return out
}

func sectionRelocations(section objreader.Section) []objreader.Section {
	raw, ok := section["Relocations"].([]any)
	if !ok {
		return nil
	}
	out := make([]objreader.Section, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		rel, ok := m["Relocation"].(map[string]any)
		if !ok {
			continue
		}
		out = append(out, rel)
	}
	return out
}
