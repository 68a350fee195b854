package stencil

import (
	"encoding/binary"
	"fmt"

	"github.com/justin-jit/stencilgen/pkg/objreader"
)

// relocationType reads relocation["Type"]["Value"].
func relocationType(relocation objreader.Section) string {
	t, _ := sectionNestedString(relocation, "Type", "Value")
	return t
}

func relocationOffset(relocation objreader.Section) (int, bool) {
	return sectionInt(relocation, "Offset")
}

// relocationSymbol reads a symbol field that may be either a bare string
// (COFF) or a {"Value": ...} wrapper (ELF, Mach-O).
func relocationSymbol(relocation objreader.Section, key string) (string, bool) {
	if s, ok := sectionString(relocation, key); ok {
		return s, true
	}
	return sectionNestedString(relocation, key, "Value")
}

func relocationAddend(relocation objreader.Section) (int64, bool) {
	v, ok := relocation["Addend"]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return int64(f), ok
}

func readImplicit(body []byte, offset, width int) (int64, error) {
	if offset < 0 || offset+width > len(body) {
		return 0, fmt.Errorf("stencil: relocation offset %d+%d exceeds body length %d", offset, width, len(body))
	}

	switch width {
	case 4:
		return int64(binary.LittleEndian.Uint32(body[offset : offset+4])), nil
	case 8:
		return int64(binary.LittleEndian.Uint64(body[offset : offset+8])), nil
	default:
		return 0, fmt.Errorf("stencil: unsupported patch width %d", width)
	}
}

func zeroSite(body []byte, offset, width int) {
	for i := 0; i < width; i++ {
		body[offset+i] = 0
	}
}

func writeLittleEndian64(body []byte, offset int, value int64) {
	binary.LittleEndian.PutUint64(body[offset:offset+8], uint64(value))
}

// lowerRelocation translates one relocation into zero or more holes,
// dispatching on (Type, shape) per §4.F's table. base is the section-base
// offset already accumulated into p.body_offsets for the linked/owning
// section.
func (p *Parser) lowerRelocation(base int, relocation objreader.Section) ([]Hole, error) {
	kind := relocationType(relocation)
	rawOffset, hasOffset := relocationOffset(relocation)
	if !hasOffset {
		return nil, fmt.Errorf("stencil: relocation missing Offset: %v", relocation)
	}
	offset := rawOffset + base

	switch kind {
	case "IMAGE_REL_AMD64_ADDR64":
		symbol, ok := relocationSymbol(relocation, "Symbol")
		if !ok {
			return nil, p.unsupported(relocation)
		}
		addend, err := readImplicit(p.body, offset, 8)
		if err != nil {
			return nil, err
		}
		zeroSite(p.body, offset, 8)
		return []Hole{{Symbol: p.stripPrefix(symbol), Offset: offset, Addend: addend, PC: Absolute}}, nil

	case "IMAGE_REL_I386_DIR32":
		symbol, ok := relocationSymbol(relocation, "Symbol")
		if !ok {
			return nil, p.unsupported(relocation)
		}
		addend, err := readImplicit(p.body, offset, 4)
		if err != nil {
			return nil, err
		}
		zeroSite(p.body, offset, 4)
		return []Hole{{Symbol: stripOneLeadingUnderscore(symbol), Offset: offset, Addend: addend, PC: Absolute}}, nil

	case "R_X86_64_64":
		symbol, ok := relocationSymbol(relocation, "Symbol")
		addend, hasAddend := relocationAddend(relocation)
		if !ok || !hasAddend {
			return nil, p.unsupported(relocation)
		}
		if err := p.checkImplicitZero(offset, 8, relocation); err != nil {
			return nil, err
		}
		return []Hole{{Symbol: p.stripPrefix(symbol), Offset: offset, Addend: addend, PC: Absolute}}, nil

	case "R_X86_64_GOT64":
		symbol, ok := relocationSymbol(relocation, "Symbol")
		addend, hasAddend := relocationAddend(relocation)
		if !ok || !hasAddend {
			return nil, p.unsupported(relocation)
		}
		if err := p.checkImplicitZero(offset, 8, relocation); err != nil {
			return nil, err
		}
		index := p.internGOTEntry(symbol)
		writeLittleEndian64(p.body, offset, addend+int64(index)*8)
		return nil, nil

	case "R_X86_64_GOTOFF64":
		symbol, ok := relocationSymbol(relocation, "Symbol")
		addend, hasAddend := relocationAddend(relocation)
		if !ok || !hasAddend {
			return nil, p.unsupported(relocation)
		}
		if err := p.checkImplicitZero(offset, 8, relocation); err != nil {
			return nil, err
		}
		// The GOT base is at the end of the body, per §4.F.
		addend += int64(offset - len(p.body))
		return []Hole{{Symbol: p.stripPrefix(symbol), Offset: offset, Addend: addend, PC: PCRelative}}, nil

	case "R_X86_64_GOTPC64":
		symbol, ok := relocationSymbol(relocation, "Symbol")
		addend, hasAddend := relocationAddend(relocation)
		if !ok || symbol != "_GLOBAL_OFFSET_TABLE_" || !hasAddend {
			return nil, p.unsupported(relocation)
		}
		if err := p.checkImplicitZero(offset, 8, relocation); err != nil {
			return nil, err
		}
		addend += int64(len(p.body) - offset)
		writeLittleEndian64(p.body, offset, addend)
		return nil, nil

	case "R_X86_64_PC32":
		symbol, ok := relocationSymbol(relocation, "Symbol")
		addend, hasAddend := relocationAddend(relocation)
		if !ok || !hasAddend {
			return nil, p.unsupported(relocation)
		}
		if err := p.checkImplicitZero(offset, 4, relocation); err != nil {
			return nil, err
		}
		return []Hole{{Symbol: p.stripPrefix(symbol), Offset: offset, Addend: addend, PC: PCRelative}}, nil

	case "X86_64_RELOC_UNSIGNED":
		length, hasLength := sectionInt(relocation, "Length")
		pcrel, hasPCRel := sectionInt(relocation, "PCRel")
		if !hasLength || length != 3 || !hasPCRel || pcrel != 0 {
			return nil, p.unsupported(relocation)
		}

		addend, err := readImplicit(p.body, offset, 8)
		if err != nil {
			return nil, err
		}
		zeroSite(p.body, offset, 8)

		if section, ok := relocationSymbol(relocation, "Section"); ok {
			return []Hole{{Symbol: stripOneLeadingUnderscore(section), Offset: offset, Addend: addend, PC: Absolute}}, nil
		}
		if symbol, ok := relocationSymbol(relocation, "Symbol"); ok {
			return []Hole{{Symbol: stripOneLeadingUnderscore(symbol), Offset: offset, Addend: addend, PC: Absolute}}, nil
		}
		return nil, p.unsupported(relocation)

	default:
		return nil, p.unsupported(relocation)
	}
}

func (p *Parser) unsupported(relocation objreader.Section) error {
	return fmt.Errorf("stencil: unsupported relocation: %#v", relocation)
}

// checkImplicitZero logs a warning (rather than failing) when a relocation
// kind whose addend is explicit still has a nonzero implicit value at its
// patch site — spec.md §9 flags this as deliberately lenient.
func (p *Parser) checkImplicitZero(offset, width int, relocation objreader.Section) error {
	what, err := readImplicit(p.body, offset, width)
	if err != nil {
		return err
	}
	if what != 0 {
		p.Logger.Warn("nonzero implicit addend at explicit-addend relocation site",
			"offset", offset, "width", width, "implicit", what, "relocation", relocation)
	}
	return nil
}

func stripOneLeadingUnderscore(symbol string) string {
	if len(symbol) > 0 && symbol[0] == '_' {
		return symbol[1:]
	}
	return symbol
}

// internGOTEntry returns symbol's index into got_entries, appending it if
// this is its first reference.
func (p *Parser) internGOTEntry(symbol string) int {
	for i, s := range p.gotEntries {
		if s == symbol {
			return i
		}
	}
	p.gotEntries = append(p.gotEntries, symbol)
	return len(p.gotEntries) - 1
}
