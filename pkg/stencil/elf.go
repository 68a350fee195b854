package stencil

import (
	"fmt"

	"github.com/justin-jit/stencilgen/pkg/objreader"
)

// walkELFSection dispatches on the section Type, per §4.E's ELF walker.
func (p *Parser) walkELFSection(section objreader.Section) error {
	sectionType, _ := sectionNestedString(section, "Type", "Value")

	switch sectionType {
	case "SHT_RELA":
		flags := flagNames(section, "Flags")
		if !flags["SHF_INFO_LINK"] {
			return fmt.Errorf("stencil: SHT_RELA section missing SHF_INFO_LINK: %v", section)
		}

		info, _ := sectionInt(section, "Info")
		base, ok := p.bodyOffsets[info]
		if !ok {
			return fmt.Errorf("stencil: SHT_RELA section references unknown linked section %d", info)
		}

		if len(sectionSymbols(section)) != 0 {
			return fmt.Errorf("stencil: SHT_RELA section unexpectedly carries symbols")
		}

		for _, relocation := range sectionRelocations(section) {
			p.queueRelocation(base, relocation)
		}

	case "SHT_PROGBITS":
		index, _ := sectionInt(section, "Index")
		before := len(p.body)
		p.bodyOffsets[index] = before

		flags := flagNames(section, "Flags")
		if !flags["SHF_ALLOC"] {
			return nil
		}

		// The SHF_MERGE-only case is appended identically today, per
		// spec.md §4.E ("treated as merge-eligible").
		p.body = append(p.body, sectionBytes(section)...)

		if len(sectionRelocations(section)) != 0 {
			return fmt.Errorf("stencil: SHT_PROGBITS section unexpectedly carries relocations")
		}

		for _, symbol := range sectionSymbols(section) {
			name, _ := sectionNestedString(symbol, "Name", "Value")
			value, _ := sectionInt(symbol, "Value")
			p.defineSymbol(name, before+value)
		}

	case "SHT_LLVM_ADDRSIG", "SHT_NULL", "SHT_STRTAB", "SHT_SYMTAB":
		// Ignored, per §4.E.

	default:
		return fmt.Errorf("stencil: unsupported ELF section type %q", sectionType)
	}

	return nil
}
