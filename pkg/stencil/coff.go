package stencil

import (
	"github.com/justin-jit/stencilgen/pkg/objreader"
)

// acceptCOFFSection implements §4.E's COFF acceptance rule: read-only data
// sections, plus COMDAT sections that are also read-only.
func acceptCOFFSection(flags map[string]bool) bool {
	if flags["IMAGE_SCN_LINK_COMDAT"] && flags["IMAGE_SCN_MEM_READ"] {
		return true
	}
	return flags["IMAGE_SCN_MEM_READ"] && !flags["IMAGE_SCN_MEM_WRITE"] && !flags["IMAGE_SCN_MEM_EXECUTE"]
}

// walkCOFFSection appends accepted sections' bytes and records their
// symbols and relocations, per §4.E's COFF walker.
func (p *Parser) walkCOFFSection(section objreader.Section) error {
	if _, hasData := section["SectionData"]; !hasData {
		return nil
	}

	flags := flagNames(section, "Characteristics")
	if !acceptCOFFSection(flags) {
		return nil
	}

	number, _ := sectionInt(section, "Number")
	before := len(p.body)
	p.bodyOffsets[number] = before
	p.body = append(p.body, sectionBytes(section)...)

	for _, symbol := range sectionSymbols(section) {
		name, _ := sectionString(symbol, "Name")
		value, _ := sectionInt(symbol, "Value")
		p.defineSymbol(name, before+value)
	}

	for _, relocation := range sectionRelocations(section) {
		p.queueRelocation(before, relocation)
	}

	return nil
}
