package stencil

import (
	"fmt"

	"github.com/justin-jit/stencilgen/pkg/objreader"
)

// walkMachOSection pads the body to the section's address, appends the
// section bytes, and records the section name and its symbols, per §4.E's
// Mach-O walker.
func (p *Parser) walkMachOSection(section objreader.Section) error {
	address, _ := sectionInt(section, "Address")
	if address < len(p.body) {
		return fmt.Errorf("stencil: Mach-O section address %d precedes current body length %d", address, len(p.body))
	}

	p.body = append(p.body, make([]byte, address-len(p.body))...)

	index, _ := sectionInt(section, "Index")
	p.bodyOffsets[index] = address
	p.body = append(p.body, sectionBytes(section)...)

	name, _ := sectionNestedString(section, "Name", "Value")
	// The section itself is recorded as a symbol at offset 0, not at its
	// own address: a stencil has exactly one code section in practice, so
	// this is the stencil's base by construction.
	p.defineSymbol(name, 0)

	for _, symbol := range sectionSymbols(section) {
		symName, _ := sectionNestedString(symbol, "Name", "Value")
		value, _ := sectionInt(symbol, "Value")
		p.defineSymbol(symName, value)
	}

	for _, relocation := range sectionRelocations(section) {
		p.queueRelocation(address, relocation)
	}

	return nil
}
