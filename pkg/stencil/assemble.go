package stencil

import (
	"fmt"
	"sort"
)

// assemble lowers every queued relocation, rewrites holes that turn out to
// target a body-local symbol into offsets from BaseSymbol, appends the GOT
// appendix, and returns the finished, immutable Stencil. Grounded on
// ObjectParser.parse()'s tail and handle_one_relocation's body-symbol
// rewrite.
func (p *Parser) assemble(entry int) (Stencil, error) {
	var holes []Hole

	for _, pending := range p.todo {
		lowered, err := p.lowerRelocation(pending.base, pending.relocation)
		if err != nil {
			return Stencil{}, err
		}
		holes = append(holes, lowered...)
	}

	for i, hole := range holes {
		if p.dupes[hole.Symbol] {
			return Stencil{}, fmt.Errorf("stencil: hole at offset %d targets duplicate symbol %q", hole.Offset, hole.Symbol)
		}
		offset, isBodyLocal := p.bodySymbols[hole.Symbol]
		if !isBodyLocal {
			continue
		}
		holes[i] = Hole{
			Symbol: BaseSymbol,
			Offset: hole.Offset,
			Addend: hole.Addend + int64(offset) - int64(entry),
			PC:     hole.PC,
		}
	}

	gotBase := len(p.body)
	p.body = append(p.body, make([]byte, 8*len(p.gotEntries))...)
	for i, symbol := range p.gotEntries {
		holes = append(holes, Hole{Symbol: symbol, Offset: gotBase + 8*i, Addend: 0, PC: Absolute})
	}

	sort.SliceStable(holes, func(i, j int) bool { return holes[i].Offset < holes[j].Offset })

	return Stencil{Body: p.body, Holes: holes}, nil
}
