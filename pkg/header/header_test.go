package header_test

import (
	"testing"

	"github.com/justin-jit/stencilgen/pkg/header"
	"github.com/justin-jit/stencilgen/pkg/stencil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStencils() map[string]stencil.Stencil {
	return map[string]stencil.Stencil{
		"trampoline": {
			Body: []byte{0x90},
			Holes: []stencil.Hole{
				{Symbol: stencil.BaseSymbol, Offset: 0, Addend: 0, PC: stencil.Absolute},
			},
		},
		"NOP": {
			Body: []byte{0x90, 0x90},
			Holes: []stencil.Hole{
				{Symbol: stencil.BaseSymbol, Offset: 0, Addend: 0, PC: stencil.Absolute},
				{Symbol: "PyLong_FromLong", Offset: 1, Addend: 4, PC: stencil.PCRelative},
			},
		},
	}
}

func TestBuildClassifiesHolesAndLoads(t *testing.T) {
	doc, err := header.Build(sampleStencils())
	require.NoError(t, err)

	require.Len(t, doc.Opcodes, 1)
	assert.Equal(t, "NOP", doc.Opcodes[0].Name)
	require.Len(t, doc.Opcodes[0].Holes, 1)
	assert.Equal(t, "HOLE_base", doc.Opcodes[0].Holes[0].Kind)
	require.Len(t, doc.Opcodes[0].Loads, 1)
	assert.Equal(t, "PyLong_FromLong", doc.Opcodes[0].Loads[0].Symbol)

	assert.Equal(t, "trampoline", doc.Trampoline.Name)
	assert.Contains(t, doc.Kinds, "HOLE_base")
	assert.Contains(t, doc.Kinds, "HOLE_continue")
}

func TestBuildMissingTrampolineFails(t *testing.T) {
	_, err := header.Build(map[string]stencil.Stencil{})
	assert.Error(t, err)
}

func TestBuildRejectsStencilWithoutWellKnownHole(t *testing.T) {
	stencils := sampleStencils()
	stencils["BAD"] = stencil.Stencil{
		Body: []byte{0x01},
		Holes: []stencil.Hole{
			{Symbol: "external_only", Offset: 0, Addend: 0, PC: stencil.Absolute},
		},
	}
	_, err := header.Build(stencils)
	assert.Error(t, err)
}

func TestGenerateProducesExpectedLayout(t *testing.T) {
	doc, err := header.Build(sampleStencils())
	require.NoError(t, err)

	gen, err := header.NewGenerator()
	require.NoError(t, err)

	out, err := gen.Generate(doc)
	require.NoError(t, err)

	assert.Contains(t, out, "typedef enum {")
	assert.Contains(t, out, "HOLE_base,")
	assert.Contains(t, out, "static unsigned char NOP_stencil_bytes[] = {")
	assert.Contains(t, out, "0x90, 0x90,")
	assert.Contains(t, out, ".kind = HOLE_base")
	assert.Contains(t, out, ".symbol = \"PyLong_FromLong\"")
	assert.Contains(t, out, "static const Stencil trampoline_stencil = INIT_STENCIL(trampoline);")
	assert.Contains(t, out, "[NOP] = INIT_STENCIL(NOP),")
	assert.Contains(t, out, "#define GET_PATCHES() {")
	assert.Contains(t, out, "INIT_HOLE(base),")
}
