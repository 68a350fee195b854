package casetable_test

import (
	"testing"

	"github.com/justin-jit/stencilgen/pkg/casetable"
	"github.com/stretchr/testify/assert"
)

const sample = `
        TARGET(NOP) {
            DISPATCH();
        }

        TARGET(LOAD_FAST) {
            PyObject *value = GETLOCAL(oparg);
            stack_pointer[0] = value;
        }
`

func TestExtract(t *testing.T) {
	cases := casetable.Extract(sample)

	assert.Len(t, cases, 2)
	assert.Contains(t, cases, "NOP")
	assert.Contains(t, cases, "LOAD_FAST")

	// Reindented from 8 to 4 spaces.
	assert.Contains(t, cases["NOP"], "    TARGET(NOP) {")
	assert.Contains(t, cases["NOP"], "        DISPATCH();")
	assert.NotContains(t, cases["NOP"], "            DISPATCH();")
}

func TestExtractEmpty(t *testing.T) {
	assert.Empty(t, casetable.Extract(""))
}
