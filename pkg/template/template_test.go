package template_test

import (
	"testing"

	"github.com/justin-jit/stencilgen/pkg/template"
	"github.com/stretchr/testify/assert"
)

func TestSplice(t *testing.T) {
	out := template.Splice("before\n%s\nafter\n", "BODY")
	assert.Equal(t, "before\nBODY\nafter\n", out)
}

func TestApplyTOSCachingDefaultStripsEverything(t *testing.T) {
	src := "a = stack_pointer[-1];\nb = _tos1 + _tos2;\nkeep me\n"
	out := template.ApplyTOSCaching(src, 0)
	assert.Equal(t, "a = stack_pointer[-1];\nkeep me\n", out)
}

func TestApplyTOSCachingDepth(t *testing.T) {
	src := "x = stack_pointer[-1];\ny = stack_pointer[-2];\nz = _tos3 + 1;\nkeep\n"
	out := template.ApplyTOSCaching(src, 2)
	assert.Equal(t, "x = _tos1;\ny = _tos2;\nkeep\n", out)
}

func TestApplyGHCCallingConvention(t *testing.T) {
	ir := "define i32 @_stencil_entry() {\ndefine i32 @_stencil_continue() {\ndefine i32 @other() {\n"
	out := template.ApplyGHCCallingConvention(ir)
	assert.Contains(t, out, "define ghccc i32 @_stencil_entry() {")
	assert.Contains(t, out, "define ghccc i32 @_stencil_continue() {")
	assert.Contains(t, out, "define i32 @other() {")
}
