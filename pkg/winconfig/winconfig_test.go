package winconfig_test

import (
	"testing"

	"github.com/justin-jit/stencilgen/pkg/winconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDebugWin32(t *testing.T) {
	s, err := winconfig.Parse("Debug|Win32")
	require.NoError(t, err)
	assert.Equal(t, "_", s.SymbolPrefix())
	assert.ElementsMatch(t, []string{"-D_DEBUG", "-m32"}, s.ExtraCFLAGS())
}

func TestParseDebugX64(t *testing.T) {
	s, err := winconfig.Parse("Debug|x64")
	require.NoError(t, err)
	assert.Equal(t, "", s.SymbolPrefix())
	assert.ElementsMatch(t, []string{"-D_DEBUG"}, s.ExtraCFLAGS())
}

func TestParseReleaseWin32OmitsDebugFlag(t *testing.T) {
	s, err := winconfig.Parse("Release|Win32")
	require.NoError(t, err)
	assert.Equal(t, "_", s.SymbolPrefix())
	assert.ElementsMatch(t, []string{"-m32"}, s.ExtraCFLAGS())
}

func TestParseReleaseX64HasNoExtraFlags(t *testing.T) {
	s, err := winconfig.Parse("Release|x64")
	require.NoError(t, err)
	assert.Equal(t, "", s.SymbolPrefix())
	assert.Empty(t, s.ExtraCFLAGS())
}

func TestParsePGInstrumentAndPGUpdate(t *testing.T) {
	for _, raw := range []string{"PGInstrument|Win32", "PGUpdate|Win32", "PGInstrument|x64", "PGUpdate|x64"} {
		_, err := winconfig.Parse(raw)
		assert.NoError(t, err, raw)
	}
}

func TestParseRejectsUnknownConfiguration(t *testing.T) {
	_, err := winconfig.Parse("Hotfix|Win32")
	assert.Error(t, err)
}
