package web

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticAssets(t *testing.T) {
	for _, name := range []string{"map.js", "map.css"} {
		_, err := fs.Stat(Static(), name)
		assert.NoError(t, err, name)
	}
}

// Overlays are only redeclared on map-loaded, so every style swap has to
// reload the style fully and fire style.load.
func TestMapScriptReloadsStyleOnSwap(t *testing.T) {
	src, err := fs.ReadFile(Static(), "map.js")
	require.NoError(t, err)
	js := string(src)

	assert.Contains(t, js, "map.setStyle(cmd.style, { diff: false })")
	assert.NotContains(t, js, "map.setStyle(cmd.style);")
	assert.Contains(t, js, "emit('map-loaded')")
	assert.Contains(t, js, "if (!styleFailed(e)) return;")
	assert.Contains(t, js, "if (e.sourceId || e.tile) return false;")
}

func TestTemplatesParse(t *testing.T) {
	for _, pattern := range TemplatePatterns {
		matches, err := fs.Glob(Templates, pattern)
		require.NoError(t, err)
		assert.NotEmpty(t, matches, pattern)
	}
}
