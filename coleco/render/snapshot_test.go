package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanagra/coleco/vdp"
)

func TestSaveFramePNGToDirWritesAFile(t *testing.T) {
	fb := vdp.NewFrameBuffer()
	fb.Set(10, 10, 0xFFAABBCC)

	dir := t.TempDir()
	require.NoError(t, SaveFramePNGToDir(fb, "snapshot_test", dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "snapshot_test")
	assert.Equal(t, ".png", filepath.Ext(entries[0].Name()))
}

func TestArgbComponentsSplitsChannels(t *testing.T) {
	r, g, b, a := argbComponents(0xFFAABBCC)
	assert.Equal(t, uint8(0xFF), a)
	assert.Equal(t, uint8(0xAA), r)
	assert.Equal(t, uint8(0xBB), g)
	assert.Equal(t, uint8(0xCC), b)
}
