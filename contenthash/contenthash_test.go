package contenthash

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDIsStableAndHex32(t *testing.T) {
	id := ID("/srv/share/Music/track.mp3")
	assert.Len(t, id, 32)
	assert.Equal(t, id, ID("/srv/share/Music/track.mp3"))
}

func TestIDDiffersForDifferentPaths(t *testing.T) {
	assert.NotEqual(t, ID("/a"), ID("/b"))
}

func TestPathIDCanonicalizesRelativePaths(t *testing.T) {
	abs, err := filepath.Abs("share/track.mp3")
	assert.NoError(t, err)
	assert.Equal(t, ID(abs), PathID("share/track.mp3"))
}
