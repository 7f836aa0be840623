package dms

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanop/yada/cds"
	"github.com/stefanop/yada/probe"
)

func TestIsHiddenPath(t *testing.T) {
	assert.True(t, isHiddenPath("/a/b/.hidden"))
	assert.False(t, isHiddenPath("/a/b/visible"))
}

func TestIgnorePathHonorsIgnoreList(t *testing.T) {
	srv := &Server{IgnorePaths: []string{"lost+found"}}
	ignore, err := srv.ignorePath("/mnt/share/lost+found/orphan")
	require.NoError(t, err)
	assert.True(t, ignore)
}

func TestIgnorePathAllowsOrdinaryPaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "film.mp4")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	srv := &Server{IgnoreHidden: true, IgnoreUnreadable: true}
	ignore, err := srv.ignorePath(path)
	require.NoError(t, err)
	assert.False(t, ignore)
}

func TestIgnorePathRejectsHidden(t *testing.T) {
	srv := &Server{IgnoreHidden: true}
	ignore, err := srv.ignorePath("/mnt/share/.git")
	require.NoError(t, err)
	assert.True(t, ignore)
}

type fakeProber struct{}

func (fakeProber) Probe(path string) (*probe.Resource, error) {
	return &probe.Resource{Path: path, Kind: probe.KindAudio, MimeType: "audio/mpeg", Size: 1}, nil
}

func TestShareIngestAddsFilesToTree(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Album"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Album", "track.mp3"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.mp3"), []byte("x"), 0o644))

	srv := &Server{DocRootPath: dir, Prober: fakeProber{}, IgnoreHidden: true, tree: cds.NewTree()}
	require.NoError(t, srv.shareIngest())

	n, err := srv.tree.CountChildren(cds.MusicID, probe.KindAudio, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
