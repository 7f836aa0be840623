package dms

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSplitItemIDAcceptsHexIDWithExtension(t *testing.T) {
	id, ok := splitItemID("/9007afba8fdf31332b36c8e5afb440d1.mp3")
	assert.True(t, ok)
	assert.Equal(t, "9007afba8fdf31332b36c8e5afb440d1", id)
}

func TestSplitItemIDRejectsNonHex(t *testing.T) {
	_, ok := splitItemID("/not-an-id-at-all-zz.mp3")
	assert.False(t, ok)
}

func TestSplitItemIDRejectsMissingExtension(t *testing.T) {
	_, ok := splitItemID("/9007afba8fdf31332b36c8e5afb440d1")
	assert.False(t, ok)
}

func TestSplitItemIDRejectsStaticPaths(t *testing.T) {
	_, ok := splitItemID("/Music/song.mp3")
	assert.False(t, ok)
}

func TestSafeFilePathConfinesTraversal(t *testing.T) {
	assert.Equal(t, "/srv/share/etc/passwd", safeFilePath("/srv/share", "/../../etc/passwd"))
}

func TestBytesForDurationMapsProportionally(t *testing.T) {
	durationUs := int64(100 * time.Second / time.Microsecond)
	assert.Equal(t, int64(0), bytesForDuration(0, durationUs, 1000))
	assert.Equal(t, int64(500), bytesForDuration(50*time.Second, durationUs, 1000))
	assert.Equal(t, int64(1000), bytesForDuration(200*time.Second, durationUs, 1000))
}

func TestMimeTypeByExtension(t *testing.T) {
	assert.Equal(t, "video/mp4", mimeTypeByExtension("/a/b.mp4"))
	assert.Equal(t, "image/jpeg", mimeTypeByExtension("/a/b.JPG"))
	assert.Equal(t, "application/octet-stream", mimeTypeByExtension("/a/b.xyz"))
}
