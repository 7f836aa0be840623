package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "audio", KindAudio.String())
	assert.Equal(t, "photo", KindPhoto.String())
	assert.Equal(t, "video", KindVideo.String())
	assert.Equal(t, "audiovideo", KindAudioVideo.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}

func TestMapCacheSetGet(t *testing.T) {
	c := NewMapCache()
	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("key", &Resource{Path: "/a"})
	v, ok := c.Get("key")
	assert.True(t, ok)
	assert.Equal(t, "/a", v.(*Resource).Path)
}
