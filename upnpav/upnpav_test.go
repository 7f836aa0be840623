package upnpav

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainerMarshalsExpectedAttributes(t *testing.T) {
	c := Container{
		Object: Object{
			ID:         "abc",
			ParentID:   "root",
			Restricted: 1,
			Class:      ClassContainer,
			Title:      "Music",
		},
		ChildCount: 3,
	}
	data, err := xml.Marshal(c)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `<container`)
	assert.Contains(t, s, `id="abc"`)
	assert.Contains(t, s, `parentID="root"`)
	assert.Contains(t, s, `childCount="3"`)
	assert.Contains(t, s, `<dc:title>Music</dc:title>`)
}

func TestItemMarshalsResourceList(t *testing.T) {
	i := Item{
		Object: Object{ID: "x", ParentID: "root", Restricted: 1, Class: ClassMusicTrack, Title: "Track"},
		Res: []Resource{{
			ProtocolInfo: "http-get:*:audio/mpeg:*",
			URL:          "http://192.0.2.1:4004/x.mp3",
			Size:         1024,
		}},
	}
	data, err := xml.Marshal(i)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `<item`)
	assert.Contains(t, s, `protocolInfo="http-get:*:audio/mpeg:*"`)
	assert.Contains(t, s, "http://192.0.2.1:4004/x.mp3")
}

func TestResourceOmitsEmptyOptionalAttrs(t *testing.T) {
	data, err := xml.Marshal(Resource{ProtocolInfo: "http-get:*:*:*", URL: "u"})
	require.NoError(t, err)
	s := string(data)
	assert.NotContains(t, s, "bitrate")
	assert.NotContains(t, s, "duration")
	assert.NotContains(t, s, "resolution")
}
