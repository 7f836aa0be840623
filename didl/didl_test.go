package didl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiteWrapsWithNamespaces(t *testing.T) {
	out := string(Lite([]byte(`<container id="1"/>`)))
	assert.True(t, strings.HasPrefix(out, "<DIDL-Lite"))
	assert.Contains(t, out, `xmlns:dc="http://purl.org/dc/elements/1.1/"`)
	assert.Contains(t, out, `<container id="1"/>`)
	assert.True(t, strings.HasSuffix(out, "</DIDL-Lite>"))
}

type stubObject struct {
	XMLName struct{} `xml:"item"`
	ID      string   `xml:"id,attr"`
}

func TestMarshalObjectsConcatenates(t *testing.T) {
	out, err := MarshalObjects([]interface{}{stubObject{ID: "a"}, stubObject{ID: "b"}})
	require.NoError(t, err)
	assert.Equal(t, `<item id="a"></item><item id="b"></item>`, string(out))
}

func TestEscapeEscapesAngleBrackets(t *testing.T) {
	assert.Equal(t, "&lt;item/&gt;", Escape([]byte("<item/>")))
}

func TestResultForEscapesTheWrappedFragmentOnce(t *testing.T) {
	result, err := ResultFor([]interface{}{stubObject{ID: "a"}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result, "&lt;DIDL-Lite"))
	assert.NotContains(t, result, "<DIDL-Lite")
}
