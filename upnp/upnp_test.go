package upnp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatUUIDPadsShortInput(t *testing.T) {
	u := FormatUUID([]byte{0x01, 0x02})
	assert.Equal(t, "uuid:01020000-0000-0000-0000-000000000000", u)
}

func TestFormatUUIDFullLength(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	assert.Equal(t, "uuid:01020304-0506-0708-090a-0b0c0d0e0f10", FormatUUID(buf))
}

func TestParseServiceType(t *testing.T) {
	urn, err := ParseServiceType("urn:schemas-upnp-org:service:ContentDirectory:1")
	require.NoError(t, err)
	assert.Equal(t, "schemas-upnp-org", urn.Domain)
	assert.Equal(t, "ContentDirectory", urn.Type)
	assert.Equal(t, "1", urn.Version)
	assert.Equal(t, "urn:schemas-upnp-org:service:ContentDirectory:1", urn.String())
}

func TestParseServiceTypeRejectsMalformed(t *testing.T) {
	_, err := ParseServiceType("not-a-urn")
	assert.Error(t, err)
}

func TestParseActionHTTPHeader(t *testing.T) {
	sa, err := ParseActionHTTPHeader(`"urn:schemas-upnp-org:service:ContentDirectory:1#Browse"`)
	require.NoError(t, err)
	assert.Equal(t, "ContentDirectory", sa.ServiceURN.Type)
	assert.Equal(t, "Browse", sa.Action)
}

func TestParseActionHTTPHeaderRejectsMissingHash(t *testing.T) {
	_, err := ParseActionHTTPHeader(`"urn:schemas-upnp-org:service:ContentDirectory:1"`)
	assert.Error(t, err)
}

func TestParseCallbackURLs(t *testing.T) {
	urls := ParseCallbackURLs("<http://192.0.2.1:1234/event> <http://192.0.2.1:1234/event2>")
	require.Len(t, urls, 2)
	assert.Equal(t, "/event", urls[0].Path)
	assert.Equal(t, "/event2", urls[1].Path)
}

func TestConvertErrorPassesThroughUPnPError(t *testing.T) {
	orig := Errorf(NoSuchObjectErrorCode, "missing %s", "id")
	assert.Same(t, orig, ConvertError(orig))
}

func TestConvertErrorDefaultsToActionFailed(t *testing.T) {
	err := ConvertError(errors.New("boom"))
	assert.Equal(t, ActionFailedErrorCode, err.Code)
	assert.Equal(t, "boom", err.Desc)
}
