package ssdp

import (
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchTypeAll(t *testing.T) {
	msg := "M-SEARCH * HTTP/1.1\r\nHOST: 239.255.255.250:1900\r\nMAN: \"ssdp:discover\"\r\nMX: 3\r\nST: ssdp:all\r\n\r\n"
	st, ok := searchType([]byte(msg))
	assert.True(t, ok)
	assert.Equal(t, allST, st)
}

func TestSearchTypeSpecific(t *testing.T) {
	msg := "M-SEARCH * HTTP/1.1\r\nHOST: 239.255.255.250:1900\r\nMAN: \"ssdp:discover\"\r\nMX: 3\r\nST: " +
		MediaServerNT + "\r\n\r\n"
	st, ok := searchType([]byte(msg))
	assert.True(t, ok)
	assert.Equal(t, MediaServerNT, st)
}

func TestSearchTypeMissingMANIsInvalid(t *testing.T) {
	msg := "M-SEARCH * HTTP/1.1\r\nHOST: 239.255.255.250:1900\r\nMX: 3\r\nST: ssdp:all\r\n\r\n"
	_, ok := searchType([]byte(msg))
	assert.False(t, ok)
}

func TestSearchTypeUnknownSTIsInvalid(t *testing.T) {
	msg := "M-SEARCH * HTTP/1.1\r\nHOST: 239.255.255.250:1900\r\nMAN: \"ssdp:discover\"\r\nMX: 3\r\nST: urn:schemas-upnp-org:device:Printer:1\r\n\r\n"
	_, ok := searchType([]byte(msg))
	assert.False(t, ok)
}

func TestBuildAliveMessageRootDevice(t *testing.T) {
	msg := buildAliveMessage(RootDeviceNT, "uuid:abc::"+RootDeviceNT, "http://1.2.3.4:4004/d/yada.xml", "Linux UPnP/1.0 YADA-UPNP/1.0")
	assert.True(t, strings.HasPrefix(msg, "NOTIFY * HTTP/1.1\r\n"))
	assert.Contains(t, msg, "HOST: 239.255.255.250:1900\r\n")
	assert.Contains(t, msg, "NT: upnp:rootdevice\r\n")
	assert.Contains(t, msg, "NTS: ssdp:alive\r\n")
	assert.Contains(t, msg, "USN: uuid:abc::upnp:rootdevice\r\n")
	assert.Contains(t, msg, "CACHE-CONTROL: max-age=1800\r\n")
	assert.True(t, strings.HasSuffix(msg, "CONTENT-LENGTH: 0\r\n\r\n"))
}

func TestBuildAliveMessageBareUUID(t *testing.T) {
	msg := buildAliveMessage("uuid:abc", "uuid:abc", "http://1.2.3.4:4004/d/yada.xml", "srv")
	assert.Contains(t, msg, "NT: uuid:abc\r\n")
	assert.Contains(t, msg, "USN: uuid:abc\r\n")
}

func TestBuildByebyeMessageHasNoBareUUIDVariant(t *testing.T) {
	msg := buildByebyeMessage(ContentDirectoryNT, "abc")
	assert.Contains(t, msg, "NT: "+ContentDirectoryNT+"\r\n")
	assert.Contains(t, msg, "NTS: ssdp:byebye\r\n")
	assert.Contains(t, msg, "USN: uuid:abc::"+ContentDirectoryNT+"\r\n")
	assert.NotContains(t, msg, "CACHE-CONTROL")
	assert.NotContains(t, msg, "LOCATION")
}

func TestBuildMSearchReply(t *testing.T) {
	msg := buildMSearchReply(MediaServerNT, "abc", "http://1.2.3.4:4004/d/yada.xml", "srv")
	assert.True(t, strings.HasPrefix(msg, "HTTP/1.1 200 OK\r\n"))
	assert.Contains(t, msg, "ST: "+MediaServerNT+"\r\n")
	assert.Contains(t, msg, "USN: uuid:abc::"+MediaServerNT+"\r\n")
	assert.Contains(t, msg, "EXT:\r\n")
}

func TestReplyMSearchRejectsDisallowedPeerBeforeSending(t *testing.T) {
	s := &Server{PeerAllowed: func(ip net.IP) bool { return false }}
	msg := "M-SEARCH * HTTP/1.1\r\nHOST: 239.255.255.250:1900\r\nMAN: \"ssdp:discover\"\r\nMX: 3\r\nST: ssdp:all\r\n\r\n"
	// s.pconn is nil: if PeerAllowed weren't honored before the send path,
	// this would panic.
	s.replyMSearch([]byte(msg), &net.UDPAddr{IP: net.ParseIP("203.0.113.5")})
}

func TestRandomNotifyIntervalWithinBounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := randomNotifyInterval()
		assert.GreaterOrEqual(t, d.Seconds(), 10.0)
		assert.LessOrEqual(t, d.Seconds(), 900.0)
	}
}
