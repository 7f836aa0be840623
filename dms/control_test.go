package dms

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanop/yada/cds"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	tree := cds.NewTree()
	srv := &Server{tree: tree}
	srv.services = map[string]UPnPService{
		"ContentDirectory": &cds.Service{Tree: tree, Host: func() string { return "192.0.2.1:4004" }},
		"ConnectionManager": &cds.ConnectionManagerService{
			SourceProtocolInfo: []string{"http-get:*:audio/mpeg:*"},
		},
		"X_MS_MediaReceiverRegistrar": &cds.MediaReceiverRegistrarService{},
	}
	return srv
}

func TestServiceControlHandlerGetSystemUpdateID(t *testing.T) {
	srv := newTestServer(t)
	body := `<?xml version="1.0"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body><u:GetSystemUpdateID xmlns:u="urn:schemas-upnp-org:service:ContentDirectory:1"/></s:Body></s:Envelope>`
	req := httptest.NewRequest(http.MethodPost, "/cds/control/ContentDirectory1", strings.NewReader(body))
	req.Header.Set("SOAPACTION", `"urn:schemas-upnp-org:service:ContentDirectory:1#GetSystemUpdateID"`)
	w := httptest.NewRecorder()

	srv.serviceControlHandler(w, req)

	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, w.Body.String(), "GetSystemUpdateIDResponse")
	assert.Contains(t, w.Body.String(), "<Id>1</Id>")
}

func TestServiceControlHandlerUnknownServiceIsFault(t *testing.T) {
	srv := newTestServer(t)
	body := `<?xml version="1.0"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body><u:Foo xmlns:u="urn:example-org:service:Bogus:1"/></s:Body></s:Envelope>`
	req := httptest.NewRequest(http.MethodPost, "/cds/control/ContentDirectory1", strings.NewReader(body))
	req.Header.Set("SOAPACTION", `"urn:example-org:service:Bogus:1#Foo"`)
	w := httptest.NewRecorder()

	srv.serviceControlHandler(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Result().StatusCode)
	assert.Contains(t, w.Body.String(), "UPnPError")
}

func TestServiceControlHandlerMissingSOAPActionIsBadRequest(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/cds/control/ContentDirectory1", strings.NewReader(""))
	w := httptest.NewRecorder()

	srv.serviceControlHandler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}

func TestServiceControlHandlerRejectsDisallowedPeer(t *testing.T) {
	srv := newTestServer(t)
	srv.EnforceAllowedIPs = true
	req := httptest.NewRequest(http.MethodPost, "/cds/control/ContentDirectory1", strings.NewReader(""))
	req.RemoteAddr = "203.0.113.9:5555"
	w := httptest.NewRecorder()

	srv.serviceControlHandler(w, req)

	require.Equal(t, http.StatusForbidden, w.Result().StatusCode)
}
