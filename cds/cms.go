package cds

import (
	"encoding/xml"
	"net/http"
	"net/url"

	"github.com/stefanop/yada/upnp"
)

// protocolInfoSep joins the SourceProtocolInfo entries into the Source
// value GetProtocolInfo returns.
const protocolInfoSep = ","

// ConnectionManagerService implements the dms.UPnPService interface for
// urn:schemas-upnp-org:service:ConnectionManager:1. yada is a single,
// fixed, non-connecting source: there is exactly one (virtual) connection,
// always ID 0, and no PrepareForConnection/ConnectionComplete support,
// grounded on original_source/src/cds.c's cms_dispatch_action.
type ConnectionManagerService struct {
	// SourceProtocolInfo lists the http-get:*:mime:* strings this server
	// can serve, joined with commas for GetProtocolInfo's Source value.
	SourceProtocolInfo []string
}

func (s *ConnectionManagerService) Handle(action string, argsXML []byte, r *http.Request) ([][2]string, error) {
	switch action {
	case "GetProtocolInfo":
		source := ""
		for i, pi := range s.SourceProtocolInfo {
			if i > 0 {
				source += protocolInfoSep
			}
			source += pi
		}
		return [][2]string{{"Source", source}, {"Sink", ""}}, nil
	case "GetCurrentConnectionIDs":
		return [][2]string{{"ConnectionIDs", "0"}}, nil
	case "GetCurrentConnectionInfo":
		return s.handleGetCurrentConnectionInfo(argsXML)
	default:
		return nil, upnp.Errorf(upnp.CannotProcessRequestErrorCode, "unrecognized action %q", action)
	}
}

type getCurrentConnectionInfoRequest struct {
	XMLName      xml.Name
	ConnectionID int `xml:"ConnectionID"`
}

// handleGetCurrentConnectionInfo reports the server's single fixed,
// already-connected, non-transporting source connection.
func (s *ConnectionManagerService) handleGetCurrentConnectionInfo(argsXML []byte) ([][2]string, error) {
	var req getCurrentConnectionInfoRequest
	if err := xml.Unmarshal(argsXML, &req); err != nil {
		return nil, upnp.Errorf(upnp.InvalidArgsErrorCode, "malformed GetCurrentConnectionInfo arguments: %s", err)
	}
	if req.ConnectionID != 0 {
		return nil, upnp.Errorf(upnp.InvalidArgsErrorCode, "unknown ConnectionID %d", req.ConnectionID)
	}
	return [][2]string{
		{"RcsID", "-1"},
		{"AVTransportID", "-1"},
		{"ProtocolInfo", ""},
		{"PeerConnectionManager", ""},
		{"PeerConnectionID", "-1"},
		{"Direction", "Output"},
		{"Status", "OK"},
	}, nil
}

// Subscribe and Unsubscribe implement GENA eventing as an explicit 501
// stub, matching cds.Service's own eventing stance: this design
// advertises no eventing.
func (s *ConnectionManagerService) Subscribe(callback []*url.URL, timeoutSeconds int) (sid string, actualTimeout int, err error) {
	return "", 0, upnp.Errorf(upnp.ActionFailedErrorCode, "eventing not implemented")
}

func (s *ConnectionManagerService) Unsubscribe(sid string) error {
	return upnp.Errorf(upnp.ActionFailedErrorCode, "eventing not implemented")
}
