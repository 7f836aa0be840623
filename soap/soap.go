// Package soap implements the minimal SOAP 1.1 envelope handling the UPnP
// control protocol needs: decoding an incoming action request body and
// encoding a fault response.
package soap

import (
	"encoding/xml"

	"github.com/stefanop/yada/upnp"
)

// Arg is a single SOAP response argument, encoded as an XML element whose
// local name is the argument name and whose character data is its value.
type Arg struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

// Action is the raw body of an incoming SOAP request: an arbitrary element
// whose tag is the action name, captured as unparsed XML so the service
// handler can decode it against its own argument struct.
type Action struct {
	XMLName xml.Name
	Action  []byte `xml:",innerxml"`
}

// Body is a SOAP envelope's Body element, holding the raw action payload.
type Body struct {
	Action []byte `xml:",innerxml"`
}

// Envelope is an incoming SOAP 1.1 envelope.
type Envelope struct {
	XMLName xml.Name `xml:"http://schemas.xmlsoap.org/soap/envelope/ Envelope"`
	Body    Body     `xml:"Body"`
}

// UPnPError is the detail payload of a SOAP fault raised by a UPnP action.
type UPnPError struct {
	XMLName   xml.Name `xml:"urn:schemas-upnp-org:control-1-0 UPnPError"`
	ErrorCode int      `xml:"errorCode"`
	ErrorDesc string   `xml:"errorDescription"`
}

// Fault is a SOAP 1.1 Fault element.
type Fault struct {
	XMLName     xml.Name `xml:"http://schemas.xmlsoap.org/soap/envelope/ Fault"`
	FaultCode   string   `xml:"faultcode"`
	FaultString string   `xml:"faultstring"`
	Detail      struct {
		UPnPError UPnPError
	} `xml:"detail"`
}

// NewFault builds a Fault carrying the given UPnP error code and
// description. faultString is conventionally "UPnPError".
func NewFault(faultString string, upnpErr *upnp.Error) Fault {
	var f Fault
	f.FaultCode = "s:Client"
	f.FaultString = faultString
	f.Detail.UPnPError = UPnPError{ErrorCode: upnpErr.Code, ErrorDesc: upnpErr.Desc}
	return f
}
