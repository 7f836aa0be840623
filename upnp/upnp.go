// Package upnp implements the pieces of the UPnP device architecture that
// the yada media server needs: device/service description XML types, UUID
// formatting, SOAPACTION header parsing, and ContentDirectory error codes.
package upnp

import (
	"encoding/xml"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// SpecVersion is the UPnP device description SpecVersion element.
type SpecVersion struct {
	Major int `xml:"major"`
	Minor int `xml:"minor"`
}

// Icon describes one entry of a device's IconList.
type Icon struct {
	Mimetype string `xml:"mimetype"`
	Width    int    `xml:"width"`
	Height   int    `xml:"height"`
	Depth    int    `xml:"depth"`
	URL      string `xml:"url"`
}

// Service is a UPnP device's advertised service.
type Service struct {
	ServiceType string `xml:"serviceType"`
	ServiceId   string `xml:"serviceId"`
	SCPDURL     string
	ControlURL  string
	EventSubURL string
}

// Device is the UPnP device description's root device element.
type Device struct {
	DeviceType      string    `xml:"deviceType"`
	FriendlyName    string    `xml:"friendlyName"`
	Manufacturer    string    `xml:"manufacturer"`
	ModelName       string    `xml:"modelName"`
	UDN             string    `xml:"UDN"`
	PresentationURL string    `xml:"presentationURL,omitempty"`
	ServiceList     []Service `xml:"serviceList>service"`
	IconList        []Icon    `xml:"iconList>icon,omitempty"`
	// Additional vendor extension elements (dlna:X_DLNACAP, sec:X_ProductCap,
	// ...) are injected verbatim rather than modeled, matching the teacher's
	// own VendorXML escape hatch.
	VendorXML string `xml:",innerxml"`
}

// DeviceDesc is the root element of a UPnP device description document.
type DeviceDesc struct {
	XMLName     xml.Name `xml:"root"`
	Xmlns       string   `xml:"xmlns,attr"`
	NSDLNA      string   `xml:"xmlns:dlna,attr"`
	NSSEC       string   `xml:"xmlns:sec,attr"`
	SpecVersion SpecVersion
	Device      Device
}

// FormatUUID formats a 16-byte value as the lowercase, hyphenated UUID
// string UPnP expects (8-4-4-4-12 hex digits).
func FormatUUID(buf []byte) string {
	if len(buf) < 16 {
		padded := make([]byte, 16)
		copy(padded, buf)
		buf = padded
	}
	return fmt.Sprintf("uuid:%x-%x-%x-%x-%x", buf[:4], buf[4:6], buf[6:8], buf[8:10], buf[10:16])
}

// SoapAction identifies a SOAP action by service URN and action name, as
// parsed from a SOAPACTION HTTP header.
type SoapAction struct {
	ServiceURN ServiceURN
	Action     string
}

// ServiceURN is a parsed UPnP service type URN, e.g.
// "urn:schemas-upnp-org:service:ContentDirectory:1".
type ServiceURN struct {
	Domain  string
	Type    string
	Version string
}

func (me ServiceURN) String() string {
	return fmt.Sprintf("urn:%s:service:%s:%s", me.Domain, me.Type, me.Version)
}

// ParseServiceType parses a service type URN into its component parts.
func ParseServiceType(s string) (urn ServiceURN, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 5 || parts[0] != "urn" || parts[2] != "service" {
		err = fmt.Errorf("upnp: bad service type: %q", s)
		return
	}
	urn.Domain = parts[1]
	urn.Type = parts[3]
	urn.Version = parts[4]
	return
}

// ParseActionHTTPHeader parses a SOAPACTION header value of the form
// `"urn:schemas-upnp-org:service:ContentDirectory:1#Browse"`.
func ParseActionHTTPHeader(s string) (ret SoapAction, err error) {
	s = strings.Trim(s, `"`)
	hashIndex := strings.LastIndex(s, "#")
	if hashIndex < 0 {
		err = errors.New("upnp: missing '#' in SOAPACTION header")
		return
	}
	urn, err := ParseServiceType(s[:hashIndex])
	if err != nil {
		return
	}
	ret.ServiceURN = urn
	ret.Action = s[hashIndex+1:]
	return
}

// ParseCallbackURLs parses the CALLBACK header of a GENA SUBSCRIBE
// request: a list of "<url>" tokens.
func ParseCallbackURLs(header string) (urls []*url.URL) {
	for _, token := range strings.Fields(header) {
		token = strings.Trim(token, "<>")
		if u, err := url.Parse(token); err == nil {
			urls = append(urls, u)
		}
	}
	return
}

// Error codes per the UPnP ContentDirectory:1 service template.
const (
	InvalidActionErrorCode         = 401
	InvalidArgsErrorCode           = 402
	InvalidVarErrorCode            = 404
	ActionFailedErrorCode          = 501
	NoSuchObjectErrorCode          = 701
	UnsupportedSortCriteriaErrCode = 709
	CannotProcessRequestErrorCode  = 720
)

// Error is a UPnP action error: a numeric code plus human-readable text.
type Error struct {
	Code int
	Desc string
}

func (e *Error) Error() string {
	return fmt.Sprintf("UPnPError %d: %s", e.Code, e.Desc)
}

// Errorf builds an *Error with a formatted description.
func Errorf(code int, format string, a ...interface{}) *Error {
	return &Error{Code: code, Desc: fmt.Sprintf(format, a...)}
}

// ConvertError coerces an arbitrary error into a UPnP *Error, defaulting
// to ActionFailedErrorCode (501) for errors that aren't already tagged.
func ConvertError(err error) *Error {
	var upnpErr *Error
	if errors.As(err, &upnpErr) {
		return upnpErr
	}
	return &Error{Code: ActionFailedErrorCode, Desc: err.Error()}
}

// Variable is a GENA eventing state-variable name/value pair.
type Variable struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

// Property wraps a single Variable for a GENA propertyset notification.
type Property struct {
	Variable Variable
}

// PropertySet is the root element of a GENA eventing NOTIFY body.
type PropertySet struct {
	XMLName    xml.Name `xml:"e:propertyset"`
	Space      string   `xml:"xmlns:e,attr"`
	Properties []Property
}
