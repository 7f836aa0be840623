// Package config loads and saves the XML settings document that
// controls an instance's network binding, advertised identity, and
// peer access list, grounded on original_source/src/utils/config.c.
package config

import (
	"crypto/md5"
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/stefanop/yada/upnp"
)

// DefaultAnnounceAs is the friendlyName used when announce_as is
// empty, matching config_parse_announce_as's "YADA" fallback.
const DefaultAnnounceAs = "YADA"

// Version is the config document version this package understands,
// matching config_parse's "1.0" check.
const Version = "1.0"

// Settings is the root of the configuration document.
type Settings struct {
	XMLName    xml.Name `xml:"yada"`
	Version    string   `xml:"version,attr"`
	UUID       string   `xml:"uuid"`
	AnnounceAs string   `xml:"announce_as"`
	HTTPD      HTTPD    `xml:"httpd"`
	UPnP       UPnP     `xml:"upnp"`
	CDS        struct{} `xml:"cds"`
	CMS        struct{} `xml:"cms"`
}

// HTTPD holds the binding and content-root parameters,
// config_parse_httpd_settings.
type HTTPD struct {
	// IPAddress is the interface to bind; empty (or the literal "any" on
	// disk) means "first available", matching the teacher's nil-means-any
	// httpd_ip_address.
	IPAddress   string `xml:"ip_address"`
	Port        int    `xml:"port"`
	DocRootPath string `xml:"doc_root_path"`
}

// UPnP holds the peer access-list and vendor-extension parameters,
// config_parse_upnp_settings.
type UPnP struct {
	AllowedIPs AllowedIPs `xml:"allowed_ips"`
	// EnableVendorIndex gates the X_GetObjectIDfromIndex vendor action,
	// "yes" or "no". Empty (absent from the document) means enabled,
	// matching the documented default-on behavior.
	EnableVendorIndex string `xml:"enable_vendor_index"`
}

// VendorIndexEnabled reports whether the X_GetObjectIDfromIndex vendor
// action is enabled (answered rather than rejected), defaulting to true
// when the element is absent from the document.
func (u UPnP) VendorIndexEnabled() bool {
	return u.EnableVendorIndex != "no"
}

// AllowedIPs is the allowed_ips element: an enforce flag and the list
// of permitted peer addresses.
type AllowedIPs struct {
	Enforce string   `xml:"enforce,attr"`
	IPs     []string `xml:"ip"`
}

// Enforced reports whether enforce="yes" was set.
func (a AllowedIPs) Enforced() bool {
	return a.Enforce == "yes"
}

// Load reads and parses an XML settings document. If the document has
// no uuid, one is generated and the caller should Save the result to
// persist it — config_load + config_parse_uuid's self-repair behavior.
func Load(filename string) (*Settings, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("config: loading %q: %w", filename, err)
	}
	var s Settings
	if err := xml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("config: parsing %q: %w", filename, err)
	}
	if s.Version == "" || s.Version[0] != Version[0] {
		return nil, fmt.Errorf("config: unsupported version %q in %q", s.Version, filename)
	}
	if s.UUID == "" {
		s.UUID = uuid.NewString()
	}
	if s.AnnounceAs == "" {
		s.AnnounceAs = DefaultAnnounceAs
	}
	if s.HTTPD.IPAddress == "any" {
		s.HTTPD.IPAddress = ""
	}
	if s.HTTPD.DocRootPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("config: resolving default doc_root_path: %w", err)
		}
		s.HTTPD.DocRootPath = wd
	}
	return &s, nil
}

// Save writes s back to filename as indented XML,
// config_save's (previously stubbed) counterpart.
func Save(filename string, s *Settings) error {
	data, err := xml.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshaling settings: %w", err)
	}
	data = append([]byte(xml.Header), data...)
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("config: writing %q: %w", filename, err)
	}
	return nil
}

// CreateDefaults writes a fresh settings document with a random v4 UUID
// and every other field at its documented default, then returns it —
// config_create_defaults.
func CreateDefaults(filename string) (*Settings, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: resolving default doc_root_path: %w", err)
	}
	s := &Settings{
		Version:    Version,
		UUID:       uuid.NewString(),
		AnnounceAs: DefaultAnnounceAs,
		HTTPD: HTTPD{
			DocRootPath: wd,
		},
		UPnP: UPnP{
			EnableVendorIndex: "yes",
		},
	}
	if err := Save(filename, s); err != nil {
		return nil, err
	}
	return s, nil
}

// DeterministicUUID derives a stable device UUID from name, the way the
// teacher's makeDeviceUuid derives one from the friendly name with
// crypto/md5 + upnp.FormatUUID, for callers that want -uuid stability
// across restarts without persisting a config file.
func DeterministicUUID(name string) string {
	sum := md5.Sum([]byte(name))
	return strings.TrimPrefix(upnp.FormatUUID(sum[:]), "uuid:")
}
