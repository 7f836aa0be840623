package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDefaultsThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "yada.xml")

	created, err := CreateDefaults(path)
	require.NoError(t, err)
	assert.NotEmpty(t, created.UUID)
	assert.Equal(t, DefaultAnnounceAs, created.AnnounceAs)
	assert.Equal(t, Version, created.Version)
	assert.True(t, created.UPnP.VendorIndexEnabled(), "vendor index defaults on")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, created.UUID, loaded.UUID)
	assert.Equal(t, created.AnnounceAs, loaded.AnnounceAs)
	assert.Equal(t, created.HTTPD.DocRootPath, loaded.HTTPD.DocRootPath)
}

func TestLoadGeneratesUUIDWhenMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "yada.xml")
	doc := `<?xml version="1.0"?>
<yada version="1.0">
  <uuid></uuid>
  <announce_as></announce_as>
  <httpd>
    <ip_address>any</ip_address>
    <port>0</port>
    <doc_root_path></doc_root_path>
  </httpd>
  <upnp>
    <allowed_ips enforce="no"></allowed_ips>
  </upnp>
  <cds></cds>
  <cms></cms>
</yada>`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, s.UUID)
	assert.Equal(t, DefaultAnnounceAs, s.AnnounceAs)
	assert.Empty(t, s.HTTPD.IPAddress, "\"any\" normalizes to empty string")
	assert.NotEmpty(t, s.HTTPD.DocRootPath)
}

func TestLoadParsesAllowedIPs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "yada.xml")
	doc := `<?xml version="1.0"?>
<yada version="1.0">
  <uuid>11111111-1111-1111-1111-111111111111</uuid>
  <announce_as>MyServer</announce_as>
  <httpd>
    <ip_address>192.168.1.10</ip_address>
    <port>4004</port>
    <doc_root_path>/srv/media</doc_root_path>
  </httpd>
  <upnp>
    <allowed_ips enforce="yes">
      <ip>192.168.1.20</ip>
      <ip>192.168.1.21</ip>
    </allowed_ips>
  </upnp>
  <cds></cds>
  <cms></cms>
</yada>`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.10", s.HTTPD.IPAddress)
	assert.Equal(t, 4004, s.HTTPD.Port)
	assert.True(t, s.UPnP.AllowedIPs.Enforced())
	assert.Equal(t, []string{"192.168.1.20", "192.168.1.21"}, s.UPnP.AllowedIPs.IPs)
}

func TestLoadRejectsWrongVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "yada.xml")
	doc := `<?xml version="1.0"?>
<yada version="2.0">
  <uuid>x</uuid>
  <announce_as>x</announce_as>
  <httpd><ip_address>any</ip_address><port>0</port><doc_root_path>/tmp</doc_root_path></httpd>
  <upnp><allowed_ips enforce="no"></allowed_ips></upnp>
  <cds></cds>
  <cms></cms>
</yada>`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestUPnPVendorIndexEnabledDefaultsOnWhenAbsent(t *testing.T) {
	assert.True(t, UPnP{}.VendorIndexEnabled())
}

func TestUPnPVendorIndexEnabledHonorsExplicitNo(t *testing.T) {
	assert.False(t, UPnP{EnableVendorIndex: "no"}.VendorIndexEnabled())
}

func TestDeterministicUUIDIsStable(t *testing.T) {
	a := DeterministicUUID("yada")
	b := DeterministicUUID("yada")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, DeterministicUUID("other"))
}
