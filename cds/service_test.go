package cds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanop/yada/probe"
	"github.com/stefanop/yada/upnp"
)

func findArg(args [][2]string, name string) (string, bool) {
	for _, kv := range args {
		if kv[0] == name {
			return kv[1], true
		}
	}
	return "", false
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	tree := NewTree()
	_, err := tree.AddItem(&probe.Resource{Path: "/m/a.mp3", Kind: probe.KindAudio, MimeType: "audio/mpeg", Size: 1234}, RootID)
	require.NoError(t, err)
	return &Service{
		Tree: tree,
		Host: func() string { return "192.0.2.1:4004" },
	}
}

func TestHandleGetSystemUpdateID(t *testing.T) {
	s := newTestService(t)
	args, err := s.Handle("GetSystemUpdateID", nil, nil)
	require.NoError(t, err)
	id, ok := findArg(args, "Id")
	require.True(t, ok)
	assert.Equal(t, SystemUpdateID, id)
}

func TestHandleBrowseMetadataRoot(t *testing.T) {
	s := newTestService(t)
	body := []byte(`<Browse><ObjectID>` + RootID + `</ObjectID><BrowseFlag>BrowseMetadata</BrowseFlag></Browse>`)
	args, err := s.Handle("Browse", body, nil)
	require.NoError(t, err)

	numberReturned, _ := findArg(args, "NumberReturned")
	assert.Equal(t, "1", numberReturned)
	result, ok := findArg(args, "Result")
	require.True(t, ok)
	assert.Contains(t, result, "Root")
}

func TestHandleBrowseDirectChildrenRoot(t *testing.T) {
	s := newTestService(t)
	body := []byte(`<Browse><ObjectID>` + RootID + `</ObjectID><BrowseFlag>BrowseDirectChildren</BrowseFlag></Browse>`)
	args, err := s.Handle("Browse", body, nil)
	require.NoError(t, err)

	numberReturned, _ := findArg(args, "NumberReturned")
	assert.Equal(t, "3", numberReturned)
	totalMatches, _ := findArg(args, "TotalMatches")
	assert.Equal(t, "3", totalMatches)
}

func TestHandleBrowseUnknownObjectIsNoSuchObject(t *testing.T) {
	s := newTestService(t)
	body := []byte(`<Browse><ObjectID>bogus</ObjectID><BrowseFlag>BrowseMetadata</BrowseFlag></Browse>`)
	_, err := s.Handle("Browse", body, nil)
	require.Error(t, err)
	uerr, ok := err.(*upnp.Error)
	require.True(t, ok)
	assert.Equal(t, upnp.NoSuchObjectErrorCode, uerr.Code)
}

func TestHandleBrowseStartingIndexAndRequestedCount(t *testing.T) {
	s := newTestService(t)
	body := []byte(`<Browse><ObjectID>` + RootID + `</ObjectID><BrowseFlag>BrowseDirectChildren</BrowseFlag>` +
		`<StartingIndex>1</StartingIndex><RequestedCount>1</RequestedCount></Browse>`)
	args, err := s.Handle("Browse", body, nil)
	require.NoError(t, err)

	numberReturned, _ := findArg(args, "NumberReturned")
	assert.Equal(t, "1", numberReturned)
	totalMatches, _ := findArg(args, "TotalMatches")
	assert.Equal(t, "3", totalMatches)
}

func TestHandleUnrecognizedAction(t *testing.T) {
	s := newTestService(t)
	_, err := s.Handle("Frobnicate", nil, nil)
	require.Error(t, err)
	uerr, ok := err.(*upnp.Error)
	require.True(t, ok)
	assert.Equal(t, upnp.CannotProcessRequestErrorCode, uerr.Code)
}

func TestSubscribeIsActionFailed(t *testing.T) {
	s := newTestService(t)
	_, _, err := s.Subscribe(nil, 1800)
	require.Error(t, err)
	uerr, ok := err.(*upnp.Error)
	require.True(t, ok)
	assert.Equal(t, upnp.ActionFailedErrorCode, uerr.Code)
}

func TestObjectIDFromIndexDisabledByDefault(t *testing.T) {
	s := newTestService(t)
	body := []byte(`<X_GetObjectIDfromIndex><CategoryType>0</CategoryType><Index>0</Index></X_GetObjectIDfromIndex>`)
	_, err := s.Handle("X_GetObjectIDfromIndex", body, nil)
	require.Error(t, err)
	uerr, ok := err.(*upnp.Error)
	require.True(t, ok)
	assert.Equal(t, upnp.CannotProcessRequestErrorCode, uerr.Code)
}

func TestObjectIDFromIndexWhenEnabled(t *testing.T) {
	s := newTestService(t)
	s.EnableVendorIndex = true
	body := []byte(`<X_GetObjectIDfromIndex><CategoryType>0</CategoryType><Index>0</Index></X_GetObjectIDfromIndex>`)
	args, err := s.Handle("X_GetObjectIDfromIndex", body, nil)
	require.NoError(t, err)
	id, ok := findArg(args, "ObjectID")
	require.True(t, ok)
	assert.NotEmpty(t, id)
}
