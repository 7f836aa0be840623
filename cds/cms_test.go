package cds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionManagerGetProtocolInfo(t *testing.T) {
	s := &ConnectionManagerService{SourceProtocolInfo: []string{"http-get:*:audio/mpeg:*", "http-get:*:video/mp4:*"}}
	args, err := s.Handle("GetProtocolInfo", nil, nil)
	require.NoError(t, err)
	source, ok := findArg(args, "Source")
	require.True(t, ok)
	assert.Equal(t, "http-get:*:audio/mpeg:*,http-get:*:video/mp4:*", source)
	sink, ok := findArg(args, "Sink")
	require.True(t, ok)
	assert.Equal(t, "", sink)
}

func TestConnectionManagerGetCurrentConnectionIDs(t *testing.T) {
	s := &ConnectionManagerService{}
	args, err := s.Handle("GetCurrentConnectionIDs", nil, nil)
	require.NoError(t, err)
	ids, ok := findArg(args, "ConnectionIDs")
	require.True(t, ok)
	assert.Equal(t, "0", ids)
}

func TestConnectionManagerGetCurrentConnectionInfoForConnectionZero(t *testing.T) {
	s := &ConnectionManagerService{}
	args, err := s.Handle("GetCurrentConnectionInfo", []byte(`<GetCurrentConnectionInfo><ConnectionID>0</ConnectionID></GetCurrentConnectionInfo>`), nil)
	require.NoError(t, err)
	status, ok := findArg(args, "Status")
	require.True(t, ok)
	assert.Equal(t, "OK", status)
}

func TestConnectionManagerGetCurrentConnectionInfoRejectsUnknownID(t *testing.T) {
	s := &ConnectionManagerService{}
	_, err := s.Handle("GetCurrentConnectionInfo", []byte(`<GetCurrentConnectionInfo><ConnectionID>7</ConnectionID></GetCurrentConnectionInfo>`), nil)
	assert.Error(t, err)
}

func TestConnectionManagerUnrecognizedAction(t *testing.T) {
	s := &ConnectionManagerService{}
	_, err := s.Handle("PrepareForConnection", nil, nil)
	assert.Error(t, err)
}

func TestConnectionManagerSubscribeIsNotImplemented(t *testing.T) {
	s := &ConnectionManagerService{}
	_, _, err := s.Subscribe(nil, 0)
	assert.Error(t, err)
	assert.Error(t, s.Unsubscribe("sid"))
}
