package cds

import (
	"net/http"
	"net/url"

	"github.com/stefanop/yada/upnp"
)

// MediaReceiverRegistrarService implements the dms.UPnPService interface
// for urn:microsoft.com:service:X_MS_MediaReceiverRegistrar:1, the vendor
// extension Samsung/Xbox clients probe before trusting a DLNA server.
// yada always reports every device authorized and validated, grounded on
// the teacher's own unconditional-authorization stance for this service.
type MediaReceiverRegistrarService struct{}

func (s *MediaReceiverRegistrarService) Handle(action string, argsXML []byte, r *http.Request) ([][2]string, error) {
	switch action {
	case "IsAuthorized":
		return [][2]string{{"Result", "1"}}, nil
	case "IsValidated":
		return [][2]string{{"Result", "1"}}, nil
	case "RegisterDevice":
		return [][2]string{{"RegistrationRespMsg", ""}}, nil
	default:
		return nil, upnp.Errorf(upnp.CannotProcessRequestErrorCode, "unrecognized action %q", action)
	}
}

func (s *MediaReceiverRegistrarService) Subscribe(callback []*url.URL, timeoutSeconds int) (sid string, actualTimeout int, err error) {
	return "", 0, upnp.Errorf(upnp.ActionFailedErrorCode, "eventing not implemented")
}

func (s *MediaReceiverRegistrarService) Unsubscribe(sid string) error {
	return upnp.Errorf(upnp.ActionFailedErrorCode, "eventing not implemented")
}
