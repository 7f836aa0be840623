package dms

import (
	"encoding/xml"
	"fmt"
	"net/http"

	"github.com/anacrolix/log"

	"github.com/stefanop/yada/soap"
	"github.com/stefanop/yada/upnp"
)

// serviceControlHandler dispatches a SOAP-over-HTTP control request to
// whichever service the SOAPACTION header names, matching the teacher's
// serviceControlHandler but generalized to three distinct control URLs
// instead of one shared one.
func (srv *Server) serviceControlHandler(w http.ResponseWriter, r *http.Request) {
	if !srv.peerAllowed(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	soapAction, err := upnp.ParseActionHTTPHeader(r.Header.Get("SOAPACTION"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var env soap.Envelope
	if err := xml.NewDecoder(r.Body).Decode(&env); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	respXML, status := srv.soapActionResponseXML(soapAction, env.Body.Action, r)
	body := wrapSOAPEnvelope(respXML)

	w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
	w.Header().Set("Content-Length", fmt.Sprint(len(body)))
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		if _, err := w.Write(body); err != nil {
			log.Printf("dms: writing SOAP response: %s", err)
		}
	}
}

func (srv *Server) soapActionResponseXML(sa upnp.SoapAction, actionXML []byte, r *http.Request) ([]byte, int) {
	service, ok := srv.services[sa.ServiceURN.Type]
	if !ok {
		return xmlMarshalOrPanic(soap.NewFault("UPnPError", upnp.Errorf(upnp.InvalidActionErrorCode, "invalid service: %s", sa.ServiceURN.Type))), http.StatusInternalServerError
	}
	respArgs, err := service.Handle(sa.Action, actionXML, r)
	if err != nil {
		return xmlMarshalOrPanic(soap.NewFault("UPnPError", upnp.ConvertError(err))), http.StatusInternalServerError
	}
	return marshalSOAPResponse(sa, respArgs), http.StatusOK
}

// marshalSOAPResponse renders a service's response arguments into the
// <u:ActionResponse> XML snippet a SOAP envelope body carries.
func marshalSOAPResponse(sa upnp.SoapAction, args [][2]string) []byte {
	soapArgs := make([]soap.Arg, 0, len(args))
	for _, arg := range args {
		soapArgs = append(soapArgs, soap.Arg{XMLName: xml.Name{Local: arg[0]}, Value: arg[1]})
	}
	return []byte(fmt.Sprintf(`<u:%[1]sResponse xmlns:u="%[2]s">%[3]s</u:%[1]sResponse>`,
		sa.Action, sa.ServiceURN.String(), xmlMarshalOrPanic(soapArgs)))
}

func wrapSOAPEnvelope(actionXML []byte) []byte {
	return []byte(fmt.Sprintf(
		`<?xml version="1.0" encoding="utf-8" standalone="yes"?>`+
			`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">`+
			`<s:Body>%s</s:Body></s:Envelope>`, actionXML))
}

func xmlMarshalOrPanic(value interface{}) []byte {
	data, err := xml.MarshalIndent(value, "", "  ")
	if err != nil {
		log.Panicf("dms: marshaling %v: %s", value, err)
	}
	return data
}
