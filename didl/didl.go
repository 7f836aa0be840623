// Package didl emits DIDL-Lite XML fragments for CDS Browse responses,
// grounded on the teacher's didl_lite() wrapper in dms.go and on the
// container/item shapes in original_source/src/cds.c.
package didl

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// Lite wraps one or more DIDL-Lite objects in the outer <DIDL-Lite>
// element with its namespace declarations, exactly as the teacher's
// didl_lite() string-concatenation helper does, generalized to carry
// real marshaled objects instead of a single opaque chardata blob.
func Lite(objectsXML []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<DIDL-Lite` +
		` xmlns:dc="http://purl.org/dc/elements/1.1/"` +
		` xmlns:upnp="urn:schemas-upnp-org:metadata-1-0/upnp/"` +
		` xmlns="urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/"` +
		` xmlns:dlna="urn:schemas-dlna-org:metadata-1-0/">`)
	buf.Write(objectsXML)
	buf.WriteString(`</DIDL-Lite>`)
	return buf.Bytes()
}

// MarshalObjects marshals a slice of *upnpav.Container/*upnpav.Item
// (or any other xml.Marshaler-compatible DIDL object) into one
// concatenated XML fragment, without the outer <DIDL-Lite> wrapper.
func MarshalObjects(objects []interface{}) ([]byte, error) {
	var buf bytes.Buffer
	for _, obj := range objects {
		b, err := xml.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("didl: marshaling object: %w", err)
		}
		buf.Write(b)
	}
	return buf.Bytes(), nil
}

// Escape XML-escapes a DIDL-Lite fragment so it can be embedded as the
// character data of the <Result> element of a Browse/Search SOAP
// response, per spec.md §4.2's "escaped once" requirement.
func Escape(fragment []byte) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, fragment)
	return buf.String()
}

// ResultFor builds the fully escaped <Result> payload for a Browse
// response from a set of DIDL objects: marshal, wrap in <DIDL-Lite>,
// escape once.
func ResultFor(objects []interface{}) (string, error) {
	objXML, err := MarshalObjects(objects)
	if err != nil {
		return "", err
	}
	return Escape(Lite(objXML)), nil
}
