package cds

import (
	"encoding/xml"
	"net/http"
	"net/url"
	"strconv"

	"github.com/stefanop/yada/didl"
	"github.com/stefanop/yada/upnp"
)

// SystemUpdateID is fixed at "1": this design never mutates the tree at
// runtime after the initial share walk, so any strictly-monotonic policy
// (including a constant) satisfies spec.md §4.3.
const SystemUpdateID = "1"

// Service implements the dms.UPnPService interface for
// urn:schemas-upnp-org:service:ContentDirectory:1, dispatching by action
// name the way cds_dispatch_action does in cds.c.
type Service struct {
	Tree *Tree
	// Host returns the "ip:port" used to build item resource URLs.
	Host func() string
	// EnableVendorIndex gates X_GetObjectIDfromIndex, per spec.md §9's
	// "feature-gate it" guidance for this underspecified vendor action.
	EnableVendorIndex bool
}

type browseRequest struct {
	XMLName        xml.Name
	ObjectID       string `xml:"ObjectID"`
	BrowseFlag     string `xml:"BrowseFlag"`
	Filter         string `xml:"Filter"`
	StartingIndex  int    `xml:"StartingIndex"`
	RequestedCount int    `xml:"RequestedCount"`
	SortCriteria   string `xml:"SortCriteria"`
}

type objectIDFromIndexRequest struct {
	XMLName      xml.Name
	CategoryType int `xml:"CategoryType"`
	Index        int `xml:"Index"`
}

// Handle dispatches a SOAP action by name. argsXML is the raw, still
// namespace-qualified XML of the action element (the SOAP Body's single
// child), matching the teacher's UPnPService.Handle contract.
func (s *Service) Handle(action string, argsXML []byte, r *http.Request) ([][2]string, error) {
	switch action {
	case "GetSearchCapabilities":
		return [][2]string{{"SearchCaps", ""}}, nil
	case "GetSortCapabilities":
		return [][2]string{{"SortCaps", ""}}, nil
	case "GetSystemUpdateID":
		return [][2]string{{"Id", SystemUpdateID}}, nil
	case "Browse":
		return s.handleBrowse(argsXML)
	case "X_GetObjectIDfromIndex":
		return s.handleObjectIDFromIndex(argsXML)
	default:
		return nil, upnp.Errorf(upnp.CannotProcessRequestErrorCode, "unrecognized action %q", action)
	}
}

// Subscribe and Unsubscribe implement GENA eventing as an explicit 501
// stub: this design advertises no eventing (UpdateID is always 0, per
// spec.md §4.3), so there is nothing to subscribe to.
func (s *Service) Subscribe(callback []*url.URL, timeoutSeconds int) (sid string, actualTimeout int, err error) {
	return "", 0, upnp.Errorf(upnp.ActionFailedErrorCode, "eventing not implemented")
}

func (s *Service) Unsubscribe(sid string) error {
	return upnp.Errorf(upnp.ActionFailedErrorCode, "eventing not implemented")
}

func (s *Service) handleBrowse(argsXML []byte) ([][2]string, error) {
	var req browseRequest
	if err := xml.Unmarshal(argsXML, &req); err != nil {
		return nil, upnp.Errorf(upnp.InvalidArgsErrorCode, "malformed Browse arguments: %s", err)
	}

	obj, ok := s.Tree.find(req.ObjectID)
	if !ok {
		return nil, upnp.Errorf(upnp.NoSuchObjectErrorCode, "no such object: %s", req.ObjectID)
	}
	host := s.Host()

	switch req.BrowseFlag {
	case "BrowseMetadata":
		result, err := didl.ResultFor([]interface{}{s.Tree.toDIDL(obj, host)})
		if err != nil {
			return nil, upnp.Errorf(upnp.ActionFailedErrorCode, "%s", err)
		}
		return browseResponseArgs(result, 1, 1), nil

	case "BrowseDirectChildren":
		kids := children(obj)
		total := len(kids)
		start := req.StartingIndex
		if start > total {
			start = total
		}
		end := total
		if req.RequestedCount != 0 && start+req.RequestedCount < total {
			end = start + req.RequestedCount
		}
		selected := kids[start:end]
		objs := make([]interface{}, len(selected))
		for i, c := range selected {
			objs[i] = s.Tree.toDIDL(c, host)
		}
		result, err := didl.ResultFor(objs)
		if err != nil {
			return nil, upnp.Errorf(upnp.ActionFailedErrorCode, "%s", err)
		}
		return browseResponseArgs(result, len(selected), total), nil

	default:
		return nil, upnp.Errorf(upnp.CannotProcessRequestErrorCode, "unknown BrowseFlag %q", req.BrowseFlag)
	}
}

func browseResponseArgs(result string, numberReturned, totalMatches int) [][2]string {
	return [][2]string{
		{"Result", result},
		{"NumberReturned", strconv.Itoa(numberReturned)},
		{"TotalMatches", strconv.Itoa(totalMatches)},
		{"UpdateID", "0"},
	}
}

func (s *Service) handleObjectIDFromIndex(argsXML []byte) ([][2]string, error) {
	if !s.EnableVendorIndex {
		return nil, upnp.Errorf(upnp.CannotProcessRequestErrorCode, "X_GetObjectIDfromIndex is disabled")
	}
	var req objectIDFromIndexRequest
	if err := xml.Unmarshal(argsXML, &req); err != nil {
		return nil, upnp.Errorf(upnp.InvalidArgsErrorCode, "malformed X_GetObjectIDfromIndex arguments: %s", err)
	}
	var st subtree
	switch req.CategoryType {
	case 0:
		st = subtreeMusic
	case 1:
		st = subtreePhoto
	case 2:
		st = subtreeVideo
	default:
		return nil, upnp.Errorf(upnp.CannotProcessRequestErrorCode, "unrecognized CategoryType %d", req.CategoryType)
	}
	kids := children(s.Tree.roots[st])
	if req.Index < 0 || req.Index >= len(kids) {
		return nil, upnp.Errorf(upnp.NoSuchObjectErrorCode, "index %d out of range", req.Index)
	}
	return [][2]string{{"ObjectID", kids[req.Index].id}}, nil
}
