// Package upnpav holds the DIDL-Lite object model: the container/item
// shapes the ContentDirectory service exposes to control points.
package upnpav

// Resource is a DIDL-Lite <res> element: a playable/viewable rendition of
// an item, with its protocol/MIME info and known size/duration.
type Resource struct {
	ProtocolInfo string `xml:"protocolInfo,attr"`
	URL          string `xml:",chardata"`
	Size         uint64 `xml:"size,attr,omitempty"`
	Bitrate      uint   `xml:"bitrate,attr,omitempty"`
	Duration     string `xml:"duration,attr,omitempty"`
	Resolution   string `xml:"resolution,attr,omitempty"`
}

// Object is the set of fields common to every DIDL-Lite object, container
// or item alike.
type Object struct {
	ID          string `xml:"id,attr"`
	ParentID    string `xml:"parentID,attr"`
	Restricted  int    `xml:"restricted,attr"` // 1 or 0, required by UPnP AV spec
	Class       string `xml:"upnp:class"`
	Icon        string `xml:"upnp:icon,omitempty"`
	Title       string `xml:"dc:title"`
	Artist      string `xml:"upnp:artist,omitempty"`
	Album       string `xml:"upnp:album,omitempty"`
	Genre       string `xml:"upnp:genre,omitempty"`
	AlbumArtURI string `xml:"upnp:albumArtURI,omitempty"`
}

// Container is a DIDL-Lite <container> element: a folder.
type Container struct {
	Object
	XMLName    struct{} `xml:"container"`
	ChildCount int      `xml:"childCount,attr"`
	Searchable int      `xml:"searchable,attr,omitempty"`
}

// Item is a DIDL-Lite <item> element: a playable object, with one or more
// alternative <res> renditions.
type Item struct {
	Object
	XMLName struct{} `xml:"item"`
	Res     []Resource `xml:"res"`
}

// Well-known upnp:class values per spec.md §4.2.
const (
	ClassContainer  = "object.container"
	ClassMusicTrack = "object.item.audioItem.musicTrack"
	ClassPhoto      = "object.item.imageItem.photo"
	ClassMovie      = "object.item.videoItem.movie"
)
