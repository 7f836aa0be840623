package cds

import "github.com/stefanop/yada/probe"

// mediaInfo is the extension/MIME/upnp:class triple a Resource's Kind (and,
// where set, its probed MIME type) maps to, grounded on
// original_source/inc/mime.h and inc/profiles.h.
type mediaInfo struct {
	ext   string
	mime  string
	class string
}

func (o *object) mediaInfo() mediaInfo {
	if o.resource != nil && o.resource.MimeType != "" {
		return mediaInfo{ext: extForMime(o.resource.MimeType), mime: o.resource.MimeType, class: classForKind(o.resource.Kind)}
	}
	switch o.resource.Kind {
	case probe.KindAudio:
		return mediaInfo{ext: "mp3", mime: "audio/mpeg", class: "object.item.audioItem.musicTrack"}
	case probe.KindPhoto:
		return mediaInfo{ext: "jpg", mime: "image/jpeg", class: "object.item.imageItem.photo"}
	default: // video, audiovideo
		return mediaInfo{ext: "mp4", mime: "video/mp4", class: "object.item.videoItem.movie"}
	}
}

func classForKind(k probe.Kind) string {
	switch k {
	case probe.KindAudio:
		return "object.item.audioItem.musicTrack"
	case probe.KindPhoto:
		return "object.item.imageItem.photo"
	default:
		return "object.item.videoItem.movie"
	}
}

func extForMime(mime string) string {
	switch mime {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "audio/mpeg":
		return "mp3"
	case "audio/mp4":
		return "m4a"
	case "audio/x-ms-wma":
		return "wma"
	case "video/mp4":
		return "mp4"
	case "video/x-ms-wmv":
		return "wmv"
	case "video/mpeg":
		return "mpg"
	default:
		return "bin"
	}
}
