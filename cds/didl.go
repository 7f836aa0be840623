package cds

import (
	"fmt"

	"github.com/stefanop/yada/dlna"
	"github.com/stefanop/yada/upnpav"
)

func parentID(o *object) string {
	if o.parent == nil {
		return "-1"
	}
	return o.parent.id
}

// toDIDL converts one tree object into its DIDL-Lite representation, per
// spec.md §4.2's per-object rules. host is "ip:port" for building the
// item resource URL.
func (t *Tree) toDIDL(o *object, host string) interface{} {
	if o.kind == objFolder {
		return &upnpav.Container{
			Object: upnpav.Object{
				ID:         o.id,
				ParentID:   parentID(o),
				Restricted: 1,
				Class:      upnpav.ClassContainer,
				Title:      o.name,
			},
			ChildCount: o.numChildren,
		}
	}

	info := o.mediaInfo()
	res := o.resource
	cf := dlna.ContentFeatures{
		ProfileName:     res.ProfileName,
		SupportTimeSeek: true,
		SupportRange:    true,
	}
	url := fmt.Sprintf("http://%s/%s.%s", host, o.id, info.ext)
	item := &upnpav.Item{
		Object: upnpav.Object{
			ID:         o.id,
			ParentID:   parentID(o),
			Restricted: 1,
			Class:      info.class,
		},
		Res: []upnpav.Resource{{
			ProtocolInfo: fmt.Sprintf("http-get:*:%s:%s", info.mime, cf.String()),
			URL:          url,
			Size:         uint64(res.Size),
		}},
	}
	item.Object.Title = o.name
	if res.DurationUs > 0 {
		item.Res[0].Duration = formatDuration(res.DurationUs)
	}
	if res.Width > 0 && res.Height > 0 {
		item.Res[0].Resolution = fmt.Sprintf("%dx%d", res.Width, res.Height)
	}
	return item
}

// formatDuration renders a microsecond duration as H:MM:SS.mmm, the form
// UPnP AV res@duration expects.
func formatDuration(us int64) string {
	ms := us / 1000
	h := ms / 3600000
	ms -= h * 3600000
	m := ms / 60000
	ms -= m * 60000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, ms)
}
