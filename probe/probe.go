// Package probe wraps github.com/anacrolix/ffprobe to produce the Resource
// records the content tree stores against each item, with the same
// path+mtime cache-key pattern the teacher's ffmpegProbe method uses.
package probe

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/anacrolix/ffprobe"
)

// Kind is the coarse media classification a Resource is placed under in
// the content tree (spec.md §3).
type Kind int

const (
	KindUnknown Kind = iota
	KindAudio
	KindPhoto
	KindVideo
	KindAudioVideo
)

func (k Kind) String() string {
	switch k {
	case KindAudio:
		return "audio"
	case KindPhoto:
		return "photo"
	case KindVideo:
		return "video"
	case KindAudioVideo:
		return "audiovideo"
	default:
		return "unknown"
	}
}

// Resource is the probed metadata record for one file, per spec.md §3.
type Resource struct {
	Path        string
	Size        int64
	DurationUs  int64
	Bitrate     int64
	SampleRate  int
	Channels    int
	Width       int
	Height      int
	ProfileName string
	Kind        Kind
	MimeType    string
}

// Cache is the generalization of the teacher's FFProbeCache: an opaque
// key/value store the caller plugs an in-memory map or persistent store
// into.
type Cache interface {
	Set(key interface{}, value interface{})
	Get(key interface{}) (value interface{}, ok bool)
}

// MapCache is a trivial in-memory Cache, used when the caller doesn't
// supply one.
type MapCache struct {
	m map[interface{}]interface{}
}

func NewMapCache() *MapCache { return &MapCache{m: make(map[interface{}]interface{})} }

func (c *MapCache) Set(key, value interface{}) { c.m[key] = value }

func (c *MapCache) Get(key interface{}) (interface{}, bool) {
	v, ok := c.m[key]
	return v, ok
}

// cacheKey mirrors the teacher's ffmpegInfoCacheKey{Path, ModTime}: the
// cache is invalidated whenever the file's mtime changes.
type cacheKey struct {
	Path    string
	ModTime int64
}

// Prober probes a media file for its Resource record.
type Prober interface {
	Probe(path string) (*Resource, error)
}

// FFProber probes with ffprobe, caching results the same way the teacher's
// ffmpegProbe method does: keyed on the absolute path and file mtime.
type FFProber struct {
	Cache Cache
}

// NewFFProber builds an FFProber with an in-memory cache.
func NewFFProber() *FFProber {
	return &FFProber{Cache: NewMapCache()}
}

func (p *FFProber) Probe(path string) (*Resource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	key := cacheKey{abs, fi.ModTime().UnixNano()}
	if v, ok := p.Cache.Get(key); ok {
		if v == nil {
			return nil, fmt.Errorf("probe: cached probe failure for %s", abs)
		}
		return v.(*Resource), nil
	}
	info, err := ffprobe.Run(abs)
	if err != nil {
		p.Cache.Set(key, nil)
		return nil, err
	}
	res := fromFFProbeInfo(abs, fi.Size(), info)
	p.Cache.Set(key, res)
	return res, nil
}

func fromFFProbeInfo(path string, size int64, info *ffprobe.Info) *Resource {
	res := &Resource{Path: path, Size: size}
	if d, err := info.Duration(); err == nil {
		res.DurationUs = d.Microseconds()
	}
	hasVideo, hasAudio := false, false
	for _, s := range info.Streams {
		codecType, _ := s["codec_type"].(string)
		switch codecType {
		case "video":
			hasVideo = true
			if w, ok := s["width"].(float64); ok {
				res.Width = int(w)
			}
			if h, ok := s["height"].(float64); ok {
				res.Height = int(h)
			}
		case "audio":
			hasAudio = true
			if sr, ok := s["sample_rate"].(string); ok {
				fmt.Sscanf(sr, "%d", &res.SampleRate)
			}
			if ch, ok := s["channels"].(float64); ok {
				res.Channels = int(ch)
			}
		}
	}
	switch {
	case hasVideo && hasAudio:
		res.Kind = KindAudioVideo
	case hasVideo:
		res.Kind = KindVideo
	case hasAudio:
		res.Kind = KindAudio
	default:
		res.Kind = KindPhoto
	}
	if formatName, ok := info.Format["format_name"].(string); ok {
		res.ProfileName = strings.ToUpper(strings.SplitN(formatName, ",", 2)[0])
	}
	return res
}
