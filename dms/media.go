package dms

import (
	"bytes"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/stefanop/yada/dlna"
	"github.com/stefanop/yada/probe"
	"github.com/stefanop/yada/seekrange"
)

// rootHandler serves spec.md §6's "/" pattern: a content-tree item id with
// its extension stripped, or, failing that, a static path under
// DocRootPath, matching the teacher's dual-purpose root route.
func (srv *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	if !srv.peerAllowed(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if err := dlna.ValidateHeaders(r.Header); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := dlna.ValidateGetContentFeatures(r.Header); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if id, ok := splitItemID(r.URL.Path); ok {
		if info, ok := srv.tree.Item(id); ok {
			srv.serveMediaFile(w, r, info.Path, info.MimeType, info.Resource)
			return
		}
	}

	filePath := safeFilePath(srv.DocRootPath, r.URL.Path)
	fi, err := os.Stat(filePath)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if fi.IsDir() {
		srv.serveDirListing(w, r, filePath)
		return
	}
	srv.serveMediaFile(w, r, filePath, "", nil)
}

// splitItemID extracts the 32-hex item id from a "/<id>.<ext>" request
// path, per spec.md §6's media endpoint pattern.
func splitItemID(urlPath string) (string, bool) {
	base := strings.TrimPrefix(urlPath, "/")
	ext := filepath.Ext(base)
	if ext == "" {
		return "", false
	}
	id := strings.TrimSuffix(base, ext)
	if len(id) != 32 || strings.ContainsAny(id, "/\\") {
		return "", false
	}
	for _, c := range id {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return "", false
		}
	}
	return id, true
}

// safeFilePath confines given to root, matching the teacher's function of
// the same name: a leading "/" is forced so path.Clean can't escape root
// via "..".
func safeFilePath(root, given string) string {
	return filepath.Join(root, filepath.FromSlash(path.Clean("/"+given))[1:])
}

func (srv *Server) serveDirListing(w http.ResponseWriter, r *http.Request, dirPath string) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html><html><body><ul>\n")
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		b.WriteString("<li><a href=\"" + name + "\">" + name + "</a></li>\n")
	}
	b.WriteString("</ul></body></html>\n")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(b.Bytes()))
}

// serveMediaFile streams filePath, honoring Range and TimeSeekRange.dlna.org
// the way the teacher's handleDLNARange computed a partial response, but
// serving bytes directly rather than through a transcode pipeline.
// resource is the item's already-probed metadata when known (nil for
// static directory serving, where TimeSeekRange then has no duration to
// project against).
func (srv *Server) serveMediaFile(w http.ResponseWriter, r *http.Request, filePath, mimeType string, resource *probe.Resource) {
	f, err := os.Open(filePath)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if mimeType == "" {
		mimeType = mimeTypeByExtension(filePath)
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set(dlna.TransferModeDomain, "Streaming")
	w.Header().Set(dlna.ContentFeaturesDomain, (dlna.ContentFeatures{
		SupportTimeSeek: resource != nil,
		SupportRange:    true,
	}).String())

	if tsr := r.Header.Get(dlna.TimeSeekRangeDomain); tsr != "" {
		srv.serveTimeSeekRange(w, r, f, fi, tsr, resource)
		return
	}

	http.ServeContent(w, r, filepath.Base(filePath), fi.ModTime(), f)
}

// serveTimeSeekRange maps a TimeSeekRange.dlna.org request onto a byte
// range by projecting the header's start/end instants linearly across the
// file against resource's probed duration, then delegates the actual byte
// transfer to http.ServeContent via a synthesized Range header.
func (srv *Server) serveTimeSeekRange(w http.ResponseWriter, r *http.Request, f *os.File, fi os.FileInfo, header string, resource *probe.Resource) {
	nptRange, err := dlna.ParseNPTRange(strings.TrimPrefix(header, "npt="))
	if err != nil {
		http.Error(w, err.Error(), http.StatusRequestedRangeNotSatisfiable)
		return
	}

	if resource == nil || resource.DurationUs <= 0 {
		// No known duration to project the seek onto: acknowledge the
		// header but serve the whole file, per DLNA 7.4.40.5's allowance
		// for "*" instance duration.
		w.Header().Set(dlna.TimeSeekRangeDomain, header+"/*")
		http.ServeContent(w, r, filepath.Base(f.Name()), fi.ModTime(), f)
		return
	}

	size := fi.Size()
	start := bytesForDuration(nptRange.Start, resource.DurationUs, size)
	end := size - 1
	if nptRange.End > 0 {
		end = bytesForDuration(nptRange.End, resource.DurationUs, size)
	}
	if start >= size || end < start {
		w.Header().Set("Content-Range", "bytes */"+strconv.FormatInt(size, 10))
		http.Error(w, seekrange.ErrInvalid.Error(), http.StatusRequestedRangeNotSatisfiable)
		return
	}

	w.Header().Set(dlna.TimeSeekRangeDomain, header+"/*")
	r.Header.Set("Range", seekrange.FormatBytesRange(seekrange.BytesRange{
		Kind: seekrange.BytesRangeClosed, First: uint64(start), Last: uint64(end),
	}))
	http.ServeContent(w, r, filepath.Base(f.Name()), fi.ModTime(), f)
}

func bytesForDuration(d time.Duration, durationUs int64, size int64) int64 {
	if durationUs <= 0 {
		return 0
	}
	frac := float64(d.Microseconds()) / float64(durationUs)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return int64(frac * float64(size))
}

func mimeTypeByExtension(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".mp3":
		return "audio/mpeg"
	case ".m4a":
		return "audio/mp4"
	case ".wma":
		return "audio/x-ms-wma"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".wmv":
		return "video/x-ms-wmv"
	case ".mpg", ".mpeg":
		return "video/mpeg"
	default:
		return "application/octet-stream"
	}
}
