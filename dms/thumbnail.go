package dms

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"time"

	"github.com/nfnt/resize"
)

const thumbnailMaxDimension = 160

// serveThumbnail serves a resized JPEG preview of the image named by the
// "path" query parameter, replacing the teacher's ffmpegthumbnailer
// exec.Command shellout with in-process decoding and resizing. It falls
// back to the device's first icon on any failure, matching the teacher's
// own serveIcon fallback.
func (srv *Server) serveThumbnail(w http.ResponseWriter, r *http.Request) {
	if !srv.peerAllowed(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	filePath := safeFilePath(srv.DocRootPath, r.URL.Query().Get("path"))

	body, ok := srv.thumbnailBytes(filePath)
	if !ok {
		srv.serveFallbackIcon(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeContent(w, r, "", time.Now(), bytes.NewReader(body))
}

func (srv *Server) thumbnailBytes(filePath string) ([]byte, bool) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, false
	}
	thumb := resize.Thumbnail(thumbnailMaxDimension, thumbnailMaxDimension, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 85}); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

func (srv *Server) serveFallbackIcon(w http.ResponseWriter, r *http.Request) {
	if len(srv.Icons) == 0 {
		http.Error(w, "no icon available", http.StatusInternalServerError)
		return
	}
	icon := srv.Icons[0]
	w.Header().Set("Content-Type", icon.Mimetype)
	http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(icon.Bytes))
}
