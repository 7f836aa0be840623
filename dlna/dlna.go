// Package dlna adds the DLNA-specific HTTP header handling (contentFeatures,
// TimeSeekRange, transferMode) on top of the pure seekrange grammar: header
// name constants, the DLNA.ORG_PN/OP/CI/FLAGS ContentFeatures string
// builder, and cross-header validation.
package dlna

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stefanop/yada/seekrange"
)

// DLNA HTTP header names, per DLNA 7.4.40/7.4.75/7.4.78.
const (
	TimeSeekRangeDomain   = "TimeSeekRange.dlna.org"
	ContentFeaturesDomain = "contentFeatures.dlna.org"
	GetContentFeatures    = "getcontentFeatures.dlna.org"
	TransferModeDomain    = "transferMode.dlna.org"
	FriendlyNameDomain    = "friendlyName.dlna.org"
	GetMediaInfoDomain    = "getMediaInfo.sec"
	GetCaptionInfoDomain  = "getCaptionInfo.sec"
)

// Transfer mode values accepted by transferMode.dlna.org.
const (
	TransferModeStreaming   = "Streaming"
	TransferModeInteractive = "Interactive"
	TransferModeBackground  = "Background"
)

// ContentFeatures builds a DLNA.ORG_PN/_OP/_CI/_FLAGS protocolInfo suffix,
// matching the teacher's dlna.ContentFeatures type used in transcodeResources
// and serveDLNATranscode.
type ContentFeatures struct {
	ProfileName     string
	SupportTimeSeek bool
	SupportRange    bool
	Transcoded      bool
	// Flags, if set, overrides the computed DLNA.ORG_FLAGS value entirely.
	Flags string
}

// String renders the ContentFeatures as the semicolon-joined
// DLNA.ORG_PN=...;DLNA.ORG_OP=...;DLNA.ORG_CI=...;DLNA.ORG_FLAGS=...
// suffix, per spec.md §4.2's res protocolInfo shape.
func (cf ContentFeatures) String() string {
	var parts []string
	if cf.ProfileName != "" {
		parts = append(parts, "DLNA.ORG_PN="+cf.ProfileName)
	}
	op := "00"
	if cf.SupportTimeSeek {
		op = "1" + op[1:]
	}
	if cf.SupportRange {
		op = op[:1] + "1"
	}
	parts = append(parts, "DLNA.ORG_OP="+op)
	ci := "0"
	if cf.Transcoded {
		ci = "1"
	}
	parts = append(parts, "DLNA.ORG_CI="+ci)
	flags := cf.Flags
	if flags == "" {
		flags = "01500000000000000000000000000000"
	}
	parts = append(parts, "DLNA.ORG_FLAGS="+flags)
	return strings.Join(parts, ";")
}

// NPTRange is a resolved time window, converted from seekrange.NPT values
// to durations for callers that need to compute byte offsets against a
// probed media duration.
type NPTRange struct {
	Start, End time.Duration
}

func nptToDuration(n seekrange.NPT) (time.Duration, bool) {
	switch n.Kind {
	case seekrange.NPTSeconds:
		return time.Duration(n.Sec) * time.Second, true
	case seekrange.NPTSecondsMillis:
		return time.Duration(n.Sec)*time.Second + time.Duration(n.Milli)*time.Millisecond, true
	case seekrange.NPTHHMMSS:
		return time.Duration(n.HH)*time.Hour + time.Duration(n.MM)*time.Minute + time.Duration(n.SS)*time.Second, true
	case seekrange.NPTHHMMSSMillis:
		return time.Duration(n.HH)*time.Hour + time.Duration(n.MM)*time.Minute + time.Duration(n.SS)*time.Second + time.Duration(n.Low)*time.Millisecond, true
	case seekrange.NPTNow:
		return 0, true
	default:
		return 0, false
	}
}

// ParseNPTRange parses the npt= value (without the "npt=" prefix) of a
// TimeSeekRange.dlna.org header into a start/end duration pair, wrapping
// seekrange.ParseTimeSeek. End is zero if the header specified no end.
func ParseNPTRange(s string) (NPTRange, error) {
	tsr := seekrange.ParseTimeSeek("npt=" + s)
	if tsr.Kind == seekrange.TSRInvalid {
		return NPTRange{}, seekrange.ErrInvalid
	}
	start, ok := nptToDuration(tsr.NPTStart)
	if !ok {
		return NPTRange{}, seekrange.ErrInvalid
	}
	var end time.Duration
	switch tsr.Kind {
	case seekrange.TSRNPTNPT, seekrange.TSRNPTNPTID, seekrange.TSRNPTNPTBytes, seekrange.TSRNPTNPTIDBytes:
		e, ok := nptToDuration(tsr.NPTEnd)
		if !ok {
			return NPTRange{}, seekrange.ErrInvalid
		}
		end = e
	}
	return NPTRange{Start: start, End: end}, nil
}

// ValidateHeaders applies spec.md §4.4's cross-header validation: the
// transferMode.dlna.org header, when present, must name one of the three
// modes DLNA defines, and a TimeSeekRange.dlna.org request against a
// non-Streaming transferMode is rejected, since seeking only makes sense
// for a streaming transfer.
func ValidateHeaders(h http.Header) error {
	mode := h.Get(TransferModeDomain)
	if mode != "" && mode != TransferModeStreaming && mode != TransferModeInteractive && mode != TransferModeBackground {
		return fmt.Errorf("dlna: unrecognized %s %q", TransferModeDomain, mode)
	}
	if (mode == TransferModeInteractive || mode == TransferModeBackground) &&
		h.Get(TimeSeekRangeDomain) != "" {
		return fmt.Errorf("dlna: %s with transferMode %s", TimeSeekRangeDomain, mode)
	}
	return nil
}

// ValidateGetContentFeatures checks the getcontentFeatures.dlna.org
// request header, which must be exactly "1" when present.
func ValidateGetContentFeatures(h http.Header) error {
	if v := h.Get(GetContentFeatures); v != "" && v != "1" {
		return fmt.Errorf("dlna: %s must be 1, got %q", GetContentFeatures, v)
	}
	return nil
}
