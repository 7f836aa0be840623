// Package seekrange implements the DLNA Normal Play Time, bytes-range and
// TimeSeekRange grammars (DLNA 7.4.40.5, 7.4.67.2) as pure parse/format
// functions with no side effects.
package seekrange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalid is the error callers return when a parse function here
// yields an invalid-tagged value; the parse functions themselves return no
// error. Callers that need an HTTP status should map this to 416 (Range /
// TimeSeekRange) or 400, per DLNA 7.4.75/7.4.78.
var ErrInvalid = errors.New("seekrange: invalid syntax")

// NPTKind tags the variant of a Normal Play Time value.
type NPTKind int

const (
	NPTInvalid NPTKind = iota
	NPTUnknown         // "*"
	NPTNow             // "now"
	NPTSeconds         // DDDD
	NPTSecondsMillis   // DDDD.DDD
	NPTHHMMSS          // HH:MM:SS
	NPTHHMMSSMillis    // HH:MM:SS.DDD
)

// NPT is a parsed Normal Play Time value. Only the fields relevant to Kind
// are meaningful.
type NPT struct {
	Kind NPTKind

	Sec   uint // whole seconds, for NPTSeconds/NPTSecondsMillis
	Milli uint // fractional part, for NPTSecondsMillis

	HH, MM, SS uint
	Low        uint // fractional part, for NPTHHMMSSMillis
}

// Unknown reports an NPT value of "*", used when a duration/length is not
// known at the time of the request.
func Unknown() NPT { return NPT{Kind: NPTUnknown} }

// ParseNPT parses a Normal Play Time value per DLNA 7.4.40.5 / UPnP AV
// TimeSeekRange Annex A. It never fails: malformed input yields a value
// with Kind == NPTInvalid, matching the original C parser's contract of
// returning a well-formed-but-invalid result rather than propagating an
// exception.
func ParseNPT(s string) NPT {
	switch {
	case s == "":
		return NPT{Kind: NPTInvalid}
	case s[0] == '*':
		return NPT{Kind: NPTUnknown}
	case strings.HasPrefix(s, "now"):
		return NPT{Kind: NPTNow}
	case !strings.ContainsRune(s, ':'):
		if dot := strings.IndexByte(s, '.'); dot >= 0 {
			var hi, lo uint
			if n, _ := fmt.Sscanf(s, "%d.%d", &hi, &lo); n < 2 {
				return NPT{Kind: NPTInvalid}
			}
			return NPT{Kind: NPTSecondsMillis, Sec: hi, Milli: lo}
		}
		var hi uint
		if n, _ := fmt.Sscanf(s, "%d", &hi); n < 1 {
			return NPT{Kind: NPTInvalid}
		}
		return NPT{Kind: NPTSeconds, Sec: hi}
	default:
		var hh, mm, ss, low uint
		if strings.ContainsRune(s, '.') {
			if n, _ := fmt.Sscanf(s, "%d:%d:%d.%d", &hh, &mm, &ss, &low); n < 4 {
				return NPT{Kind: NPTInvalid}
			}
			if mm > 59 || ss > 59 {
				return NPT{Kind: NPTInvalid}
			}
			return NPT{Kind: NPTHHMMSSMillis, HH: hh, MM: mm, SS: ss, Low: low}
		}
		if n, _ := fmt.Sscanf(s, "%d:%d:%d", &hh, &mm, &ss); n < 3 {
			return NPT{Kind: NPTInvalid}
		}
		if mm > 59 || ss > 59 {
			return NPT{Kind: NPTInvalid}
		}
		return NPT{Kind: NPTHHMMSS, HH: hh, MM: mm, SS: ss}
	}
}

// FormatNPT renders an NPT value back to its canonical textual form, or
// ("", false) if npt.Kind is NPTInvalid.
func FormatNPT(npt NPT) (string, bool) {
	switch npt.Kind {
	case NPTUnknown:
		return "*", true
	case NPTNow:
		return "now", true
	case NPTSeconds:
		return strconv.FormatUint(uint64(npt.Sec), 10), true
	case NPTSecondsMillis:
		return fmt.Sprintf("%d.%d", npt.Sec, npt.Milli), true
	case NPTHHMMSS:
		return fmt.Sprintf("%d:%02d:%02d", npt.HH, npt.MM, npt.SS), true
	case NPTHHMMSSMillis:
		return fmt.Sprintf("%d:%02d:%02d.%d", npt.HH, npt.MM, npt.SS, npt.Low), true
	default:
		return "", false
	}
}
