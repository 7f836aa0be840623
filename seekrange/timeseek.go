package seekrange

import (
	"fmt"
	"strings"
)

// TSRKind tags one of the eight valid TimeSeekRange combinations.
type TSRKind int

const (
	TSRInvalid TSRKind = iota
	TSRNPT             // npt=xxxx-
	TSRNPTID           // npt=xxxx-/dddd
	TSRNPTNPT          // npt=xxxx-yyyy
	TSRNPTNPTID        // npt=xxxx-yyyy/dddd
	TSRNPTBytes
	TSRNPTIDBytes
	TSRNPTNPTBytes
	TSRNPTNPTIDBytes
)

// TimeSeekRange is a parsed TimeSeekRange.dlna.org header value.
type TimeSeekRange struct {
	Kind TSRKind

	NPTStart         NPT
	NPTEnd           NPT // meaningful for the NPT_NPT* kinds
	InstanceDuration NPT // meaningful for the *_ID* kinds

	HasBytes       bool
	RangeStart     uint64
	RangeEnd       uint64
	InstanceLength NPT // NPTUnknown ("*") or NPTSeconds (an exact length)
}

func isDigitByte(c byte) bool { return c >= '0' && c <= '9' }

// ParseTimeSeek parses a TimeSeekRange.dlna.org header value. Like
// ParseNPT, it never errors: malformed input yields Kind == TSRInvalid.
func ParseTimeSeek(s string) TimeSeekRange {
	if !strings.HasPrefix(s, "npt=") {
		return TimeSeekRange{Kind: TSRInvalid}
	}

	bytesIdx := strings.Index(s, "bytes=")
	minusIdx := strings.IndexByte(s, '-')
	if minusIdx < 0 {
		return TimeSeekRange{Kind: TSRInvalid}
	}
	// The dash must belong to the npt-range, not to the bytes-range.
	if bytesIdx >= 0 && minusIdx >= bytesIdx {
		return TimeSeekRange{Kind: TSRInvalid}
	}

	nptStart := ParseNPT(s[len("npt="):minusIdx])
	if nptStart.Kind == NPTInvalid {
		return TimeSeekRange{Kind: TSRInvalid}
	}
	hasBytes := bytesIdx >= 0
	tail := s[minusIdx+1:]

	var tsr TimeSeekRange
	tsr.NPTStart = nptStart

	switch {
	case tail == "":
		tsr.Kind = TSRNPT

	case isDigitByte(tail[0]):
		nptEnd := ParseNPT(tail)
		if nptEnd.Kind == NPTInvalid {
			return TimeSeekRange{Kind: TSRInvalid}
		}
		tsr.NPTEnd = nptEnd

		// Skip past the npt-end's own characters (digits, ':', '.')
		// until whitespace, '/', or end of string.
		cut := len(tail)
		for i := 0; i < len(tail); i++ {
			switch tail[i] {
			case ' ', '/', '\r', '\n':
				cut = i
			default:
				continue
			}
			break
		}
		rest := tail[cut:]

		switch {
		case strings.HasPrefix(rest, "/"):
			dur := ParseNPT(rest[1:])
			if dur.Kind == NPTInvalid {
				return TimeSeekRange{Kind: TSRInvalid}
			}
			tsr.InstanceDuration = dur
			if hasBytes {
				tsr.Kind = TSRNPTNPTIDBytes
			} else {
				tsr.Kind = TSRNPTNPTID
			}
		case strings.HasPrefix(rest, " "):
			if !hasBytes {
				return TimeSeekRange{Kind: TSRInvalid}
			}
			tsr.Kind = TSRNPTNPTBytes
		case rest == "" || strings.HasPrefix(rest, "\r") || strings.HasPrefix(rest, "\n"):
			tsr.Kind = TSRNPTNPT
		default:
			return TimeSeekRange{Kind: TSRInvalid}
		}

	case tail[0] == ' ':
		// A space after a bare npt-start only makes sense if a
		// bytes-range follows.
		if !hasBytes {
			return TimeSeekRange{Kind: TSRInvalid}
		}
		tsr.Kind = TSRNPTBytes

	case tail[0] == '/':
		dur := ParseNPT(tail[1:])
		if dur.Kind == NPTInvalid {
			return TimeSeekRange{Kind: TSRInvalid}
		}
		tsr.InstanceDuration = dur
		if hasBytes {
			tsr.Kind = TSRNPTIDBytes
		} else {
			tsr.Kind = TSRNPTID
		}

	default:
		return TimeSeekRange{Kind: TSRInvalid}
	}

	if hasBytes {
		start, end, length, ok := parseBytesBlock(s[bytesIdx:])
		if !ok {
			return TimeSeekRange{Kind: TSRInvalid}
		}
		tsr.HasBytes = true
		tsr.RangeStart = start
		tsr.RangeEnd = end
		tsr.InstanceLength = length
	}

	return tsr
}

// parseBytesBlock parses the trailing "bytes=A-B/N" or "bytes=A-B/*" block
// of a TimeSeekRange. This is distinct from ParseBytesRange: the
// instance-length field is mandatory here.
func parseBytesBlock(s string) (start, end uint64, length NPT, ok bool) {
	var n uint64
	if c, _ := fmt.Sscanf(s, "bytes=%d-%d/%d", &start, &end, &n); c == 3 {
		return start, end, NPT{Kind: NPTSeconds, Sec: uint(n)}, true
	}
	var star byte
	if c, _ := fmt.Sscanf(s, "bytes=%d-%d/%c", &start, &end, &star); c == 3 && star == '*' {
		return start, end, NPT{Kind: NPTUnknown}, true
	}
	return 0, 0, NPT{}, false
}

// FormatTimeSeek renders a TimeSeekRange back to its canonical textual
// form, or ("", false) if tsr.Kind is TSRInvalid or a required sub-value
// is itself invalid.
func FormatTimeSeek(tsr TimeSeekRange) (string, bool) {
	if tsr.Kind == TSRInvalid {
		return "", false
	}
	start, ok := FormatNPT(tsr.NPTStart)
	if !ok {
		return "", false
	}

	var body string
	switch tsr.Kind {
	case TSRNPT, TSRNPTBytes:
		body = fmt.Sprintf("npt=%s-", start)

	case TSRNPTID, TSRNPTIDBytes:
		dur, ok := FormatNPT(tsr.InstanceDuration)
		if !ok {
			return "", false
		}
		body = fmt.Sprintf("npt=%s-/%s", start, dur)

	case TSRNPTNPT, TSRNPTNPTBytes:
		end, ok := FormatNPT(tsr.NPTEnd)
		if !ok {
			return "", false
		}
		body = fmt.Sprintf("npt=%s-%s", start, end)

	case TSRNPTNPTID, TSRNPTNPTIDBytes:
		end, ok := FormatNPT(tsr.NPTEnd)
		if !ok {
			return "", false
		}
		dur, ok2 := FormatNPT(tsr.InstanceDuration)
		if !ok2 {
			return "", false
		}
		body = fmt.Sprintf("npt=%s-%s/%s", start, end, dur)

	default:
		return "", false
	}

	if !tsr.HasBytes {
		return body, true
	}
	length, ok := FormatNPT(tsr.InstanceLength)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%s bytes=%d-%d/%s", body, tsr.RangeStart, tsr.RangeEnd, length), true
}
