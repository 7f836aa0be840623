package seekrange

import "fmt"

// BytesRangeKind tags the variant of a bytes-range value.
type BytesRangeKind int

const (
	BytesRangeInvalid BytesRangeKind = iota
	BytesRangeOpen                   // bytes=N-
	BytesRangeClosed                 // bytes=N-M
)

// BytesRange is a parsed HTTP byte-range specifier, restricted to the
// single-range form DLNA permits (no multi-range, no suffix-range).
type BytesRange struct {
	Kind  BytesRangeKind
	First uint64
	Last  uint64
}

const bytesRangePrefix = "bytes="

// ParseBytesRange parses a "Range" (or DLNA "bytes=" sub-range) value. The
// "bytes=" literal is matched case-sensitively, per DLNA 7.4.47.1. Failure
// yields a value with Kind == BytesRangeInvalid rather than an error;
// range-meaning validation (e.g. first > last) is left to the file server,
// not this grammar, per spec.
func ParseBytesRange(s string) BytesRange {
	if len(s) < len(bytesRangePrefix) || s[:len(bytesRangePrefix)] != bytesRangePrefix {
		return BytesRange{Kind: BytesRangeInvalid}
	}
	rest := s[len(bytesRangePrefix):]

	var first, last uint64
	if n, _ := fmt.Sscanf(rest, "%d-%d", &first, &last); n == 2 {
		return BytesRange{Kind: BytesRangeClosed, First: first, Last: last}
	}

	var dash byte
	if n, _ := fmt.Sscanf(rest, "%d%c", &first, &dash); n == 2 && dash == '-' {
		return BytesRange{Kind: BytesRangeOpen, First: first}
	}

	return BytesRange{Kind: BytesRangeInvalid}
}

// FormatBytesRange renders a bytes-range back to its canonical textual
// form. An invalid value formats to "".
func FormatBytesRange(br BytesRange) string {
	switch br.Kind {
	case BytesRangeOpen:
		return fmt.Sprintf("bytes=%d-", br.First)
	case BytesRangeClosed:
		return fmt.Sprintf("bytes=%d-%d", br.First, br.Last)
	default:
		return ""
	}
}
