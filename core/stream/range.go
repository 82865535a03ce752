package stream

import (
	"fmt"
	"strconv"
	"strings"

	"gatedfm/core/errs"
)

// Range is a satisfiable client range, inclusive on both ends, relative to
// the start of the effective window.
type Range struct {
	Start int64
	End   int64
}

// Len returns the number of bytes the range covers.
func (r Range) Len() int64 { return r.End - r.Start + 1 }

// ContentRange formats the Content-Range value against a window of size bytes.
func (r Range) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// ParseRange interprets a Range header against a window of size bytes.
//
// A nil Range with a nil error means the whole window should be served: the
// header is absent, uses another unit, lists several ranges or cannot be
// parsed. errs.ErrRangeNotSatisfiable is returned for a well-formed range
// that starts at or past the window end, has start > end, or carries a
// negative value. An end past the window is clamped to the last byte.
func ParseRange(header string, size int64) (*Range, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, nil
	}
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok || strings.Contains(spec, ",") {
		return nil, nil
	}
	startStr, endStr, ok := strings.Cut(strings.TrimSpace(spec), "-")
	if !ok {
		return nil, nil
	}
	startStr = strings.TrimSpace(startStr)
	endStr = strings.TrimSpace(endStr)

	// Suffix form: bytes=-N is the last N bytes. A second dash means the
	// start itself was negative.
	if startStr == "" {
		if neg, rest, ok := strings.Cut(endStr, "-"); ok {
			_, _, negOK := parseBound(neg)
			_, _, restOK := parseBound(rest)
			if negOK && (rest == "" || restOK) {
				return nil, unsatisfiable(header, size)
			}
			return nil, nil
		}
		n, _, ok := parseBound(endStr)
		if !ok {
			return nil, nil
		}
		if n <= 0 || size <= 0 {
			return nil, unsatisfiable(header, size)
		}
		if n > size {
			n = size
		}
		return &Range{Start: size - n, End: size - 1}, nil
	}

	start, _, ok := parseBound(startStr)
	if !ok {
		return nil, nil
	}
	end := size - 1
	if endStr != "" {
		var neg bool
		end, neg, ok = parseBound(endStr)
		if !ok {
			return nil, nil
		}
		if neg {
			return nil, unsatisfiable(header, size)
		}
	}
	if start >= size || start > end {
		return nil, unsatisfiable(header, size)
	}
	if end >= size {
		end = size - 1
	}
	return &Range{Start: start, End: end}, nil
}

// parseBound reads a decimal byte position. Only digits are accepted, with an
// optional leading minus reported through neg; a plus sign is malformed.
func parseBound(s string) (n int64, neg, ok bool) {
	digits, neg := strings.CutPrefix(s, "-")
	if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return 0, false, false
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false, false
	}
	return n, neg, true
}

func unsatisfiable(header string, size int64) error {
	return fmt.Errorf("%q against %d bytes: %w", header, size, errs.ErrRangeNotSatisfiable)
}
