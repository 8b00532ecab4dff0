package gateway

import (
	"fmt"
	"strconv"
	"strings"
)

// Range is a single parsed byte range from a Range request header. Exactly
// one of the three shapes is populated:
//
//	bytes=N-M   start and end set
//	bytes=N-    start set, open end
//	bytes=-L    suffix set (last L bytes)
type Range struct {
	start  *int64
	end    *int64
	suffix *int64
}

// ParseRange parses a Range header value. Only single byte ranges are
// supported; multi-range requests and non-bytes units fail. An empty header
// returns (nil, nil).
func ParseRange(header string) (*Range, error) {
	if header == "" {
		return nil, nil
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, fmt.Errorf("unsupported range unit in %q", header)
	}
	if strings.Contains(spec, ",") {
		return nil, fmt.Errorf("multiple ranges are not supported")
	}

	first, last, ok := strings.Cut(spec, "-")
	if !ok {
		return nil, fmt.Errorf("malformed range %q", header)
	}

	if first == "" {
		// Suffix form: last L bytes.
		length, err := strconv.ParseInt(last, 10, 64)
		if err != nil || length <= 0 {
			return nil, fmt.Errorf("malformed suffix range %q", header)
		}
		return &Range{suffix: &length}, nil
	}

	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil || start < 0 {
		return nil, fmt.Errorf("malformed range start in %q", header)
	}
	if last == "" {
		return &Range{start: &start}, nil
	}

	end, err := strconv.ParseInt(last, 10, 64)
	if err != nil || end < start {
		return nil, fmt.Errorf("malformed range end in %q", header)
	}
	return &Range{start: &start, end: &end}, nil
}

// Resolve maps the range onto an object of the given size. It returns the
// byte offset, the number of bytes to serve, and the Content-Range header
// value. Ranges that select no bytes of the object are unsatisfiable.
func (r *Range) Resolve(size int64) (offset, length int64, contentRange string, err error) {
	switch {
	case r.suffix != nil:
		if size == 0 {
			return 0, 0, "", fmt.Errorf("suffix range on empty object")
		}
		length = *r.suffix
		if length > size {
			length = size
		}
		offset = size - length

	default:
		offset = *r.start
		if offset >= size {
			return 0, 0, "", fmt.Errorf("range start %d beyond object size %d", offset, size)
		}
		end := size - 1
		if r.end != nil && *r.end < end {
			end = *r.end
		}
		length = end - offset + 1
	}

	// Content-Range carries the inclusive last byte offset.
	contentRange = fmt.Sprintf("bytes %d-%d/%d", offset, offset+length-1, size)
	return offset, length, contentRange, nil
}
