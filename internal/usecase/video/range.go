package video

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidRange marks a Range header that is malformed or multi-part.
// Callers fall back to serving the full content, per RFC 7233.
var ErrInvalidRange = errors.New("video: invalid range header")

// ByteRange is an inclusive byte span [Start, End].
type ByteRange struct {
	Start int64
	End   int64
}

func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange renders the span as a Content-Range header value.
func (r ByteRange) ContentRange(total int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, total)
}

// ParseRange parses a single "bytes=start-end" specification against the
// total asset size. A start at or past the end of the asset yields
// ErrRangeNotSatisfiable; syntactically broken or multi-part headers yield
// ErrInvalidRange.
func ParseRange(header string, size int64) (ByteRange, error) {
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return ByteRange{}, ErrInvalidRange
	}

	spec := strings.TrimPrefix(header, prefix)
	if strings.Contains(spec, ",") {
		return ByteRange{}, ErrInvalidRange
	}

	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return ByteRange{}, ErrInvalidRange
	}
	startStr := strings.TrimSpace(parts[0])
	endStr := strings.TrimSpace(parts[1])

	var r ByteRange

	if startStr == "" {
		// suffix range: bytes=-500 means the last 500 bytes
		if endStr == "" {
			return ByteRange{}, ErrInvalidRange
		}
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n <= 0 {
			return ByteRange{}, ErrInvalidRange
		}
		if n > size {
			n = size
		}
		r.Start = size - n
		r.End = size - 1
		return r, nil
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return ByteRange{}, ErrInvalidRange
	}
	if start >= size {
		return ByteRange{}, fmt.Errorf("%w: start %d >= total length %d", ErrRangeNotSatisfiable, start, size)
	}
	r.Start = start

	if endStr == "" {
		r.End = size - 1
	} else {
		end, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || end < start {
			return ByteRange{}, ErrInvalidRange
		}
		if end >= size {
			end = size - 1
		}
		r.End = end
	}

	return r, nil
}
