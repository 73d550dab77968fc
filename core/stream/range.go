package stream

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrNoRange means the header is absent or does not match
// "bytes=<start>-<end?>". Malformed headers deliberately degrade to a
// full 200 response instead of a 400.
var ErrNoRange = errors.New("no byte range requested")

// ErrRangeNotSatisfiable means the requested range lies outside
// [0, size). Callers respond 416 with "Content-Range: bytes */<size>".
var ErrRangeNotSatisfiable = errors.New("requested range not satisfiable")

var rangePattern = regexp.MustCompile(`bytes=(\d+)-(\d*)`)

// Range is an inclusive byte range within a resource of known size.
type Range struct {
	Start int64
	End   int64
}

// Length returns the number of bytes covered by the range.
func (r Range) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange formats the Content-Range header value for a 206 response.
func (r Range) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// ParseRange parses a Range header against a resource of the given
// size. A missing end offset means end-of-file; an end past the file is
// clamped to size-1.
func ParseRange(header string, size int64) (Range, error) {
	if header == "" {
		return Range{}, ErrNoRange
	}

	m := rangePattern.FindStringSubmatch(header)
	if m == nil {
		return Range{}, ErrNoRange
	}

	start, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return Range{}, ErrNoRange
	}

	end := size - 1
	if m[2] != "" {
		end, err = strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return Range{}, ErrNoRange
		}
	}

	if start > end || start >= size {
		return Range{}, ErrRangeNotSatisfiable
	}

	if end > size-1 {
		end = size - 1
	}

	return Range{Start: start, End: end}, nil
}
