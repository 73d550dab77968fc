package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	const size = int64(1000)

	tests := []struct {
		name   string
		header string
		want   Range
	}{
		{"从头到尾", "bytes=0-", Range{Start: 0, End: 999}},
		{"中间区间", "bytes=100-199", Range{Start: 100, End: 199}},
		{"单字节", "bytes=0-0", Range{Start: 0, End: 0}},
		{"最后一字节", "bytes=999-999", Range{Start: 999, End: 999}},
		{"末端越界时截断", "bytes=500-5000", Range{Start: 500, End: 999}},
		{"省略末端", "bytes=250-", Range{Start: 250, End: 999}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.header, size)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRangeNotSatisfiable(t *testing.T) {
	const size = int64(1000)

	for _, header := range []string{
		"bytes=1000-",     // start == size
		"bytes=1500-2000", // start > size
		"bytes=200-100",   // start > end
	} {
		t.Run(header, func(t *testing.T) {
			_, err := ParseRange(header, size)
			assert.ErrorIs(t, err, ErrRangeNotSatisfiable)
		})
	}
}

func TestParseRangeMalformed(t *testing.T) {
	// 畸形或缺失的Range头降级为完整响应，而不是报错给客户端
	for _, header := range []string{
		"",
		"bytes=-500",
		"bytes=abc-def",
		"items=0-100",
		"0-100",
	} {
		t.Run("header_"+header, func(t *testing.T) {
			_, err := ParseRange(header, 1000)
			assert.ErrorIs(t, err, ErrNoRange)
		})
	}
}

func TestRangeLength(t *testing.T) {
	assert.Equal(t, int64(100), Range{Start: 100, End: 199}.Length())
	assert.Equal(t, int64(1), Range{Start: 0, End: 0}.Length())
}

func TestRangeContentRange(t *testing.T) {
	assert.Equal(t, "bytes 100-199/1000", Range{Start: 100, End: 199}.ContentRange(1000))
}

func TestMimeType(t *testing.T) {
	assert.Equal(t, "audio/mpeg", MimeType("mp3"))
	assert.Equal(t, "audio/flac", MimeType("flac"))
	assert.Equal(t, "audio/mp4", MimeType("m4a"))
	// 未知格式回退
	assert.Equal(t, "audio/mpeg", MimeType("xyz"))
	assert.Equal(t, "audio/mpeg", MimeType(""))
}

func TestKnownFormat(t *testing.T) {
	assert.True(t, KnownFormat("mp3"))
	assert.True(t, KnownFormat("ogg"))
	assert.False(t, KnownFormat("txt"))
}
