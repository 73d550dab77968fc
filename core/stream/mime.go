package stream

// 音频格式到MIME类型的映射，未知格式回退到 audio/mpeg
var mimeTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"flac": "audio/flac",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
	"m4a":  "audio/mp4",
	"aac":  "audio/aac",
}

// MimeType returns the MIME type for a catalog format value.
func MimeType(format string) string {
	if mt, ok := mimeTypes[format]; ok {
		return mt
	}
	return "audio/mpeg"
}

// KnownFormat reports whether the format is one the catalog accepts.
func KnownFormat(format string) bool {
	_, ok := mimeTypes[format]
	return ok
}
