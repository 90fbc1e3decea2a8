// Package upload holds the upload rules shared by the server and the CLI client:
// the MIME allow-list, the size limit, filename sanitizing and size formatting.
package upload

import "strings"

// MaxFileSize is the default per-file limit (100 MiB).
const MaxFileSize int64 = 100 * 1024 * 1024

// AllowedTypes is the default MIME allow-list.
var AllowedTypes = []string{
	"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp",
	"video/mp4", "video/webm", "video/quicktime",
	"audio/mpeg", "audio/wav", "audio/ogg",
	"application/pdf",
	"application/zip", "application/x-rar-compressed",
}

// Rules bundles the limits every upload is checked against.
type Rules struct {
	MaxFileSize  int64
	AllowedTypes []string
}

// DefaultRules returns the rules used when nothing is configured.
func DefaultRules() Rules {
	types := make([]string, len(AllowedTypes))
	copy(types, AllowedTypes)
	return Rules{MaxFileSize: MaxFileSize, AllowedTypes: types}
}

// Allows reports whether the MIME type is on the allow-list.
// Parameters such as "; charset=binary" are ignored and matching is case-insensitive.
func (r Rules) Allows(mimeType string) bool {
	mt := normalizeType(mimeType)
	if mt == "" {
		return false
	}
	for _, t := range r.AllowedTypes {
		if t == mt {
			return true
		}
	}
	return false
}

// Check validates a file's size and MIME type, size first.
func (r Rules) Check(size int64, mimeType string) error {
	if r.TooLarge(size) {
		return ErrFileTooLarge
	}
	if !r.Allows(mimeType) {
		return ErrUnsupportedType
	}
	return nil
}

// TooLarge reports whether size exceeds the limit.
func (r Rules) TooLarge(size int64) bool {
	return size > r.MaxFileSize
}

func normalizeType(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
