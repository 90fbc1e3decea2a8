package upload

import "strings"

// Kind is the preview category of a MIME type.
type Kind string

const (
	KindImage   Kind = "image"
	KindVideo   Kind = "video"
	KindAudio   Kind = "audio"
	KindPDF     Kind = "pdf"
	KindArchive Kind = "archive"
	KindOther   Kind = "file"
)

// KindOf classifies a MIME type for previews.
func KindOf(mimeType string) Kind {
	mt := normalizeType(mimeType)
	switch {
	case strings.HasPrefix(mt, "image/"):
		return KindImage
	case strings.HasPrefix(mt, "video/"):
		return KindVideo
	case strings.HasPrefix(mt, "audio/"):
		return KindAudio
	case mt == "application/pdf":
		return KindPDF
	case mt == "application/zip", mt == "application/x-rar-compressed":
		return KindArchive
	default:
		return KindOther
	}
}
