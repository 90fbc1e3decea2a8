package upload

import "errors"

var (
	// ErrMissingFile means the request carried no file part.
	ErrMissingFile = errors.New("no file uploaded")
	// ErrFileTooLarge means the file exceeds Rules.MaxFileSize.
	ErrFileTooLarge = errors.New("file too large")
	// ErrUnsupportedType means the MIME type is not on the allow-list.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrUpstream wraps any failure reported by the provider.
	ErrUpstream = errors.New("upstream provider failure")
)

// IsClientError reports whether err is one the caller can correct.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMissingFile) ||
		errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrUnsupportedType)
}
