package model

import "time"

// UploadTimeLayout is the ISO-8601 layout used for UploadResult.UploadTime.
const UploadTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// UploadRequest is a single file received by the upload endpoint.
// It only lives for the duration of one HTTP request.
type UploadRequest struct {
	Data        []byte
	Filename    string
	ContentType string
	Size        int64
}

// UploadResult is returned to the client after a successful upload.
// It is never persisted server-side.
type UploadResult struct {
	Success      bool   `json:"success"`
	FileURL      string `json:"fileUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
	FileID       string `json:"fileId"`
	FileType     string `json:"fileType"`
	FileSize     int64  `json:"fileSize"`
	FileName     string `json:"fileName"`
	UploadTime   string `json:"uploadTime"`
}

// ErrorResult is the body of every failed request.
type ErrorResult struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// FormatUploadTime renders t in UTC with millisecond precision.
func FormatUploadTime(t time.Time) string {
	return t.UTC().Format(UploadTimeLayout)
}
