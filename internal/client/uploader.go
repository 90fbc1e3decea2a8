package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"filerelay/internal/model"
)

// ErrTransport marks a failed upload: the request never completed or the
// server answered with something other than 200.
var ErrTransport = errors.New("upload failed")

// Uploader sends one file per request to the upload endpoint.
type Uploader interface {
	Upload(ctx context.Context, f *File, events chan<- ProgressEvent) (*model.UploadResult, error)
}

// HTTPUploader posts multipart bodies to <baseURL>/upload.
type HTTPUploader struct {
	endpoint string
	client   *http.Client
}

// NewHTTPUploader builds an uploader whose transport is traced with otelhttp.
// A zero timeout means no client-side deadline.
func NewHTTPUploader(baseURL string, timeout time.Duration) *HTTPUploader {
	return &HTTPUploader{
		endpoint: strings.TrimRight(baseURL, "/") + "/upload",
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Upload streams f as the "file" field. Progress events go to events, which
// is closed before Upload returns; events may be nil.
func (u *HTTPUploader) Upload(ctx context.Context, f *File, events chan<- ProgressEvent) (*model.UploadResult, error) {
	src, err := os.Open(f.Path)
	if err != nil {
		if events != nil {
			close(events)
		}
		return nil, fmt.Errorf("open %s: %w", f.Path, err)
	}
	defer src.Close()

	prefix, suffix, contentType, err := multipartFrame("file", f.Name, f.Type)
	if err != nil {
		if events != nil {
			close(events)
		}
		return nil, err
	}

	total := int64(len(prefix)) + f.Size + int64(len(suffix))
	body := newProgressReader(
		io.MultiReader(bytes.NewReader(prefix), io.LimitReader(src, f.Size), bytes.NewReader(suffix)),
		total, events,
	)
	defer body.finish()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var result model.UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrTransport, err)
	}
	return &result, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// multipartFrame returns the bytes surrounding the file content so the body
// length is known up front.
func multipartFrame(field, name, mimeType string) (prefix, suffix []byte, contentType string, err error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(field), quoteEscaper.Replace(name)))
	h.Set("Content-Type", mimeType)
	if _, err := mw.CreatePart(h); err != nil {
		return nil, nil, "", fmt.Errorf("create form part: %w", err)
	}
	prefix = append([]byte(nil), buf.Bytes()...)
	buf.Reset()

	if err := mw.Close(); err != nil {
		return nil, nil, "", fmt.Errorf("close form: %w", err)
	}
	suffix = append([]byte(nil), buf.Bytes()...)
	return prefix, suffix, mw.FormDataContentType(), nil
}

func statusError(resp *http.Response) error {
	var e model.ErrorResult
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &e) == nil && e.Error != "" {
		return fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, e.Error)
	}
	return fmt.Errorf("%w: status %d", ErrTransport, resp.StatusCode)
}
