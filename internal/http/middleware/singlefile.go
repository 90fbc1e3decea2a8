package middleware

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"filerelay/internal/model"
	"filerelay/internal/upload"
)

// UploadLocalKey holds the *model.UploadRequest parsed by SingleFile.
const UploadLocalKey = "upload_request"

var errMalformedForm = fiber.NewError(fiber.StatusBadRequest, "malformed multipart body")

// SingleFile parses the multipart body in memory and extracts the first file part
// named field. A disallowed MIME type fails with upload.ErrUnsupportedType and an
// oversized part with upload.ErrFileTooLarge, before the route handler runs.
// A request without such a part passes through with nothing stored in locals.
//
// The app must run with DisablePreParseMultipartForm so fasthttp keeps the raw
// body in memory instead of spooling large parts to temporary files.
func SingleFile(field string, rules upload.Rules) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := readSingleFile(c.Get(fiber.HeaderContentType), c.Body(), field, rules)
		if err != nil {
			return err
		}
		if req != nil {
			c.Locals(UploadLocalKey, req)
		}
		return c.Next()
	}
}

// UploadFrom returns the request stored by SingleFile, or nil.
func UploadFrom(c *fiber.Ctx) *model.UploadRequest {
	req, _ := c.Locals(UploadLocalKey).(*model.UploadRequest)
	return req
}

// rawFileName returns the filename parameter as sent. Part.FileName strips
// directories, which would hide them from SanitizeFilename.
func rawFileName(p *multipart.Part) string {
	_, params, err := mime.ParseMediaType(p.Header.Get("Content-Disposition"))
	if err != nil || params["filename"] == "" {
		return p.FileName()
	}
	return params["filename"]
}

// readSingleFile stops at the first matching part; later parts are not read.
func readSingleFile(contentType string, body []byte, field string, rules upload.Rules) (*model.UploadRequest, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		return nil, nil
	}

	mr := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, errMalformedForm
		}
		if part.FormName() != field || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		ct := part.Header.Get(fiber.HeaderContentType)
		if !rules.Allows(ct) {
			return nil, upload.ErrUnsupportedType
		}

		data, err := io.ReadAll(io.LimitReader(part, rules.MaxFileSize+1))
		if err != nil {
			return nil, errMalformedForm
		}
		if int64(len(data)) > rules.MaxFileSize {
			return nil, upload.ErrFileTooLarge
		}

		return &model.UploadRequest{
			Data:        data,
			Filename:    rawFileName(part),
			ContentType: ct,
			Size:        int64(len(data)),
		}, nil
	}
}
