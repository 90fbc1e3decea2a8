package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"filerelay/internal/model"
	"filerelay/internal/provider"
	"filerelay/internal/upload"
)

// fallbackName is used when sanitizing leaves nothing to store under, or
// only "." and ".." which would escape the object prefix.
const fallbackName = "file"

// UploadService defines the upload use case.
type UploadService interface {
	// Upload validates req, forwards it to the provider under its sanitized name and
	// returns the client-facing result. Provider failures are wrapped in upload.ErrUpstream.
	Upload(ctx context.Context, req model.UploadRequest) (*model.UploadResult, error)
}

// uploadService is a concrete implementation of UploadService.
type uploadService struct {
	provider provider.Provider
	rules    upload.Rules
	folder   string
	now      func() time.Time
}

// NewUploadService constructs a new UploadService storing every file under folder.
func NewUploadService(p provider.Provider, rules upload.Rules, folder string) UploadService {
	return &uploadService{provider: p, rules: rules, folder: folder, now: time.Now}
}

func (s *uploadService) Upload(ctx context.Context, req model.UploadRequest) (*model.UploadResult, error) {
	if req.Data == nil && req.Filename == "" {
		return nil, upload.ErrMissingFile
	}

	size := int64(len(req.Data))
	if req.Size > size {
		size = req.Size
	}
	if err := s.rules.Check(size, req.ContentType); err != nil {
		return nil, err
	}

	name := upload.SanitizeFilename(req.Filename)
	if strings.Trim(name, ".") == "" {
		name = fallbackName
	}

	res, err := s.provider.Upload(ctx, req.Data, name, s.folder)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", upload.ErrUpstream, err)
	}

	return &model.UploadResult{
		Success:      true,
		FileURL:      res.URL,
		ThumbnailURL: res.ThumbnailURL,
		FileID:       res.FileID,
		FileType:     req.ContentType,
		FileSize:     size,
		FileName:     name,
		UploadTime:   model.FormatUploadTime(s.now()),
	}, nil
}
