// Package provider is the media host the upload endpoint forwards files to.
package provider

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"filerelay/internal/logging"
	"filerelay/internal/storage"
)

const (
	thumbnailName   = "thumbnail.jpg"
	thumbnailWidth  = 300
	thumbnailHeight = 300
)

// Result is what the provider reports back for a stored file.
type Result struct {
	URL          string
	ThumbnailURL string
	FileID       string
}

// Provider stores a file and returns its public location.
type Provider interface {
	Upload(ctx context.Context, data []byte, fileName, folder string) (Result, error)
}

// ObjectStore is a Provider that keeps files in an S3-compatible bucket and
// renders JPEG thumbnails for decodable images.
type ObjectStore struct {
	store  storage.Storage
	log    *logging.Logger
	tracer trace.Tracer
	newID  func() string
}

// NewObjectStore returns a Provider writing to store.
func NewObjectStore(store storage.Storage, log *logging.Logger) *ObjectStore {
	return &ObjectStore{
		store:  store,
		log:    log,
		tracer: otel.Tracer("filerelay/provider"),
		newID:  uuid.NewString,
	}
}

// Upload writes data to <folder>/<fileId>/<fileName>.
func (p *ObjectStore) Upload(ctx context.Context, data []byte, fileName, folder string) (Result, error) {
	ctx, span := p.tracer.Start(ctx, "provider.upload", trace.WithAttributes(
		attribute.String("file.name", fileName),
		attribute.Int("file.size", len(data)),
	))
	defer span.End()

	id := p.newID()
	prefix := objectPrefix(folder, id)
	key := path.Join(prefix, fileName)

	contentType := detectType(fileName, data)
	info, err := p.store.Put(ctx, key, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: contentType,
		Metadata:    map[string]string{"file-id": id},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "put object failed")
		return Result{}, fmt.Errorf("store object: %w", err)
	}

	res := Result{URL: p.store.PublicURL(info.Key), FileID: id}

	if strings.HasPrefix(contentType, "image/") {
		thumbURL, err := p.thumbnail(ctx, data, path.Join(prefix, thumbnailName))
		if err != nil {
			p.log.Warn("thumbnail_skipped", err, logging.Fields{"file_id": id, "key": key})
		} else {
			res.ThumbnailURL = thumbURL
		}
	}

	span.SetAttributes(attribute.String("file.id", id))
	return res, nil
}

func (p *ObjectStore) thumbnail(ctx context.Context, data []byte, key string) (string, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	dst := imaging.Fit(src, thumbnailWidth, thumbnailHeight, imaging.Lanczos)

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, dst, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return "", fmt.Errorf("encode thumbnail: %w", err)
	}

	info, err := p.store.Put(ctx, key, buf, storage.PutObjectOptions{
		Size:        int64(buf.Len()),
		ContentType: "image/jpeg",
	})
	if err != nil {
		return "", err
	}
	return p.store.PublicURL(info.Key), nil
}

func detectType(fileName string, data []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(path.Ext(fileName))); t != "" {
		return t
	}
	return http.DetectContentType(data)
}

func objectPrefix(folder, id string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return id
	}
	return folder + "/" + id
}
