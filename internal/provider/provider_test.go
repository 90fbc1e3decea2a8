package provider

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"filerelay/internal/logging"
	"filerelay/internal/storage"
	storeMocks "filerelay/internal/storage/mocks"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func newTestProvider(store storage.Storage) *ObjectStore {
	p := NewObjectStore(store, logging.Nop())
	p.newID = func() string { return "file-123" }
	return p
}

func echoKey(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
	return storage.ObjectInfo{Key: key, Size: opt.Size, ContentType: opt.ContentType}
}

func TestObjectStore_Upload_Image(t *testing.T) {
	ctx := context.Background()
	data := pngBytes(t, 640, 480)

	mStore := new(storeMocks.MockStorage)
	mStore.On("Put", mock.Anything, "filerelay/file-123/photo.png", mock.Anything, storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: "image/png",
		Metadata:    map[string]string{"file-id": "file-123"},
	}).Return(echoKey, nil).Once()
	mStore.On("Put", mock.Anything, "filerelay/file-123/thumbnail.jpg", mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
		return opt.ContentType == "image/jpeg" && opt.Size > 0
	})).Return(echoKey, nil).Once()
	mStore.On("PublicURL", "filerelay/file-123/photo.png").Return("https://cdn/filerelay/file-123/photo.png")
	mStore.On("PublicURL", "filerelay/file-123/thumbnail.jpg").Return("https://cdn/filerelay/file-123/thumbnail.jpg")

	res, err := newTestProvider(mStore).Upload(ctx, data, "photo.png", "/filerelay")

	require.NoError(t, err)
	assert.Equal(t, Result{
		URL:          "https://cdn/filerelay/file-123/photo.png",
		ThumbnailURL: "https://cdn/filerelay/file-123/thumbnail.jpg",
		FileID:       "file-123",
	}, res)
	mStore.AssertExpectations(t)
}

func TestObjectStore_Upload_ThumbnailIsFitted(t *testing.T) {
	data := pngBytes(t, 900, 300)

	var thumb []byte
	mStore := new(storeMocks.MockStorage)
	mStore.On("Put", mock.Anything, "file-123/wide.png", mock.Anything, mock.Anything).Return(echoKey, nil).Once()
	mStore.On("Put", mock.Anything, "file-123/thumbnail.jpg", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			b, err := io.ReadAll(args.Get(2).(io.Reader))
			require.NoError(t, err)
			thumb = b
		}).Return(echoKey, nil).Once()
	mStore.On("PublicURL", mock.Anything).Return("u")

	_, err := newTestProvider(mStore).Upload(context.Background(), data, "wide.png", "")
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 100, cfg.Height)
}

func TestObjectStore_Upload_NonImageHasNoThumbnail(t *testing.T) {
	data := []byte("%PDF-1.4 minimal")

	mStore := new(storeMocks.MockStorage)
	mStore.On("Put", mock.Anything, "docs/file-123/report.pdf", mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
		return opt.ContentType == "application/pdf"
	})).Return(echoKey, nil).Once()
	mStore.On("PublicURL", "docs/file-123/report.pdf").Return("https://cdn/docs/file-123/report.pdf")

	res, err := newTestProvider(mStore).Upload(context.Background(), data, "report.pdf", "docs/")

	require.NoError(t, err)
	assert.Equal(t, "https://cdn/docs/file-123/report.pdf", res.URL)
	assert.Empty(t, res.ThumbnailURL)
	mStore.AssertExpectations(t)
}

func TestObjectStore_Upload_UndecodableImageStillSucceeds(t *testing.T) {
	mStore := new(storeMocks.MockStorage)
	mStore.On("Put", mock.Anything, "file-123/broken.png", mock.Anything, mock.Anything).Return(echoKey, nil).Once()
	mStore.On("PublicURL", "file-123/broken.png").Return("https://cdn/file-123/broken.png")

	res, err := newTestProvider(mStore).Upload(context.Background(), []byte("0123456789"), "broken.png", "")

	require.NoError(t, err)
	assert.Equal(t, "https://cdn/file-123/broken.png", res.URL)
	assert.Empty(t, res.ThumbnailURL)
	mStore.AssertExpectations(t)
}

func TestObjectStore_Upload_ThumbnailPutFailureIsIgnored(t *testing.T) {
	data := pngBytes(t, 10, 10)

	mStore := new(storeMocks.MockStorage)
	mStore.On("Put", mock.Anything, "file-123/a.png", mock.Anything, mock.Anything).Return(echoKey, nil).Once()
	mStore.On("Put", mock.Anything, "file-123/thumbnail.jpg", mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{}, errors.New("quota exceeded")).Once()
	mStore.On("PublicURL", "file-123/a.png").Return("https://cdn/file-123/a.png")

	res, err := newTestProvider(mStore).Upload(context.Background(), data, "a.png", "")

	require.NoError(t, err)
	assert.Empty(t, res.ThumbnailURL)
	mStore.AssertExpectations(t)
}

func TestObjectStore_Upload_StoreError(t *testing.T) {
	mStore := new(storeMocks.MockStorage)
	mStore.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{}, errors.New("connection refused")).Once()

	_, err := newTestProvider(mStore).Upload(context.Background(), []byte("zip"), "a.zip", "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "store object: connection refused")
	mStore.AssertNotCalled(t, "PublicURL", mock.Anything)
}

func TestObjectPrefix(t *testing.T) {
	assert.Equal(t, "id", objectPrefix("", "id"))
	assert.Equal(t, "id", objectPrefix("/", "id"))
	assert.Equal(t, "a/b/id", objectPrefix("/a/b/", "id"))
}
