package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"filerelay/internal/http/middleware"
	"filerelay/internal/logging"
	"filerelay/internal/model"
	"filerelay/internal/provider"
	providerMocks "filerelay/internal/provider/mocks"
	"filerelay/internal/service"
	serviceMocks "filerelay/internal/service/mocks"
	storeMocks "filerelay/internal/storage/mocks"
	"filerelay/internal/upload"
)

var testRules = upload.Rules{MaxFileSize: 16, AllowedTypes: upload.AllowedTypes}

func newUploadRequest(t *testing.T, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func newTestApp(t *testing.T, svc service.UploadService, store Pinger) *fiber.App {
	t.Helper()
	app := NewApp(testRules, logging.Nop())
	app.Use(middleware.RequestID())
	app.Use(recover.New())
	RegisterRoutes(app, Dependencies{
		Store:   store,
		Uploads: svc,
		Rules:   testRules,
		Log:     logging.Nop(),
	})
	return app
}

func decodeError(t *testing.T, r io.Reader) model.ErrorResult {
	t.Helper()
	var res model.ErrorResult
	require.NoError(t, json.NewDecoder(r).Decode(&res))
	return res
}

func TestUpload_EndToEndSanitizesName(t *testing.T) {
	mProv := new(providerMocks.MockProvider)
	mProv.On("Upload", mock.Anything, []byte("0123456789"), "my_file_.png", "/filerelay").
		Return(provider.Result{
			URL:          "https://cdn.example.com/filerelay/abc/my_file_.png",
			ThumbnailURL: "https://cdn.example.com/filerelay/abc/thumbnail.jpg",
			FileID:       "abc",
		}, nil).Once()

	app := newTestApp(t, service.NewUploadService(mProv, testRules, "/filerelay"), nil)

	resp, err := app.Test(newUploadRequest(t, "my file!.png", "image/png", []byte("0123456789")))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, fiber.MIMEApplicationJSON, resp.Header.Get("Content-Type"))

	var res model.UploadResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.True(t, res.Success)
	assert.Equal(t, "https://cdn.example.com/filerelay/abc/my_file_.png", res.FileURL)
	assert.Equal(t, "https://cdn.example.com/filerelay/abc/thumbnail.jpg", res.ThumbnailURL)
	assert.Equal(t, "abc", res.FileID)
	assert.Equal(t, "image/png", res.FileType)
	assert.Equal(t, int64(10), res.FileSize)
	assert.Equal(t, "my_file_.png", res.FileName)
	assert.NotEmpty(t, res.UploadTime)
	mProv.AssertExpectations(t)
}

func TestUpload_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		req     func(t *testing.T) *http.Request
		wantMsg string
	}{
		{
			name: "missing file",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/upload", nil)
			},
			wantMsg: msgMissingFile,
		},
		{
			name: "file over the limit",
			req: func(t *testing.T) *http.Request {
				return newUploadRequest(t, "clip.mp4", "video/mp4", make([]byte, 17))
			},
			wantMsg: "file too large, maximum is 16 Bytes",
		},
		{
			name: "type outside the allow-list",
			req: func(t *testing.T) *http.Request {
				return newUploadRequest(t, "index.html", "text/html", []byte("<html>"))
			},
			wantMsg: msgUnsupportedType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mProv := new(providerMocks.MockProvider)
			app := newTestApp(t, service.NewUploadService(mProv, testRules, "/filerelay"), nil)

			resp, err := app.Test(tt.req(t))
			require.NoError(t, err)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			res := decodeError(t, resp.Body)
			assert.False(t, res.Success)
			assert.Equal(t, tt.wantMsg, res.Error)
			mProv.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

// app.Test refuses bodies over BodyLimit, so this goes through a real listener.
func TestUpload_BodyOverTransportLimit(t *testing.T) {
	mProv := new(providerMocks.MockProvider)
	app := newTestApp(t, service.NewUploadService(mProv, testRules, "/filerelay"), nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	src := newUploadRequest(t, "clip.mp4", "video/mp4", make([]byte, 2<<20))
	body, err := io.ReadAll(src.Body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, "http://"+ln.Addr().String()+"/upload", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", src.Header.Get("Content-Type"))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, fiber.MIMEApplicationJSON, resp.Header.Get("Content-Type"))
	res := decodeError(t, resp.Body)
	assert.False(t, res.Success)
	assert.Equal(t, "file too large, maximum is 16 Bytes", res.Error)
	mProv.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestErrorHandler_EntityTooLargeIs400(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(testRules, logging.Nop())})
	app.Post("/upload", func(c *fiber.Ctx) error {
		return fiber.ErrRequestEntityTooLarge
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/upload", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	res := decodeError(t, resp.Body)
	assert.False(t, res.Success)
	assert.Equal(t, "file too large, maximum is 16 Bytes", res.Error)
}

func TestBodyLimit(t *testing.T) {
	assert.Equal(t, 16+multipartOverhead, bodyLimit(16))
	assert.Equal(t, multipartOverhead, bodyLimit(-5))
	assert.Equal(t, math.MaxInt, bodyLimit(math.MaxInt64))
	assert.Equal(t, math.MaxInt, bodyLimit(int64(math.MaxInt)-multipartOverhead+1))

	app := NewApp(upload.Rules{MaxFileSize: math.MaxInt64}, logging.Nop())
	assert.Equal(t, math.MaxInt, app.Config().BodyLimit)
}

func TestUpload_ProviderFailureIsNotLeaked(t *testing.T) {
	mProv := new(providerMocks.MockProvider)
	mProv.On("Upload", mock.Anything, mock.Anything, "a.pdf", "/filerelay").
		Return(provider.Result{}, errors.New("dial tcp 10.0.0.7:9000: connection refused")).Once()

	app := newTestApp(t, service.NewUploadService(mProv, testRules, "/filerelay"), nil)

	req := newUploadRequest(t, "a.pdf", "application/pdf", []byte("%PDF-1.4"))
	req.Header.Set(middleware.RequestIDHeader, "rid-42")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.NotContains(t, string(raw), "connection refused")

	res := decodeError(t, bytes.NewReader(raw))
	assert.False(t, res.Success)
	assert.Equal(t, msgUploadFailed, res.Error)
	assert.Equal(t, "rid-42", res.RequestID)
	mProv.AssertExpectations(t)
}

func TestUpload_ServicePanicBecomesJSON(t *testing.T) {
	mockSvc := new(serviceMocks.MockUploadService)
	mockSvc.On("Upload", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("nil map write")
	}).Return(nil, nil)

	app := newTestApp(t, mockSvc, nil)

	resp, err := app.Test(newUploadRequest(t, "a.png", "image/png", []byte("png")))
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	res := decodeError(t, resp.Body)
	assert.False(t, res.Success)
	assert.Equal(t, msgInternal, res.Error)
}

func TestUpload_ServiceClientErrorIs400(t *testing.T) {
	mockSvc := new(serviceMocks.MockUploadService)
	mockSvc.On("Upload", mock.Anything, mock.MatchedBy(func(req model.UploadRequest) bool {
		return req.Filename == "a.png" && req.ContentType == "image/png" && string(req.Data) == "png"
	})).Return(nil, upload.ErrUnsupportedType).Once()

	app := newTestApp(t, mockSvc, nil)

	resp, err := app.Test(newUploadRequest(t, "a.png", "image/png", []byte("png")))
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, msgUnsupportedType, decodeError(t, resp.Body).Error)
	mockSvc.AssertExpectations(t)
}

func TestHealthCheck(t *testing.T) {
	mStore := new(storeMocks.MockStorage)
	app := fiber.New()
	app.Get("/health", HealthCheck(mStore))

	t.Run("healthy", func(t *testing.T) {
		mStore.On("Ping", mock.Anything).Return(nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		mStore.On("Ping", mock.Anything).Return(errors.New("bucket gone")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		res := decodeError(t, resp.Body)
		assert.False(t, res.Success)
		assert.Equal(t, "dependency unavailable", res.Error)
	})

	mStore.AssertExpectations(t)
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouting(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<h1>relay</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.js"), []byte("console.log(1)"), 0o644))

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "probe_total", Help: "probe"}))

	app := NewApp(testRules, logging.Nop())
	RegisterRoutes(app, Dependencies{
		Uploads:    new(serviceMocks.MockUploadService),
		Rules:      testRules,
		StaticRoot: root,
		Log:        logging.Nop(),
		Metrics:    reg,
	})

	t.Run("landing page", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "<h1>relay</h1>", string(body))
	})

	t.Run("static asset", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/app.js", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("metrics", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.True(t, strings.Contains(string(body), "probe_total"))
	})

	t.Run("method not allowed", func(t *testing.T) {
		// /healthz only allows GET
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/healthz", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		res := decodeError(t, resp.Body)
		assert.False(t, res.Success)
		assert.Equal(t, "method not allowed", res.Error)
	})
}

func TestRouting_NotFound(t *testing.T) {
	app := NewApp(testRules, logging.Nop())
	RegisterRoutes(app, Dependencies{Uploads: new(serviceMocks.MockUploadService), Rules: testRules, Log: logging.Nop()})

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/non-existent", nil))

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	res := decodeError(t, resp.Body)
	assert.False(t, res.Success)
	assert.Equal(t, "resource not found", res.Error)
}
