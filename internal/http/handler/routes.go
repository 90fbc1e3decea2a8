package handler

import (
	"context"
	"math"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"filerelay/internal/http/middleware"
	"filerelay/internal/logging"
	"filerelay/internal/service"
	"filerelay/internal/upload"
)

// multipartOverhead is the slack allowed on top of the file limit for
// boundaries and part headers.
const multipartOverhead = 1 << 20

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are what the routes need from the rest of the application.
type Dependencies struct {
	Store      Pinger
	Uploads    service.UploadService
	Rules      upload.Rules
	StaticRoot string
	Log        *logging.Logger
	// Metrics is exposed on /metrics when set.
	Metrics prometheus.Gatherer
}

// NewApp returns a Fiber app sized for the upload rules, with the fallback
// error handler installed.
func NewApp(rules upload.Rules, log *logging.Logger) *fiber.App {
	return fiber.New(fiber.Config{
		BodyLimit:                    bodyLimit(rules.MaxFileSize),
		DisablePreParseMultipartForm: true,
		ErrorHandler:                 ErrorHandler(rules, log),
	})
}

// bodyLimit is maxFile plus multipart overhead, clamped to the int range.
func bodyLimit(maxFile int64) int {
	if maxFile < 0 {
		maxFile = 0
	}
	if maxFile > int64(math.MaxInt)-multipartOverhead {
		return math.MaxInt
	}
	return int(maxFile) + multipartOverhead
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	app.Get("/health", HealthCheck(deps.Store))
	app.Get("/healthz", LivenessProbe())

	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})))
	}

	app.Post("/upload",
		middleware.SingleFile("file", deps.Rules),
		Upload(deps.Uploads, deps.Rules, deps.Log),
	)

	if deps.StaticRoot != "" {
		app.Get("/", Index(deps.StaticRoot))
		app.Static("/", deps.StaticRoot)
	}
}

// HealthCheck pings the object store with a short timeout.
func HealthCheck(store Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe always answers 200.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// Index serves the landing page.
func Index(root string) fiber.Handler {
	index := filepath.Join(root, "index.html")
	return func(c *fiber.Ctx) error {
		return c.SendFile(index)
	}
}

// Upload godoc
// @Summary      Upload a file
// @Description  Forwards a single file to the media provider and returns its public URL.
// @Tags         upload
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "File to upload (max 100 MB)"
// @Success      200  {object}  model.UploadResult
// @Failure      400  {object}  model.ErrorResult
// @Failure      500  {object}  model.ErrorResult
// @Router       /upload [post]
func Upload(svc service.UploadService, rules upload.Rules, log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := middleware.UploadFrom(c)
		if req == nil {
			return writeError(c, fiber.StatusBadRequest, msgMissingFile)
		}
		if rules.TooLarge(req.Size) {
			return writeError(c, fiber.StatusBadRequest, tooLargeMessage(rules))
		}

		res, err := svc.Upload(c.UserContext(), *req)
		if err != nil {
			if msg, ok := clientErrorMessage(err, rules); ok {
				return writeError(c, fiber.StatusBadRequest, msg)
			}
			log.Error("upload_failed", err, logging.Fields{
				"request_id": middleware.RequestIDFrom(c),
				"file_name":  req.Filename,
				"file_type":  req.ContentType,
				"file_size":  req.Size,
			})
			return writeError(c, fiber.StatusInternalServerError, msgUploadFailed)
		}
		return c.JSON(res)
	}
}
