package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"filerelay/internal/http/middleware"
	"filerelay/internal/logging"
	"filerelay/internal/model"
	"filerelay/internal/upload"
)

const (
	msgMissingFile     = "no file uploaded"
	msgUnsupportedType = "unsupported file type"
	msgUploadFailed    = "an error occurred while uploading the file"
	msgInternal        = "internal server error"
)

// writeError writes an ErrorResult without leaking internal errors.
func writeError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(model.ErrorResult{
		Success:   false,
		Error:     message,
		RequestID: middleware.RequestIDFrom(c),
	})
}

func tooLargeMessage(rules upload.Rules) string {
	return "file too large, maximum is " + upload.FormatSize(rules.MaxFileSize)
}

// clientErrorMessage maps a correctable upload error to its response text.
func clientErrorMessage(err error, rules upload.Rules) (string, bool) {
	switch {
	case errors.Is(err, upload.ErrMissingFile):
		return msgMissingFile, true
	case errors.Is(err, upload.ErrFileTooLarge):
		return tooLargeMessage(rules), true
	case errors.Is(err, upload.ErrUnsupportedType):
		return msgUnsupportedType, true
	}
	return "", false
}

// ErrorHandler returns the fallback handler for everything the routes and
// middleware did not answer themselves: upload rejections raised by
// middleware.SingleFile, fasthttp's body limit, unknown routes and panics.
func ErrorHandler(rules upload.Rules, log *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if msg, ok := clientErrorMessage(err, rules); ok {
			return writeError(c, fiber.StatusBadRequest, msg)
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			switch fe.Code {
			case fiber.StatusRequestEntityTooLarge:
				return writeError(c, fiber.StatusBadRequest, tooLargeMessage(rules))
			case fiber.StatusBadRequest:
				return writeError(c, fe.Code, "bad request")
			case fiber.StatusNotFound:
				return writeError(c, fe.Code, "resource not found")
			case fiber.StatusMethodNotAllowed:
				return writeError(c, fe.Code, "method not allowed")
			}
		}

		log.Error("unhandled_error", err, logging.Fields{
			"request_id": middleware.RequestIDFrom(c),
			"method":     c.Method(),
			"path":       c.Path(),
		})
		return writeError(c, fiber.StatusInternalServerError, msgInternal)
	}
}
