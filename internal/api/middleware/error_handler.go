package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/idverify/internal/domain"
)

// LocalSuccessEnvelope marks routes whose errors carry "success": false
const LocalSuccessEnvelope = "success_envelope"

// SuccessEnvelope makes the error handler answer with
// {"success": false, "error": message} on the routes it guards
func SuccessEnvelope() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(LocalSuccessEnvelope, true)
		return c.Next()
	}
}

func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		// Check if it's a Fiber error
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return respond(c, fiberErr.Code, fiberErr.Message)
		}

		// Check if it's our AppError
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			// Log internal errors
			if appErr.StatusCode >= 500 {
				logger.Error("internal error",
					slog.String("code", appErr.Code),
					slog.String("message", appErr.Message),
					slog.Any("error", appErr.Err),
					slog.String("request_id", requestID(c)),
				)
			}
			return respond(c, appErr.StatusCode, appErr.Error())
		}

		// Unknown error, reported as is
		logger.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Path()),
			slog.String("request_id", requestID(c)),
		)

		return respond(c, fiber.StatusInternalServerError, err.Error())
	}
}

func respond(c *fiber.Ctx, status int, message string) error {
	if enveloped, _ := c.Locals(LocalSuccessEnvelope).(bool); enveloped {
		return c.Status(status).JSON(fiber.Map{
			"success": false,
			"error":   message,
		})
	}
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}
