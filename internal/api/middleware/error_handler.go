package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facegate/internal/api/response"
	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

func ErrorHandler(logger *slog.Logger, policy response.Policy) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			if appErr.StatusCode >= 500 {
				logger.Error("internal error",
					slog.String("code", appErr.Code),
					slog.String("message", appErr.Message),
					slog.Any("error", appErr.Err),
					slog.String("path", c.Path()),
				)
			}
			return policy.Failure(c, appErr)
		}

		// Transport errors (unknown route, body too large) keep their status.
		// Taxonomy errors wrapping one are handled above.
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return policy.HTTPFailure(c, fiberErr.Code, fiberErr.Message)
		}

		logger.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Path()),
		)

		return policy.Failure(c, domain.ErrInternal)
	}
}
