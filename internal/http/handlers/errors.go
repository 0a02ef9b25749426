package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/username-escrow/backend/internal/http/dto"
	"github.com/username-escrow/backend/internal/middleware"
	"github.com/username-escrow/backend/internal/models"
	"go.uber.org/zap"
)

// respondError maps domain errors to HTTP statuses. Unknown errors are logged
// and hidden behind a generic 500.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotRecipient):
		status = fiber.StatusForbidden
	case errors.Is(err, models.ErrUnauthorized):
		status = fiber.StatusUnauthorized
	case errors.Is(err, models.ErrUsernameTaken):
		status = fiber.StatusConflict
	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrInvalidUsername),
		errors.Is(err, models.ErrMessageTooLong):
		status = fiber.StatusBadRequest
	case errors.Is(err, models.ErrTransferFailed):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, models.ErrNotFound):
		status = fiber.StatusNotFound
	}

	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Error("request failed",
			zap.String("path", c.Path()),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		msg = "internal server error"
	}

	return c.Status(status).JSON(dto.ErrorResponse{Error: msg, RequestID: middleware.GetRequestID(c)})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: msg, RequestID: middleware.GetRequestID(c)})
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: msg, RequestID: middleware.GetRequestID(c)})
}
