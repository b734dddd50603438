package serverutils

import (
	"errors"

	"notebook-ai-be/internal/pkg/apperrors"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps service errors onto HTTP statuses.
// Controllers return errors as-is; no other layer formats responses.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(fiber.Map{"message": fiberErr.Message})
		}

		status := fiber.StatusInternalServerError
		switch apperrors.KindOf(err) {
		case apperrors.KindNotFound:
			status = fiber.StatusNotFound
		case apperrors.KindBadRequest:
			status = fiber.StatusBadRequest
		case apperrors.KindForbidden:
			status = fiber.StatusForbidden
		}

		return ctx.Status(status).JSON(fiber.Map{"message": apperrors.MessageOf(err)})
	}
}
