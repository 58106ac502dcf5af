package handlers

import (
	"errors"

	"github.com/escrow-marketplace/backend/internal/http/dto"
	"github.com/escrow-marketplace/backend/internal/models"
	"github.com/gofiber/fiber/v2"
)

// statusFor maps domain errors to HTTP codes. Anything outside the known
// taxonomy is treated as a caller mistake, matching how validation errors
// bubble up from the services.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		return fiber.StatusForbidden
	case errors.Is(err, models.ErrDealNotFound), errors.Is(err, models.ErrUnknownToken):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrInvalidState), errors.Is(err, models.ErrDuplicateToken):
		return fiber.StatusConflict
	case errors.Is(err, models.ErrDeadlineExceeded):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, models.ErrInsufficientFunds), errors.Is(err, models.ErrTransferFailed):
		return fiber.StatusPaymentRequired
	case errors.Is(err, models.ErrPriceUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusBadRequest
	}
}

func domainError(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(dto.ErrorResponse{Error: err.Error()})
}
