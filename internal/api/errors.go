package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/stintlabs/stint/internal/services"
)

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// respondDomainError maps service sentinels onto HTTP statuses. Only
// store unavailability is marked retryable.
func (handler *Handler) respondDomainError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return apiError(c, fiber.StatusNotFound, "not found")
	case errors.Is(err, services.ErrTierLimitExceeded):
		return apiError(c, fiber.StatusForbidden, "tier limit exceeded")
	case errors.Is(err, services.ErrExperimentNotActive):
		return apiError(c, fiber.StatusConflict, "experiment not active")
	case errors.Is(err, services.ErrAlreadyCompleted):
		return apiError(c, fiber.StatusConflict, "experiment already completed")
	case errors.Is(err, services.ErrOutOfWindow):
		return apiError(c, fiber.StatusUnprocessableEntity, "date outside experiment window")
	case errors.Is(err, services.ErrMissingNextAction):
		return apiError(c, fiber.StatusUnprocessableEntity, "missing next action")
	case errors.Is(err, services.ErrInvalidDuration):
		return apiError(c, fiber.StatusUnprocessableEntity, "invalid duration")
	case errors.Is(err, services.ErrInvalidName):
		return apiError(c, fiber.StatusUnprocessableEntity, "invalid name")
	case errors.Is(err, services.ErrStoreUnavailable):
		handler.logger.Error().Err(err).Msg("store unavailable")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error":     "temporarily unavailable",
			"retryable": true,
		})
	default:
		handler.logger.Error().Err(err).Msg("unhandled error")
		return apiError(c, fiber.StatusInternalServerError, "internal error")
	}
}
