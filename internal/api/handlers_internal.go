package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/stintlabs/stint/internal/models"
)

type updateTierInput struct {
	UserID uint   `json:"user_id"`
	Tier   string `json:"tier"`
}

// UpdateTier is called by the payment collaborator after an upgrade or
// downgrade; the core itself never mutates tier.
func (handler *Handler) UpdateTier(c *fiber.Ctx) error {
	input := updateTierInput{}
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	if input.Tier != models.TierFree && input.Tier != models.TierPaid {
		return apiError(c, fiber.StatusBadRequest, "invalid tier")
	}

	if _, err := handler.repos.Users.FindByID(input.UserID); err != nil {
		return apiError(c, fiber.StatusNotFound, "not found")
	}
	if err := handler.repos.Users.UpdateTier(input.UserID, input.Tier); err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to update tier")
	}
	return c.JSON(fiber.Map{"ok": true})
}

// DueReminders lets an external scheduler ask who is due at a given
// hour; the response mirrors what the in-process scanner consumes.
func (handler *Handler) DueReminders(c *fiber.Ctx) error {
	hour, err := strconv.Atoi(c.Query("hour", strconv.Itoa(handler.now().Hour())))
	if err != nil || hour < 0 || hour > 23 {
		return apiError(c, fiber.StatusBadRequest, "invalid hour")
	}

	batches, err := handler.reminders.DueReminders(hour, handler.now())
	if err != nil {
		return handler.respondDomainError(c, err)
	}

	views := make([]fiber.Map, 0, len(batches))
	for _, batch := range batches {
		names := make([]string, 0, len(batch.Experiments))
		ids := make([]uint, 0, len(batch.Experiments))
		for _, experiment := range batch.Experiments {
			names = append(names, experiment.Name)
			ids = append(ids, experiment.ID)
		}
		views = append(views, fiber.Map{
			"user_id":        batch.User.ID,
			"device_token":   batch.User.DeviceToken,
			"experiment_ids": ids,
			"experiments":    names,
		})
	}
	return c.JSON(fiber.Map{"hour": hour, "batches": views})
}
