package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type reminderSettingsInput struct {
	ReminderHour *int   `json:"reminder_hour"`
	DeviceToken  string `json:"device_token"`
}

func (handler *Handler) UpdateReminderSettings(c *fiber.Ctx) error {
	user := currentUser(c)

	input := reminderSettingsInput{}
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	reminderHour := user.ReminderHour
	if input.ReminderHour != nil {
		reminderHour = *input.ReminderHour
	}
	if reminderHour < 0 || reminderHour > 23 {
		return apiError(c, fiber.StatusBadRequest, "invalid reminder hour")
	}

	deviceToken := strings.TrimSpace(input.DeviceToken)
	if deviceToken == "" {
		deviceToken = user.DeviceToken
	}
	if deviceToken == "" {
		deviceToken = uuid.NewString()
	}

	if err := handler.repos.Users.UpdateReminderSettings(user.ID, reminderHour, deviceToken); err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to update settings")
	}

	user.ReminderHour = reminderHour
	user.DeviceToken = deviceToken
	return c.JSON(userView(user))
}
