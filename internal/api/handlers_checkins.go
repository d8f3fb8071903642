package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stintlabs/stint/internal/metrics"
	"github.com/stintlabs/stint/internal/models"
)

type recordCheckInInput struct {
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
	Note      string `json:"note"`
}

func (handler *Handler) ListCheckIns(c *fiber.Ctx) error {
	experiment, err := handler.loadOwnedExperiment(c)
	if err != nil {
		return handler.respondDomainError(c, err)
	}

	checkIns, err := handler.checkIns.ListForExperiment(experiment.ID)
	if err != nil {
		return handler.respondDomainError(c, err)
	}

	views := make([]fiber.Map, 0, len(checkIns))
	for _, entry := range checkIns {
		views = append(views, checkInView(entry))
	}
	return c.JSON(fiber.Map{"check_ins": views})
}

func (handler *Handler) RecordCheckIn(c *fiber.Ctx) error {
	experiment, err := handler.loadOwnedExperiment(c)
	if err != nil {
		return handler.respondDomainError(c, err)
	}

	input := recordCheckInInput{}
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	day := handler.now()
	if raw := strings.TrimSpace(input.Date); raw != "" {
		parsed, err := parseDateParam(raw, handler.location)
		if err != nil {
			return apiError(c, fiber.StatusBadRequest, "invalid date")
		}
		day = parsed
	}

	entry, err := handler.checkIns.Record(experiment.ID, day, input.Completed, strings.TrimSpace(input.Note))
	if err != nil {
		return handler.respondDomainError(c, err)
	}

	metrics.IncCheckInsRecorded()
	return c.Status(fiber.StatusCreated).JSON(checkInView(entry))
}

func checkInView(entry models.CheckIn) fiber.Map {
	return fiber.Map{
		"id":          entry.ID,
		"date":        entry.Date.Format("2006-01-02"),
		"completed":   entry.Completed,
		"note":        entry.Note,
		"recorded_at": entry.UpdatedAt.Format(time.RFC3339),
	}
}
