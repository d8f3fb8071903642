package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stintlabs/stint/internal/metrics"
	"github.com/stintlabs/stint/internal/models"
	"github.com/stintlabs/stint/internal/services"
)

type submitReflectionInput struct {
	Content    string `json:"content"`
	IsEnd      bool   `json:"is_end"`
	NextAction string `json:"next_action"`

	// Successor overrides, honored only with next_action=modify.
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	DurationValue *int    `json:"duration_value"`
	DurationUnit  *string `json:"duration_unit"`
}

func (handler *Handler) ListReflections(c *fiber.Ctx) error {
	experiment, err := handler.loadOwnedExperiment(c)
	if err != nil {
		return handler.respondDomainError(c, err)
	}

	reflections, err := handler.lifecycle.ListReflections(experiment.ID)
	if err != nil {
		return handler.respondDomainError(c, err)
	}

	views := make([]fiber.Map, 0, len(reflections))
	for _, reflection := range reflections {
		views = append(views, reflectionView(reflection))
	}
	return c.JSON(fiber.Map{"reflections": views})
}

func (handler *Handler) SubmitReflection(c *fiber.Ctx) error {
	experiment, err := handler.loadOwnedExperiment(c)
	if err != nil {
		return handler.respondDomainError(c, err)
	}

	input := submitReflectionInput{}
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	reflection, successor, err := handler.lifecycle.SubmitReflection(experiment.ID, services.ReflectionInput{
		Content:    input.Content,
		IsEnd:      input.IsEnd,
		NextAction: input.NextAction,
		Overrides: services.SuccessorOverrides{
			Name:          input.Name,
			Description:   input.Description,
			DurationValue: input.DurationValue,
			DurationUnit:  input.DurationUnit,
		},
	}, handler.now())
	if err != nil {
		return handler.respondDomainError(c, err)
	}

	kind := "daily"
	if reflection.IsEnd {
		kind = "end"
		metrics.AddExperimentsCompleted("reflection", 1)
	}
	metrics.IncReflectionsSubmitted(kind)

	response := fiber.Map{"reflection": reflectionView(reflection)}
	if successor != nil {
		today := services.DateAtLocation(handler.now(), handler.location)
		response["successor"] = experimentView(*successor, today)
	}
	return c.Status(fiber.StatusCreated).JSON(response)
}

func reflectionView(reflection models.Reflection) fiber.Map {
	view := fiber.Map{
		"id":         reflection.ID,
		"content":    reflection.Content,
		"is_end":     reflection.IsEnd,
		"created_at": reflection.CreatedAt.Format(time.RFC3339),
	}
	if reflection.IsEnd {
		view["next_action"] = reflection.NextAction
	}
	return view
}
