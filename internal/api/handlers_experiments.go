package api

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stintlabs/stint/internal/metrics"
	"github.com/stintlabs/stint/internal/models"
	"github.com/stintlabs/stint/internal/services"
)

type createExperimentInput struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	DurationValue int    `json:"duration_value"`
	DurationUnit  string `json:"duration_unit"`
}

func (handler *Handler) ListExperiments(c *fiber.Ctx) error {
	user := currentUser(c)
	experiments, err := handler.experiments.ListForUser(user.ID)
	if err != nil {
		return handler.respondDomainError(c, err)
	}

	today := services.DateAtLocation(handler.now(), handler.location)
	views := make([]fiber.Map, 0, len(experiments))
	for _, experiment := range experiments {
		views = append(views, experimentView(experiment, today))
	}
	return c.JSON(fiber.Map{"experiments": views})
}

func (handler *Handler) CreateExperiment(c *fiber.Ctx) error {
	user := currentUser(c)

	input := createExperimentInput{}
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	experiment, err := handler.experiments.Create(user, services.ExperimentInput{
		Name:          input.Name,
		Description:   input.Description,
		DurationValue: input.DurationValue,
		DurationUnit:  input.DurationUnit,
	}, handler.now())
	if err != nil {
		return handler.respondDomainError(c, err)
	}

	metrics.IncExperimentsCreated(user.Tier)
	today := services.DateAtLocation(handler.now(), handler.location)
	return c.Status(fiber.StatusCreated).JSON(experimentView(experiment, today))
}

func (handler *Handler) GetExperiment(c *fiber.Ctx) error {
	experiment, err := handler.loadOwnedExperiment(c)
	if err != nil {
		return handler.respondDomainError(c, err)
	}

	streak, err := handler.checkIns.CurrentStreak(experiment.ID)
	if err != nil {
		return handler.respondDomainError(c, err)
	}

	today := services.DateAtLocation(handler.now(), handler.location)
	view := experimentView(experiment, today)
	view["streak"] = streak
	return c.JSON(view)
}

// loadOwnedExperiment resolves :id and enforces ownership; a foreign
// experiment is indistinguishable from a missing one.
func (handler *Handler) loadOwnedExperiment(c *fiber.Ctx) (models.Experiment, error) {
	experimentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return models.Experiment{}, services.ErrNotFound
	}

	experiment, err := handler.experiments.FindByID(uint(experimentID))
	if err != nil {
		return models.Experiment{}, err
	}

	user := currentUser(c)
	if user == nil || experiment.UserID != user.ID {
		return models.Experiment{}, services.ErrNotFound
	}
	return experiment, nil
}

func experimentView(experiment models.Experiment, today time.Time) fiber.Map {
	view := fiber.Map{
		"id":            experiment.ID,
		"name":          experiment.Name,
		"description":   experiment.Description,
		"duration_days": experiment.DurationDays,
		"start_date":    experiment.StartDate.Format("2006-01-02"),
		"status":        experiment.Status,
		"progress":      services.Progress(experiment, today),
	}
	if experiment.CompletedAt != nil {
		view["completed_at"] = experiment.CompletedAt.Format(time.RFC3339)
	}
	return view
}

func parseDateParam(raw string, location *time.Location) (time.Time, error) {
	parsed, err := time.ParseInLocation("2006-01-02", raw, location)
	if err != nil {
		return time.Time{}, errors.New("invalid date")
	}
	return parsed, nil
}
