package services

import (
	"strings"
	"time"

	"github.com/stintlabs/stint/internal/models"
)

type ExperimentRepository interface {
	FindByID(experimentID uint) (models.Experiment, error)
	ListByUser(userID uint) ([]models.Experiment, error)
	CountActiveByUser(userID uint) (int64, error)
	Create(experiment *models.Experiment) error
}

type ExperimentInput struct {
	Name          string
	Description   string
	DurationValue int
	DurationUnit  string
}

type ExperimentService struct {
	experiments ExperimentRepository
	policy      *TierPolicy
	location    *time.Location
}

func NewExperimentService(experiments ExperimentRepository, policy *TierPolicy, location *time.Location) *ExperimentService {
	if location == nil {
		location = time.UTC
	}
	return &ExperimentService{
		experiments: experiments,
		policy:      policy,
		location:    location,
	}
}

// Create starts a new experiment for the user with today as the start
// date. The tier policy is consulted first; free-tier users at the
// active cap get ErrTierLimitExceeded.
func (service *ExperimentService) Create(user *models.User, input ExperimentInput, now time.Time) (models.Experiment, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return models.Experiment{}, ErrInvalidName
	}

	durationDays, err := NormalizeDurationDays(input.DurationValue, input.DurationUnit)
	if err != nil {
		return models.Experiment{}, err
	}

	allowed, err := service.policy.CanCreateExperiment(user)
	if err != nil {
		return models.Experiment{}, err
	}
	if !allowed {
		return models.Experiment{}, ErrTierLimitExceeded
	}

	experiment := models.Experiment{
		UserID:       user.ID,
		Name:         name,
		Description:  strings.TrimSpace(input.Description),
		DurationDays: durationDays,
		StartDate:    DateAtLocation(now, service.location),
		Status:       models.StatusActive,
	}
	if err := service.experiments.Create(&experiment); err != nil {
		return models.Experiment{}, storeError(err)
	}
	return experiment, nil
}

func (service *ExperimentService) FindByID(experimentID uint) (models.Experiment, error) {
	experiment, err := service.experiments.FindByID(experimentID)
	if err != nil {
		return models.Experiment{}, storeError(err)
	}
	return experiment, nil
}

func (service *ExperimentService) ListForUser(userID uint) ([]models.Experiment, error) {
	experiments, err := service.experiments.ListByUser(userID)
	if err != nil {
		return nil, storeError(err)
	}
	return experiments, nil
}

// WindowContains reports whether a calendar day falls inside
// [startDate, startDate+duration).
func WindowContains(experiment models.Experiment, day time.Time) bool {
	if day.Before(experiment.StartDate) {
		return false
	}
	return day.Before(experiment.EndDate())
}

// Progress is elapsed days over total duration, clamped to [0, 1].
// The start day itself counts as one elapsed day.
func Progress(experiment models.Experiment, today time.Time) float64 {
	if experiment.DurationDays <= 0 {
		return 0
	}

	elapsed := DaysBetween(experiment.StartDate, today) + 1
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > experiment.DurationDays {
		elapsed = experiment.DurationDays
	}
	return float64(elapsed) / float64(experiment.DurationDays)
}
