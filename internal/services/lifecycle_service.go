package services

import (
	"strings"
	"time"

	"github.com/stintlabs/stint/internal/models"
)

type LifecycleExperimentStore interface {
	FindByID(experimentID uint) (models.Experiment, error)
	Create(experiment *models.Experiment) error
	MarkCompleted(experimentID uint, completedAt time.Time) (bool, error)
	ListActiveLapsed(today time.Time) ([]models.Experiment, error)
}

type ReflectionStore interface {
	ListByExperiment(experimentID uint) ([]models.Reflection, error)
	Create(reflection *models.Reflection) error
}

type LifecycleUserReader interface {
	FindByID(userID uint) (models.User, error)
}

type ReflectionInput struct {
	Content    string
	IsEnd      bool
	NextAction string
	Overrides  SuccessorOverrides
}

// SuccessorOverrides carries the fields a "modify" next action replaces
// on the follow-up experiment. Nil fields keep the source value.
type SuccessorOverrides struct {
	Name          *string
	Description   *string
	DurationValue *int
	DurationUnit  *string
}

// LifecycleService owns the active -> completed transition and the
// next-action branching that may spawn a successor experiment.
type LifecycleService struct {
	experiments LifecycleExperimentStore
	reflections ReflectionStore
	users       LifecycleUserReader
	policy      *TierPolicy
	location    *time.Location
}

func NewLifecycleService(
	experiments LifecycleExperimentStore,
	reflections ReflectionStore,
	users LifecycleUserReader,
	policy *TierPolicy,
	location *time.Location,
) *LifecycleService {
	if location == nil {
		location = time.UTC
	}
	return &LifecycleService{
		experiments: experiments,
		reflections: reflections,
		users:       users,
		policy:      policy,
		location:    location,
	}
}

// SubmitReflection stores a reflection for an active experiment. An end
// reflection additionally completes the experiment and, for the
// continue/modify next actions, creates the successor returned as the
// second value. A completed experiment accepts no reflections of any
// kind and answers ErrAlreadyCompleted.
func (service *LifecycleService) SubmitReflection(experimentID uint, input ReflectionInput, now time.Time) (models.Reflection, *models.Experiment, error) {
	experiment, err := service.experiments.FindByID(experimentID)
	if err != nil {
		return models.Reflection{}, nil, storeError(err)
	}
	if !experiment.IsActive() {
		return models.Reflection{}, nil, ErrAlreadyCompleted
	}

	if !input.IsEnd {
		reflection := models.Reflection{
			ExperimentID: experimentID,
			Content:      strings.TrimSpace(input.Content),
			IsEnd:        false,
		}
		if err := service.reflections.Create(&reflection); err != nil {
			return models.Reflection{}, nil, storeError(err)
		}
		return reflection, nil, nil
	}

	nextAction := strings.TrimSpace(input.NextAction)
	if !models.IsValidNextAction(nextAction) {
		return models.Reflection{}, nil, ErrMissingNextAction
	}

	// Resolve the successor, overrides included, before anything is
	// written. A rejected submission must leave the experiment active
	// and store nothing.
	var successor *models.Experiment
	if nextAction != models.NextActionEnd {
		resolved, err := resolveSuccessor(experiment, nextAction, input.Overrides, DateAtLocation(now, service.location))
		if err != nil {
			return models.Reflection{}, nil, err
		}
		successor = &resolved
	}

	// The conditional write is the completion guard: a concurrent end
	// reflection loses the race and reports ErrAlreadyCompleted.
	completed, err := service.experiments.MarkCompleted(experimentID, now)
	if err != nil {
		return models.Reflection{}, nil, storeError(err)
	}
	if !completed {
		return models.Reflection{}, nil, ErrAlreadyCompleted
	}

	reflection := models.Reflection{
		ExperimentID: experimentID,
		Content:      strings.TrimSpace(input.Content),
		IsEnd:        true,
		NextAction:   nextAction,
	}
	if err := service.reflections.Create(&reflection); err != nil {
		return models.Reflection{}, nil, storeError(err)
	}

	if successor == nil {
		return reflection, nil, nil
	}
	if err := service.storeSuccessor(successor); err != nil {
		return models.Reflection{}, nil, err
	}
	return reflection, successor, nil
}

// resolveSuccessor builds the follow-up experiment from the source and,
// for modify, the overrides. Pure validation, nothing is persisted.
func resolveSuccessor(source models.Experiment, nextAction string, overrides SuccessorOverrides, startDate time.Time) (models.Experiment, error) {
	successor := models.Experiment{
		UserID:       source.UserID,
		Name:         source.Name,
		Description:  source.Description,
		DurationDays: source.DurationDays,
		StartDate:    startDate,
		Status:       models.StatusActive,
	}

	if nextAction == models.NextActionModify {
		if overrides.Name != nil {
			name := strings.TrimSpace(*overrides.Name)
			if name == "" {
				return models.Experiment{}, ErrInvalidName
			}
			successor.Name = name
		}
		if overrides.Description != nil {
			successor.Description = strings.TrimSpace(*overrides.Description)
		}
		if overrides.DurationValue != nil {
			unit := models.DurationUnitDay
			if overrides.DurationUnit != nil {
				unit = *overrides.DurationUnit
			}
			durationDays, err := NormalizeDurationDays(*overrides.DurationValue, unit)
			if err != nil {
				return models.Experiment{}, err
			}
			successor.DurationDays = durationDays
		}
	}
	return successor, nil
}

func (service *LifecycleService) storeSuccessor(successor *models.Experiment) error {
	// The source experiment just left the active set, so the freed slot
	// counts in the successor's favor.
	user, err := service.users.FindByID(successor.UserID)
	if err != nil {
		return storeError(err)
	}
	allowed, err := service.policy.CanCreateExperiment(&user)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrTierLimitExceeded
	}

	if err := service.experiments.Create(successor); err != nil {
		return storeError(err)
	}
	return nil
}

func (service *LifecycleService) ListReflections(experimentID uint) ([]models.Reflection, error) {
	reflections, err := service.reflections.ListByExperiment(experimentID)
	if err != nil {
		return nil, storeError(err)
	}
	return reflections, nil
}

// CompleteDueExperiments marks every active experiment whose window has
// lapsed as completed. The pass is derived entirely from stored state,
// so overlapping or repeated runs settle on the same result.
func (service *LifecycleService) CompleteDueExperiments(now time.Time) (int, error) {
	today := DateAtLocation(now, service.location)
	lapsed, err := service.experiments.ListActiveLapsed(today)
	if err != nil {
		return 0, storeError(err)
	}

	completedCount := 0
	for _, experiment := range lapsed {
		completed, err := service.experiments.MarkCompleted(experiment.ID, now)
		if err != nil {
			return completedCount, storeError(err)
		}
		if completed {
			completedCount++
		}
	}
	return completedCount, nil
}
