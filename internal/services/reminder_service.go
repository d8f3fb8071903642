package services

import (
	"time"

	"github.com/stintlabs/stint/internal/models"
)

type ReminderUserSource interface {
	ListByReminderHour(hour int) ([]models.User, error)
}

type ReminderExperimentSource interface {
	ListActiveByUser(userID uint) ([]models.Experiment, error)
}

// ReminderBatch pairs a user with the active experiments they should be
// reminded about. Delivery, and any dedup across repeated ticks, is the
// delivery collaborator's job.
type ReminderBatch struct {
	User        models.User
	Experiments []models.Experiment
}

type ReminderService struct {
	users       ReminderUserSource
	experiments ReminderExperimentSource
	location    *time.Location
}

func NewReminderService(users ReminderUserSource, experiments ReminderExperimentSource, location *time.Location) *ReminderService {
	if location == nil {
		location = time.UTC
	}
	return &ReminderService{
		users:       users,
		experiments: experiments,
		location:    location,
	}
}

// DueReminders computes who is due a reminder at the given hour. For
// each user whose preferred hour matches, it collects their active
// experiments whose window includes today and emits a batch when that
// list is non-empty. Everything is re-derived from the store, so a
// delayed or repeated tick sees the same answer.
func (service *ReminderService) DueReminders(hour int, now time.Time) ([]ReminderBatch, error) {
	users, err := service.users.ListByReminderHour(hour)
	if err != nil {
		return nil, storeError(err)
	}

	today := DateAtLocation(now, service.location)
	batches := make([]ReminderBatch, 0, len(users))
	for _, user := range users {
		experiments, err := service.experiments.ListActiveByUser(user.ID)
		if err != nil {
			return nil, storeError(err)
		}

		due := make([]models.Experiment, 0, len(experiments))
		for _, experiment := range experiments {
			if WindowContains(experiment, today) {
				due = append(due, experiment)
			}
		}
		if len(due) > 0 {
			batches = append(batches, ReminderBatch{User: user, Experiments: due})
		}
	}
	return batches, nil
}
