package services

import (
	"time"

	"github.com/stintlabs/stint/internal/models"
)

type CheckInStore interface {
	ListByExperiment(experimentID uint) ([]models.CheckIn, error)
	FindByExperimentAndDayRange(experimentID uint, dayStart time.Time, dayEnd time.Time) (models.CheckIn, bool, error)
	Create(entry *models.CheckIn) error
	Save(entry *models.CheckIn) error
}

type CheckInExperimentReader interface {
	FindByID(experimentID uint) (models.Experiment, error)
}

// CheckInService records daily check-ins and derives streaks from them.
type CheckInService struct {
	checkIns    CheckInStore
	experiments CheckInExperimentReader
	location    *time.Location
}

func NewCheckInService(checkIns CheckInStore, experiments CheckInExperimentReader, location *time.Location) *CheckInService {
	if location == nil {
		location = time.UTC
	}
	return &CheckInService{
		checkIns:    checkIns,
		experiments: experiments,
		location:    location,
	}
}

// Record writes the check-in for one calendar day. The (experiment, date)
// pair is the idempotency key: a repeated call for the same day
// overwrites the earlier record, which is how a note gets edited after a
// notification check-in.
func (service *CheckInService) Record(experimentID uint, day time.Time, completed bool, note string) (models.CheckIn, error) {
	experiment, err := service.experiments.FindByID(experimentID)
	if err != nil {
		return models.CheckIn{}, storeError(err)
	}
	if !experiment.IsActive() {
		return models.CheckIn{}, ErrExperimentNotActive
	}

	dayStart, dayEnd := DayRange(day, service.location)
	if !WindowContains(experiment, dayStart) {
		return models.CheckIn{}, ErrOutOfWindow
	}

	entry, found, err := service.checkIns.FindByExperimentAndDayRange(experimentID, dayStart, dayEnd)
	if err != nil {
		return models.CheckIn{}, storeError(err)
	}
	if found {
		entry.Completed = completed
		entry.Note = note
		if err := service.checkIns.Save(&entry); err != nil {
			return models.CheckIn{}, storeError(err)
		}
		return entry, nil
	}

	entry = models.CheckIn{
		ExperimentID: experimentID,
		Date:         dayStart,
		Completed:    completed,
		Note:         note,
	}
	if err := service.checkIns.Create(&entry); err != nil {
		return models.CheckIn{}, storeError(err)
	}
	return entry, nil
}

func (service *CheckInService) ListForExperiment(experimentID uint) ([]models.CheckIn, error) {
	checkIns, err := service.checkIns.ListByExperiment(experimentID)
	if err != nil {
		return nil, storeError(err)
	}
	return checkIns, nil
}

// CurrentStreak recomputes the streak from stored check-ins on every
// call; nothing is cached, so it cannot drift from the data.
func (service *CheckInService) CurrentStreak(experimentID uint) (int, error) {
	experiment, err := service.experiments.FindByID(experimentID)
	if err != nil {
		return 0, storeError(err)
	}
	checkIns, err := service.checkIns.ListByExperiment(experimentID)
	if err != nil {
		return 0, storeError(err)
	}
	return Streak(experiment, checkIns, service.location), nil
}

// Streak counts consecutive completed days walking backward from the
// most recent check-in. A not-completed day, a day with no check-in, or
// the experiment start date ends the walk.
func Streak(experiment models.Experiment, checkIns []models.CheckIn, location *time.Location) int {
	if len(checkIns) == 0 {
		return 0
	}

	byDay := make(map[string]models.CheckIn, len(checkIns))
	var latest time.Time
	for _, entry := range checkIns {
		day := DateAtLocation(entry.Date, location)
		byDay[dayKey(day)] = entry
		if day.After(latest) {
			latest = day
		}
	}

	start := DateAtLocation(experiment.StartDate, location)
	streak := 0
	for cursor := latest; !cursor.Before(start); cursor = cursor.AddDate(0, 0, -1) {
		entry, ok := byDay[dayKey(cursor)]
		if !ok || !entry.Completed {
			break
		}
		streak++
	}
	return streak
}

func dayKey(day time.Time) string {
	return day.Format("2006-01-02")
}
