package models

import "time"

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

const (
	DurationUnitDay  = "day"
	DurationUnitWeek = "week"
)

// Experiment is a time-boxed habit trial. Status only ever moves
// active -> completed; CompletedAt stays nil while active.
type Experiment struct {
	ID           uint      `gorm:"primaryKey"`
	UserID       uint      `gorm:"not null;index"`
	Name         string    `gorm:"not null"`
	Description  string
	DurationDays int       `gorm:"not null"`
	StartDate    time.Time `gorm:"type:date;not null"`
	Status       string    `gorm:"not null;default:active"`
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (experiment *Experiment) IsActive() bool {
	return experiment.Status == StatusActive
}

// EndDate is the first day outside the experiment window.
func (experiment *Experiment) EndDate() time.Time {
	return experiment.StartDate.AddDate(0, 0, experiment.DurationDays)
}
