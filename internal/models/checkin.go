package models

import "time"

// CheckIn records whether the habit was performed on one calendar day.
// The (experiment, date) pair is unique; a repeated write for the same
// day overwrites the earlier record.
type CheckIn struct {
	ID           uint      `gorm:"primaryKey"`
	ExperimentID uint      `gorm:"not null;uniqueIndex:uidx_experiment_date"`
	Date         time.Time `gorm:"type:date;not null;uniqueIndex:uidx_experiment_date"`
	Completed    bool      `gorm:"not null;default:false"`
	Note         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
