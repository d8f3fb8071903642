package models

import "time"

const (
	NextActionContinue = "continue"
	NextActionModify   = "modify"
	NextActionEnd      = "end"
)

// Reflection is a free-text note about an experiment. An end reflection
// (IsEnd true) carries a mandatory next action and completes the
// experiment; daily reflections leave NextAction empty.
type Reflection struct {
	ID           uint   `gorm:"primaryKey"`
	ExperimentID uint   `gorm:"not null;index"`
	Content      string `gorm:"not null"`
	IsEnd        bool   `gorm:"not null;default:false"`
	NextAction   string
	CreatedAt    time.Time
}

func IsValidNextAction(action string) bool {
	switch action {
	case NextActionContinue, NextActionModify, NextActionEnd:
		return true
	default:
		return false
	}
}
