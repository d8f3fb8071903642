package models

import "time"

const (
	TierFree = "free"
	TierPaid = "paid"
)

// FreeTierActiveLimit caps concurrently active experiments for free accounts.
const FreeTierActiveLimit = 3

const DefaultReminderHour = 9

type User struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Tier         string `gorm:"not null;default:free"`
	ReminderHour int    `gorm:"not null;default:9"`
	DeviceToken  string
	CreatedAt    time.Time `gorm:"not null"`
}

func IsPaidUser(user *User) bool {
	return user != nil && user.Tier == TierPaid
}
