package api

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/stintlabs/stint/internal/db"
	"github.com/stintlabs/stint/internal/services"
	"gorm.io/gorm"
)

const authCookieName = "stint_session"

const defaultAuthTokenTTL = 7 * 24 * time.Hour

type Handler struct {
	repos        *db.Repositories
	experiments  *services.ExperimentService
	checkIns     *services.CheckInService
	lifecycle    *services.LifecycleService
	reminders    *services.ReminderService
	secretKey    []byte
	location     *time.Location
	cookieSecure bool
	opsToken     string
	logger       zerolog.Logger
}

type Options struct {
	SecretKey    string
	Location     *time.Location
	CookieSecure bool
	OpsToken     string
	Logger       zerolog.Logger
}

func NewHandler(database *gorm.DB, options Options) *Handler {
	location := options.Location
	if location == nil {
		location = time.UTC
	}

	repos := db.NewRepositories(database)
	policy := services.NewTierPolicy(repos.Experiments)

	return &Handler{
		repos:        repos,
		experiments:  services.NewExperimentService(repos.Experiments, policy, location),
		checkIns:     services.NewCheckInService(repos.CheckIns, repos.Experiments, location),
		lifecycle:    services.NewLifecycleService(repos.Experiments, repos.Reflections, repos.Users, policy, location),
		reminders:    services.NewReminderService(repos.Users, repos.Experiments, location),
		secretKey:    []byte(options.SecretKey),
		location:     location,
		cookieSecure: options.CookieSecure,
		opsToken:     options.OpsToken,
		logger:       options.Logger,
	}
}

// Lifecycle exposes the lifecycle service so main can wire the scanner
// over the same repositories.
func (handler *Handler) Lifecycle() *services.LifecycleService {
	return handler.lifecycle
}

func (handler *Handler) Reminders() *services.ReminderService {
	return handler.reminders
}

func (handler *Handler) now() time.Time {
	return time.Now().In(handler.location)
}
