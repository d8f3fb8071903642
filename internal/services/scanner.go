package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/stintlabs/stint/internal/metrics"
)

// ReminderSender delivers one reminder batch. Implementations own
// transport and duplicate suppression.
type ReminderSender interface {
	SendReminder(ctx context.Context, batch ReminderBatch) error
}

// Scanner is the single background activity: on every tick it completes
// lapsed experiments, then hands due reminder batches to the sender.
// Both steps are stateless scans over the store.
type Scanner struct {
	lifecycle *LifecycleService
	reminders *ReminderService
	sender    ReminderSender
	interval  time.Duration
	location  *time.Location
	logger    zerolog.Logger
}

func NewScanner(
	lifecycle *LifecycleService,
	reminders *ReminderService,
	sender ReminderSender,
	interval time.Duration,
	location *time.Location,
	logger zerolog.Logger,
) *Scanner {
	if interval <= 0 {
		interval = time.Hour
	}
	if location == nil {
		location = time.UTC
	}
	return &Scanner{
		lifecycle: lifecycle,
		reminders: reminders,
		sender:    sender,
		interval:  interval,
		location:  location,
		logger:    logger,
	}
}

func (scanner *Scanner) Start(ctx context.Context) {
	ticker := time.NewTicker(scanner.interval)
	go func() {
		defer ticker.Stop()

		scanner.RunOnce(ctx, time.Now().In(scanner.location))
		for {
			select {
			case <-ctx.Done():
				scanner.logger.Info().Msg("scanner stopping")
				return
			case <-ticker.C:
				scanner.RunOnce(ctx, time.Now().In(scanner.location))
			}
		}
	}()
}

func (scanner *Scanner) RunOnce(ctx context.Context, now time.Time) {
	completed, err := scanner.lifecycle.CompleteDueExperiments(now)
	if err != nil {
		scanner.logger.Error().Err(err).Msg("auto-completion pass failed")
	} else if completed > 0 {
		metrics.AddExperimentsCompleted("lapsed", completed)
		scanner.logger.Info().Int("completed", completed).Msg("completed lapsed experiments")
	}

	batches, err := scanner.reminders.DueReminders(now.Hour(), now)
	if err != nil {
		scanner.logger.Error().Err(err).Msg("due reminder scan failed")
		return
	}
	if len(batches) == 0 {
		return
	}
	metrics.AddRemindersDue(len(batches))

	if scanner.sender == nil {
		scanner.logger.Debug().Int("batches", len(batches)).Msg("no sender configured, dropping reminders")
		return
	}
	for _, batch := range batches {
		if err := scanner.sender.SendReminder(ctx, batch); err != nil {
			scanner.logger.Error().Err(err).Uint("user_id", batch.User.ID).Msg("send reminder failed")
		}
	}
}
