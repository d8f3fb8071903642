package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	experimentsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stint",
			Name:      "experiments_created_total",
			Help:      "Count of experiments created by owner tier.",
		},
		[]string{"tier"},
	)

	experimentsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stint",
			Name:      "experiments_completed_total",
			Help:      "Count of completed experiments by trigger.",
		},
		[]string{"trigger"},
	)

	checkInsRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stint",
			Name:      "checkins_recorded_total",
			Help:      "Count of daily check-in writes.",
		},
	)

	reflectionsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stint",
			Name:      "reflections_submitted_total",
			Help:      "Count of reflections by kind.",
		},
		[]string{"kind"},
	)

	remindersDue = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stint",
			Name:      "reminders_due_total",
			Help:      "Count of reminder batches computed by the scanner.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			experimentsCreated,
			experimentsCompleted,
			checkInsRecorded,
			reflectionsSubmitted,
			remindersDue,
		)
	})
}

func IncExperimentsCreated(tier string) {
	experimentsCreated.WithLabelValues(tier).Inc()
}

func AddExperimentsCompleted(trigger string, count int) {
	experimentsCompleted.WithLabelValues(trigger).Add(float64(count))
}

func IncCheckInsRecorded() {
	checkInsRecorded.Inc()
}

func IncReflectionsSubmitted(kind string) {
	reflectionsSubmitted.WithLabelValues(kind).Inc()
}

func AddRemindersDue(count int) {
	remindersDue.Add(float64(count))
}
