package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stintlabs/stint/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := OpenSQLite(filepath.Join(t.TempDir(), "stint-test.db"))
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return database
}

func testDay(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	require.NoError(t, err)
	return parsed
}

func createTestUser(t *testing.T, repos *Repositories, email string) models.User {
	t.Helper()
	user := models.User{
		Email:        email,
		PasswordHash: "x",
		Tier:         models.TierFree,
		ReminderHour: 9,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repos.Users.Create(&user))
	return user
}

func createTestExperiment(t *testing.T, repos *Repositories, userID uint, name string, startDate string, durationDays int) models.Experiment {
	t.Helper()
	experiment := models.Experiment{
		UserID:       userID,
		Name:         name,
		DurationDays: durationDays,
		StartDate:    testDay(t, startDate),
		Status:       models.StatusActive,
	}
	require.NoError(t, repos.Experiments.Create(&experiment))
	return experiment
}

func TestUserRepositoryEmailLookups(t *testing.T) {
	repos := NewRepositories(openTestDB(t))
	user := createTestUser(t, repos, "owner@example.com")

	found, err := repos.Users.FindByNormalizedEmail("owner@example.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, found.ID)

	exists, err := repos.Users.ExistsByNormalizedEmail("owner@example.com")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = repos.Users.ExistsByNormalizedEmail("nobody@example.com")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestUserRepositoryTierAndReminderUpdates(t *testing.T) {
	repos := NewRepositories(openTestDB(t))
	user := createTestUser(t, repos, "owner@example.com")

	require.NoError(t, repos.Users.UpdateTier(user.ID, models.TierPaid))
	require.NoError(t, repos.Users.UpdateReminderSettings(user.ID, 20, "token-1"))

	updated, err := repos.Users.FindByID(user.ID)
	require.NoError(t, err)
	require.Equal(t, models.TierPaid, updated.Tier)
	require.Equal(t, 20, updated.ReminderHour)
	require.Equal(t, "token-1", updated.DeviceToken)

	due, err := repos.Users.ListByReminderHour(20)
	require.NoError(t, err)
	require.Len(t, due, 1)

	due, err = repos.Users.ListByReminderHour(9)
	require.NoError(t, err)
	require.Empty(t, due)
}

func TestExperimentRepositoryActiveCount(t *testing.T) {
	repos := NewRepositories(openTestDB(t))
	user := createTestUser(t, repos, "owner@example.com")

	first := createTestExperiment(t, repos, user.ID, "One", "2024-01-01", 7)
	createTestExperiment(t, repos, user.ID, "Two", "2024-01-01", 7)

	count, err := repos.Experiments.CountActiveByUser(user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	flipped, err := repos.Experiments.MarkCompleted(first.ID, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, flipped)

	count, err = repos.Experiments.CountActiveByUser(user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestMarkCompletedIsOneWay(t *testing.T) {
	repos := NewRepositories(openTestDB(t))
	user := createTestUser(t, repos, "owner@example.com")
	experiment := createTestExperiment(t, repos, user.ID, "One", "2024-01-01", 7)

	flipped, err := repos.Experiments.MarkCompleted(experiment.ID, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, flipped)

	// The guarded update refuses a second flip.
	flipped, err = repos.Experiments.MarkCompleted(experiment.ID, time.Now().UTC())
	require.NoError(t, err)
	require.False(t, flipped)

	stored, err := repos.Experiments.FindByID(experiment.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, stored.Status)
	require.NotNil(t, stored.CompletedAt)
}

func TestListActiveLapsed(t *testing.T) {
	repos := NewRepositories(openTestDB(t))
	user := createTestUser(t, repos, "owner@example.com")

	lapsed := createTestExperiment(t, repos, user.ID, "Lapsed", "2024-01-01", 7)
	createTestExperiment(t, repos, user.ID, "Running", "2024-01-01", 30)

	due, err := repos.Experiments.ListActiveLapsed(testDay(t, "2024-01-08"))
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, lapsed.ID, due[0].ID)

	due, err = repos.Experiments.ListActiveLapsed(testDay(t, "2024-01-07"))
	require.NoError(t, err)
	require.Empty(t, due)
}

func TestCheckInRepositoryDayLookup(t *testing.T) {
	repos := NewRepositories(openTestDB(t))
	user := createTestUser(t, repos, "owner@example.com")
	experiment := createTestExperiment(t, repos, user.ID, "One", "2024-01-01", 7)

	entry := models.CheckIn{
		ExperimentID: experiment.ID,
		Date:         testDay(t, "2024-01-03"),
		Completed:    true,
		Note:         "first",
	}
	require.NoError(t, repos.CheckIns.Create(&entry))

	dayStart := testDay(t, "2024-01-03")
	found, ok, err := repos.CheckIns.FindByExperimentAndDayRange(experiment.ID, dayStart, dayStart.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, entry.ID, found.ID)

	found.Completed = false
	found.Note = "edited"
	require.NoError(t, repos.CheckIns.Save(&found))

	checkIns, err := repos.CheckIns.ListByExperiment(experiment.ID)
	require.NoError(t, err)
	require.Len(t, checkIns, 1)
	require.False(t, checkIns[0].Completed)
	require.Equal(t, "edited", checkIns[0].Note)

	otherDay := testDay(t, "2024-01-04")
	_, ok, err = repos.CheckIns.FindByExperimentAndDayRange(experiment.ID, otherDay, otherDay.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReflectionRepositoryOrdersByCreation(t *testing.T) {
	repos := NewRepositories(openTestDB(t))
	user := createTestUser(t, repos, "owner@example.com")
	experiment := createTestExperiment(t, repos, user.ID, "One", "2024-01-01", 7)

	first := models.Reflection{ExperimentID: experiment.ID, Content: "day one"}
	require.NoError(t, repos.Reflections.Create(&first))
	second := models.Reflection{ExperimentID: experiment.ID, Content: "wrap up", IsEnd: true, NextAction: models.NextActionEnd}
	require.NoError(t, repos.Reflections.Create(&second))

	reflections, err := repos.Reflections.ListByExperiment(experiment.ID)
	require.NoError(t, err)
	require.Len(t, reflections, 2)
	require.Equal(t, "day one", reflections[0].Content)
	require.True(t, reflections[1].IsEnd)
}
