package db

import (
	"time"

	"github.com/stintlabs/stint/internal/models"
	"gorm.io/gorm"
)

type ExperimentRepository struct {
	database *gorm.DB
}

func NewExperimentRepository(database *gorm.DB) *ExperimentRepository {
	return &ExperimentRepository{database: database}
}

func (repo *ExperimentRepository) FindByID(experimentID uint) (models.Experiment, error) {
	var experiment models.Experiment
	if err := repo.database.First(&experiment, experimentID).Error; err != nil {
		return models.Experiment{}, err
	}
	return experiment, nil
}

func (repo *ExperimentRepository) ListByUser(userID uint) ([]models.Experiment, error) {
	experiments := make([]models.Experiment, 0)
	if err := repo.database.
		Where("user_id = ?", userID).
		Order("start_date DESC, id DESC").
		Find(&experiments).Error; err != nil {
		return nil, err
	}
	return experiments, nil
}

func (repo *ExperimentRepository) ListActiveByUser(userID uint) ([]models.Experiment, error) {
	experiments := make([]models.Experiment, 0)
	if err := repo.database.
		Where("user_id = ? AND status = ?", userID, models.StatusActive).
		Order("start_date ASC, id ASC").
		Find(&experiments).Error; err != nil {
		return nil, err
	}
	return experiments, nil
}

func (repo *ExperimentRepository) CountActiveByUser(userID uint) (int64, error) {
	var count int64
	if err := repo.database.Model(&models.Experiment{}).
		Where("user_id = ? AND status = ?", userID, models.StatusActive).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListActiveLapsed returns active experiments whose window ends on or
// before the given day, i.e. candidates for automatic completion.
func (repo *ExperimentRepository) ListActiveLapsed(today time.Time) ([]models.Experiment, error) {
	experiments := make([]models.Experiment, 0)
	if err := repo.database.
		Where("status = ?", models.StatusActive).
		Order("id ASC").
		Find(&experiments).Error; err != nil {
		return nil, err
	}

	lapsed := make([]models.Experiment, 0, len(experiments))
	for _, experiment := range experiments {
		if !experiment.EndDate().After(today) {
			lapsed = append(lapsed, experiment)
		}
	}
	return lapsed, nil
}

func (repo *ExperimentRepository) Create(experiment *models.Experiment) error {
	return repo.database.Create(experiment).Error
}

// MarkCompleted flips status for an active experiment. The status guard
// in the WHERE clause keeps the transition one-way under concurrent calls;
// the returned flag reports whether this call performed the flip.
func (repo *ExperimentRepository) MarkCompleted(experimentID uint, completedAt time.Time) (bool, error) {
	result := repo.database.Model(&models.Experiment{}).
		Where("id = ? AND status = ?", experimentID, models.StatusActive).
		Updates(map[string]any{
			"status":       models.StatusCompleted,
			"completed_at": completedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
