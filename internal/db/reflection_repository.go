package db

import (
	"github.com/stintlabs/stint/internal/models"
	"gorm.io/gorm"
)

type ReflectionRepository struct {
	database *gorm.DB
}

func NewReflectionRepository(database *gorm.DB) *ReflectionRepository {
	return &ReflectionRepository{database: database}
}

func (repo *ReflectionRepository) ListByExperiment(experimentID uint) ([]models.Reflection, error) {
	reflections := make([]models.Reflection, 0)
	if err := repo.database.
		Where("experiment_id = ?", experimentID).
		Order("created_at ASC, id ASC").
		Find(&reflections).Error; err != nil {
		return nil, err
	}
	return reflections, nil
}

func (repo *ReflectionRepository) Create(reflection *models.Reflection) error {
	return repo.database.Create(reflection).Error
}
