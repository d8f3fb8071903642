package db

import (
	"time"

	"github.com/stintlabs/stint/internal/models"
	"gorm.io/gorm"
)

type CheckInRepository struct {
	database *gorm.DB
}

func NewCheckInRepository(database *gorm.DB) *CheckInRepository {
	return &CheckInRepository{database: database}
}

func (repo *CheckInRepository) ListByExperiment(experimentID uint) ([]models.CheckIn, error) {
	checkIns := make([]models.CheckIn, 0)
	if err := repo.database.
		Where("experiment_id = ?", experimentID).
		Order("date ASC, id ASC").
		Find(&checkIns).Error; err != nil {
		return nil, err
	}
	return checkIns, nil
}

func (repo *CheckInRepository) FindByExperimentAndDayRange(experimentID uint, dayStart time.Time, dayEnd time.Time) (models.CheckIn, bool, error) {
	entry := models.CheckIn{}
	result := repo.database.
		Where("experiment_id = ? AND date >= ? AND date < ?", experimentID, dayStart, dayEnd).
		Order("date DESC, id DESC").
		Limit(1).
		Find(&entry)
	if result.Error != nil {
		return models.CheckIn{}, false, result.Error
	}
	if result.RowsAffected == 0 {
		return models.CheckIn{}, false, nil
	}
	return entry, true, nil
}

func (repo *CheckInRepository) Create(entry *models.CheckIn) error {
	return repo.database.Create(entry).Error
}

func (repo *CheckInRepository) Save(entry *models.CheckIn) error {
	return repo.database.Save(entry).Error
}
