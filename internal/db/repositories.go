package db

import "gorm.io/gorm"

type Repositories struct {
	Users       *UserRepository
	Experiments *ExperimentRepository
	CheckIns    *CheckInRepository
	Reflections *ReflectionRepository
}

func NewRepositories(database *gorm.DB) *Repositories {
	return &Repositories{
		Users:       NewUserRepository(database),
		Experiments: NewExperimentRepository(database),
		CheckIns:    NewCheckInRepository(database),
		Reflections: NewReflectionRepository(database),
	}
}
