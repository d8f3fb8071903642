package services

import "github.com/stintlabs/stint/internal/models"

type ActiveExperimentCounter interface {
	CountActiveByUser(userID uint) (int64, error)
}

// TierPolicy enforces the free-tier cap on concurrently active
// experiments. The count-then-create sequence is deliberately not
// transactional; the cap is a soft limit.
type TierPolicy struct {
	experiments ActiveExperimentCounter
}

func NewTierPolicy(experiments ActiveExperimentCounter) *TierPolicy {
	return &TierPolicy{experiments: experiments}
}

func (policy *TierPolicy) CanCreateExperiment(user *models.User) (bool, error) {
	if models.IsPaidUser(user) {
		return true, nil
	}
	count, err := policy.experiments.CountActiveByUser(user.ID)
	if err != nil {
		return false, storeError(err)
	}
	return count < models.FreeTierActiveLimit, nil
}
