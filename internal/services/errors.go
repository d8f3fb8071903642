package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrTierLimitExceeded   = errors.New("tier limit exceeded")
	ErrInvalidName         = errors.New("invalid experiment name")
	ErrInvalidDuration     = errors.New("invalid duration")
	ErrOutOfWindow         = errors.New("date outside experiment window")
	ErrExperimentNotActive = errors.New("experiment not active")
	ErrMissingNextAction   = errors.New("missing next action")
	ErrAlreadyCompleted    = errors.New("experiment already completed")
	ErrNotFound            = errors.New("not found")

	// ErrStoreUnavailable wraps transient persistence failures. It is the
	// only error kind callers should retry.
	ErrStoreUnavailable = errors.New("store unavailable")
)

func storeError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
