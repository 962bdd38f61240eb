package service

import (
	"errors"

	"gorm.io/gorm"

	"Backstage_Jobs/internal/apperr"
)

// requireActor is the single authorization gate for privileged operations.
func requireActor(actorID, callerID uint64, action string) error {
	if callerID == 0 || actorID != callerID {
		return apperr.Unauthorized(action, nil)
	}
	return nil
}

// storeErr maps a repository error; a missing row becomes NotFound, anything else RetrievalFailure.
func storeErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(what+" not found", nil)
	}
	return apperr.RetrievalFailure(what, err)
}
