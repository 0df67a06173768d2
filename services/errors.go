package services

import (
	"errors"

	"github.com/andrensetiawan/form-service/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrVersionMismatch   = errors.New("record was modified by someone else")
	ErrPublicViewExpired = errors.New("public view expired or revoked")
	ErrFeatureDisabled   = errors.New("feature disabled")
	ErrInvalidCredential = errors.New("invalid credentials")
)

// validation wraps messages so callers can errors.As them into
// models.ValidationErrors.
func validation(msgs ...string) error {
	return models.ValidationErrors(msgs)
}
