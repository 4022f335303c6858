package models

import (
	"errors"
	"fmt"
)

// Domain errors. Callers wrap them with context and match with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation failed")
	ErrConflict            = errors.New("conflict")
	ErrAlreadyPaid         = errors.New("invoice already paid")
	ErrInvalidLink         = errors.New("invalid payment link")
	ErrLinkExpired         = errors.New("payment link expired")
	ErrPaymentIncomplete   = errors.New("payment not completed")
	ErrSignatureInvalid    = errors.New("invalid webhook signature")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
)

// Validation wraps a Validate() message into ErrValidation.
func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
