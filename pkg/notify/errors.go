package notify

import (
	"errors"
	"fmt"
)

// ErrValidation is the root of the validation error taxonomy. Every
// validation failure wraps it, so callers can match the whole class with
// errors.Is(err, ErrValidation).
var ErrValidation = errors.New("notify: validation failed")

var (
	ErrEmptyTitle           = fmt.Errorf("%w: title is required", ErrValidation)
	ErrEmptyBody            = fmt.Errorf("%w: body is required", ErrValidation)
	ErrInvalidCategory      = fmt.Errorf("%w: unrecognized category", ErrValidation)
	ErrInvalidTargetKind    = fmt.Errorf("%w: unrecognized target kind", ErrValidation)
	ErrInvalidTargetApp     = fmt.Errorf("%w: target app type must be customer or driver", ErrValidation)
	ErrMissingTargetUser    = fmt.Errorf("%w: user target requires a user id", ErrValidation)
	ErrInvalidTargetPermKey = fmt.Errorf("%w: invalid permission key", ErrValidation)
)

// ErrRecordNotFound is returned when a notification record does not exist.
var ErrRecordNotFound = errors.New("notify: record not found")
