package domain

import "errors"

var (
	ErrTripNotFound    = errors.New("trip not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrInvalidDelay    = errors.New("delay minutes must not be negative")
	ErrReferenceTaken  = errors.New("booking reference already taken")
)
