package schedule

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidSampling = fmt.Errorf("%w: sampling period must be positive", ErrInvalidArgument)
	ErrAlreadyStarted  = errors.New("scheduler already started")

	errCatchUpPanicked = errors.New("catch-up run panicked")
)
