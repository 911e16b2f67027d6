package domain

import "errors"

var (
	ErrInvalidTimeWindow  = errors.New("invalid time window")
	ErrInvalidIndex       = errors.New("invalid index")
	ErrStopNotFound       = errors.New("stop not found")
	ErrDuplicateStop      = errors.New("duplicate stop id")
	ErrInvalidClock       = errors.New("invalid clock time")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)
