package feature

import "errors"

var (
	// ErrFlagNotFound indicates the requested flag does not exist.
	ErrFlagNotFound = errors.New("feature: flag not found")

	// ErrFlagExists indicates a flag with the same name already exists.
	ErrFlagExists = errors.New("feature: flag already exists")

	// ErrInvalidFlag indicates missing or malformed flag fields.
	ErrInvalidFlag = errors.New("feature: invalid flag parameters")

	// ErrInvalidRolloutPercent indicates a rollout percentage outside [0,100].
	ErrInvalidRolloutPercent = errors.New("feature: rollout percent must be between 0 and 100")
)
