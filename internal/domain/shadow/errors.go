package shadow

import "errors"

// Sentinel kinds for engine errors.
var (
	ErrInvalidConfiguration = errors.New("invalid shadow configuration")
)
